package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	"esg_platform/esg_hub/auth"

	"github.com/go-chi/chi/v5"
)

type httpTestRequest struct {
	api http.Handler

	method   string
	endpoint string
	headers  map[string]string
	json     interface{}
	body     io.Reader
}

func newHttpTestRequest(api http.Handler, method, endpoint string) *httpTestRequest {
	return &httpTestRequest{
		api:      api,
		method:   method,
		endpoint: endpoint,
	}
}

func (r *httpTestRequest) Header(key, value string) *httpTestRequest {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

func (r *httpTestRequest) Auth(token string) *httpTestRequest {
	return r.Header("Authorization", fmt.Sprintf("Bearer %v", token))
}

// Org selects the organization the request acts on.
func (r *httpTestRequest) Org(orgId string) *httpTestRequest {
	return r.Header(auth.OrganizationHeader, orgId)
}

func (r *httpTestRequest) Json(data interface{}) *httpTestRequest {
	r.json = data
	return r
}

func (r *httpTestRequest) Body(body io.Reader) *httpTestRequest {
	r.body = body
	return r
}

type statusError struct {
	method   string
	endpoint string
	code     int
	content  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v request to endpoint %v returned status %d, content '%v'", e.method, e.endpoint, e.code, e.content)
}

// statusCode returns the http status carried by err, 200 for nil, and 0 for
// errors that did not come from a response.
func statusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var serr *statusError
	if errors.As(err, &serr) {
		return serr.code
	}
	return 0
}

// response body will be parsed into result, passing nil indicates that no result is returned.
func (r *httpTestRequest) Do(result interface{}) error {
	if r.json != nil {
		body := new(bytes.Buffer)
		err := json.NewEncoder(body).Encode(r.json)
		if err != nil {
			return fmt.Errorf("error encoding json body for endpoint %v: %w", r.endpoint, err)
		}
		r.body = body
	}

	req := httptest.NewRequest(r.method, r.endpoint, r.body)
	for k, v := range r.headers {
		req.Header.Add(k, v)
	}

	w := httptest.NewRecorder()

	r.api.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return &statusError{method: r.method, endpoint: r.endpoint, code: res.StatusCode, content: w.Body.String()}
	}

	if result != nil {
		err := json.NewDecoder(res.Body).Decode(result)
		if err != nil {
			return fmt.Errorf("error parsing %v response from endpoint %v: %w", r.method, r.endpoint, err)
		}
	}

	return nil
}

type client struct {
	api       chi.Router
	authToken string
	userId    string

	// Organization created at registration, empty for consultants.
	orgId string
}

func (c *client) request(method, endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, method, endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Get(endpoint string) *httpTestRequest {
	return c.request("GET", endpoint)
}

func (c *client) Post(endpoint string) *httpTestRequest {
	return c.request("POST", endpoint)
}

func (c *client) Put(endpoint string) *httpTestRequest {
	return c.request("PUT", endpoint)
}

func (c *client) Delete(endpoint string) *httpTestRequest {
	return c.request("DELETE", endpoint)
}

type loginInfo struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type organizationInfo struct {
	Name          string  `json:"name"`
	Industry      string  `json:"industry"`
	Country       string  `json:"country"`
	EmployeeCount int     `json:"employeeCount"`
	Revenue       float64 `json:"revenue"`
	ReportingYear int     `json:"reportingYear"`
}

type registration struct {
	UserId         string `json:"user_id"`
	OrganizationId string `json:"organization_id"`

	login loginInfo
}

func (c *client) register(username, role string, org *organizationInfo) (registration, error) {
	body := map[string]interface{}{
		"username": username,
		"email":    username + "@mail.com",
		"password": username + "_password",
		"role":     role,
	}
	if org != nil {
		body["organization"] = org
	}

	var res registration
	if err := c.Post("/register").Json(body).Do(&res); err != nil {
		return registration{}, err
	}
	res.login = loginInfo{Email: username + "@mail.com", Password: username + "_password"}
	return res, nil
}

func (c *client) login(login loginInfo) error {
	var res map[string]string
	err := c.Post("/login").Json(login).Do(&res)
	if err != nil {
		return err
	}

	c.authToken = res["access_token"]
	c.userId = res["user_id"]

	return nil
}

type userInfo struct {
	Id            string       `json:"id"`
	Username      string       `json:"username"`
	Email         string       `json:"email"`
	Role          string       `json:"role"`
	Organizations []orgSummary `json:"organizations"`
}

type orgSummary struct {
	Id            string `json:"id"`
	Name          string `json:"name"`
	Access        string `json:"access"`
	LinkId        string `json:"linkId"`
	ContactPerson string `json:"contactPerson"`
	ContactEmail  string `json:"contactEmail"`
}

func (c *client) userInfo() (userInfo, error) {
	var res userInfo
	err := c.Get("/user/info").Do(&res)
	return res, err
}

func (c *client) listOrganizations() ([]orgSummary, error) {
	var res []orgSummary
	err := c.Get("/organizations").Do(&res)
	return res, err
}

func (c *client) currentOrganization(orgId string) (orgSummary, error) {
	var res orgSummary
	r := c.Get("/organizations/current")
	if orgId != "" {
		r = r.Org(orgId)
	}
	err := r.Do(&res)
	return res, err
}

func (c *client) createClientOrganization(name, contactPerson string) (string, error) {
	var res struct {
		OrganizationId string `json:"organizationId"`
	}
	err := c.Post("/consultant-organizations").Json(map[string]interface{}{
		"name": name, "industry": "Retail", "country": "France",
		"contactPerson": contactPerson, "contactEmail": "contact@client.com",
	}).Do(&res)
	return res.OrganizationId, err
}

func (c *client) grantConsultant(consultantEmail string) (string, error) {
	var res struct {
		Id string `json:"id"`
	}
	err := c.Post(fmt.Sprintf("/organizations/%v/consultants", c.orgId)).Json(map[string]string{
		"email": consultantEmail, "contactPerson": "Jane Doe",
	}).Do(&res)
	return res.Id, err
}
