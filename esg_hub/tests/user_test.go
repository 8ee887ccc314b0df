package tests

import (
	"net/http"
	"testing"

	"esg_platform/esg_hub/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := setupTestEnv(t)

	c := env.newClient()
	reg, err := c.register("acme", schema.OrganizationRole, &organizationInfo{Name: "Acme Industries", Country: "Germany"})
	require.NoError(t, err)
	require.NotEmpty(t, reg.OrganizationId)

	_, err = c.register("acme", schema.OrganizationRole, &organizationInfo{Name: "Acme Again"})
	assert.Equal(t, http.StatusConflict, statusCode(err))

	err = c.login(loginInfo{Email: "nobody@mail.com", Password: "acme_password"})
	assert.Equal(t, http.StatusUnauthorized, statusCode(err))

	err = c.login(loginInfo{Email: reg.login.Email, Password: "wrong_password"})
	assert.Equal(t, http.StatusUnauthorized, statusCode(err))

	require.NoError(t, c.login(reg.login))
	assert.Equal(t, reg.UserId, c.userId)

	info, err := c.userInfo()
	require.NoError(t, err)
	assert.Equal(t, "acme", info.Username)
	assert.Equal(t, schema.OrganizationRole, info.Role)
	require.Len(t, info.Organizations, 1)
	assert.Equal(t, reg.OrganizationId, info.Organizations[0].Id)
	assert.Equal(t, "owner", info.Organizations[0].Access)
}

func TestRegisterValidation(t *testing.T) {
	env := setupTestEnv(t)
	c := env.newClient()

	// Organization accounts must bring their organization.
	_, err := c.register("noorg", schema.OrganizationRole, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, statusCode(err))

	_, err = c.register("badrole", "admin", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, statusCode(err))

	err = c.Post("/register").Json(map[string]string{
		"username": "short", "email": "short@mail.com", "password": "123", "role": schema.ConsultantRole,
	}).Do(nil)
	assert.Equal(t, http.StatusUnprocessableEntity, statusCode(err))

	reg, err := c.register("consultant", schema.ConsultantRole, nil)
	require.NoError(t, err)
	assert.Empty(t, reg.OrganizationId)
}

func TestUnauthenticatedRequests(t *testing.T) {
	env := setupTestEnv(t)
	c := env.newClient()

	for _, endpoint := range []string{"/user/info", "/organizations", "/company-profile", "/generated-reports", "/report-templates"} {
		err := c.Get(endpoint).Do(nil)
		assert.Equal(t, http.StatusUnauthorized, statusCode(err), endpoint)
	}

	err := c.Get("/health").Do(nil)
	assert.NoError(t, err)
}
