package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"esg_platform/esg_hub/auth"
	"esg_platform/esg_hub/schema"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditLine(t *testing.T, req *http.Request) map[string]interface{} {
	buf := new(bytes.Buffer)
	logger := auth.NewAuditLogger(buf)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	rec := httptest.NewRecorder()
	logger.Middleware(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestAuditLoggerRecordsUserAndOrganization(t *testing.T) {
	user := schema.User{Id: uuid.New(), Username: "anna", Email: "anna@mail.com", Role: schema.ConsultantRole}
	orgId := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/materiality-topics?organizationId="+orgId.String(), nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.7, 192.168.1.1")
	line := auditLine(t, auth.WithUser(req, user))

	assert.Equal(t, user.Id.String(), line["user_id"])
	assert.Equal(t, "anna@mail.com", line["email"])
	assert.Equal(t, schema.ConsultantRole, line["role"])
	assert.Equal(t, orgId.String(), line["organization_id"])
	assert.Equal(t, "10.0.0.7", line["client_ip"])
	assert.Equal(t, "/materiality-topics", line["url"])
}

func TestAuditLoggerOrganizationHeader(t *testing.T) {
	user := schema.User{Id: uuid.New(), Username: "ben", Email: "ben@mail.com", Role: schema.OrganizationRole}
	orgId := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/company-profile", nil)
	req.Header.Set(auth.OrganizationHeader, orgId.String())
	line := auditLine(t, auth.WithUser(req, user))
	assert.Equal(t, orgId.String(), line["organization_id"])

	req = httptest.NewRequest(http.MethodGet, "/company-profile", nil)
	line = auditLine(t, auth.WithUser(req, user))
	assert.Equal(t, "", line["organization_id"])
}

func TestAuditLoggerRequiresUser(t *testing.T) {
	logger := auth.NewAuditLogger(new(bytes.Buffer))
	rec := httptest.NewRecorder()
	logger.Middleware(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
