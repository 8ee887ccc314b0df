package tests

import (
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"esg_platform/esg_hub/auth"
	"esg_platform/esg_hub/schema"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganizationScoping(t *testing.T) {
	env := setupTestEnv(t)

	alice, err := env.newOrganizationUser("alice")
	require.NoError(t, err)
	bob, err := env.newOrganizationUser("bob")
	require.NoError(t, err)

	current, err := alice.currentOrganization("")
	require.NoError(t, err)
	assert.Equal(t, alice.orgId, current.Id)
	assert.Equal(t, auth.AccessOwner, current.Access)

	_, err = bob.currentOrganization(alice.orgId)
	assert.Equal(t, http.StatusForbidden, statusCode(err))

	_, err = bob.currentOrganization("not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, statusCode(err))

	err = alice.Post("/materiality-topics").Json(map[string]interface{}{
		"topic": "Climate change", "financialImpact": 4, "stakeholderImpact": 2,
	}).Do(nil)
	require.NoError(t, err)

	var topics []schema.MaterialityTopic
	require.NoError(t, bob.Get("/materiality-topics").Do(&topics))
	assert.Empty(t, topics)

	err = bob.Get(fmt.Sprintf("/materiality-topics?organizationId=%v", alice.orgId)).Do(&topics)
	assert.Equal(t, http.StatusForbidden, statusCode(err))

	require.NoError(t, alice.Get("/materiality-topics").Do(&topics))
	require.Len(t, topics, 1)
	assert.Equal(t, alice.orgId, topics[0].OrganizationId.String())
}

func TestOwnerCreatesAdditionalOrganizations(t *testing.T) {
	env := setupTestEnv(t)

	alice, err := env.newOrganizationUser("alice")
	require.NoError(t, err)

	var second schema.Organization
	err = alice.Post("/organizations").Json(organizationInfo{Name: "Alice Holdings SE"}).Do(&second)
	require.NoError(t, err)
	assert.Equal(t, "alice-holdings-se", second.Slug)

	orgs, err := alice.listOrganizations()
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, alice.orgId, orgs[0].Id)
	assert.Equal(t, second.Id.String(), orgs[1].Id)

	// The first organization is the default scope, the second must be selected.
	current, err := alice.currentOrganization(second.Id.String())
	require.NoError(t, err)
	assert.Equal(t, second.Id.String(), current.Id)

	consultant, err := env.newConsultant("carol")
	require.NoError(t, err)
	err = consultant.Post("/organizations").Json(organizationInfo{Name: "Carol Consulting"}).Do(nil)
	assert.Equal(t, http.StatusForbidden, statusCode(err))
}

func TestConsultantAccess(t *testing.T) {
	env := setupTestEnv(t)

	carol, err := env.newConsultant("carol")
	require.NoError(t, err)

	_, err = carol.currentOrganization("")
	assert.Equal(t, http.StatusNotFound, statusCode(err))

	clientOrg, err := carol.createClientOrganization("Client One", "John Smith")
	require.NoError(t, err)

	current, err := carol.currentOrganization("")
	require.NoError(t, err)
	assert.Equal(t, clientOrg, current.Id)
	assert.Equal(t, auth.AccessConsultant, current.Access)
	assert.Equal(t, "John Smith", current.ContactPerson)

	alice, err := env.newOrganizationUser("alice")
	require.NoError(t, err)

	_, err = alice.grantConsultant("nobody@mail.com")
	assert.Equal(t, http.StatusNotFound, statusCode(err))

	dave, err := env.newConsultant("dave")
	require.NoError(t, err)
	_, err = dave.currentOrganization("")
	assert.Equal(t, http.StatusNotFound, statusCode(err))
	// An explicit id is denied even for a consultant without any links.
	_, err = dave.currentOrganization(alice.orgId)
	assert.Equal(t, http.StatusForbidden, statusCode(err))
	_, err = dave.currentOrganization(uuid.NewString())
	assert.Equal(t, http.StatusForbidden, statusCode(err))

	bob, err := env.newOrganizationUser("bob")
	require.NoError(t, err)
	_, err = alice.grantConsultant("bob@mail.com")
	assert.Equal(t, http.StatusUnprocessableEntity, statusCode(err))

	_, err = alice.grantConsultant("carol@mail.com")
	require.NoError(t, err)
	_, err = alice.grantConsultant("carol@mail.com")
	assert.Equal(t, http.StatusConflict, statusCode(err))

	// Only the owner manages consultants.
	err = bob.Get(fmt.Sprintf("/organizations/%v/consultants", alice.orgId)).Do(nil)
	assert.Equal(t, http.StatusForbidden, statusCode(err))

	orgs, err := carol.listOrganizations()
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, clientOrg, orgs[0].Id)
	assert.Equal(t, alice.orgId, orgs[1].Id)

	current, err = carol.currentOrganization(alice.orgId)
	require.NoError(t, err)
	assert.Equal(t, alice.orgId, current.Id)

	_, err = carol.currentOrganization(bob.orgId)
	assert.Equal(t, http.StatusForbidden, statusCode(err))

	var rpt struct {
		Id string `json:"id"`
	}
	require.NoError(t, carol.Post("/generated-reports").Org(clientOrg).Json(map[string]interface{}{
		"title": "Client FY24", "templateId": "esrs-full",
	}).Do(&rpt))
	require.NoError(t, carol.Post(fmt.Sprintf("/generated-reports/%v/finalize", rpt.Id)).Org(clientOrg).Do(nil))
	archives := filepath.Join("reports", clientOrg)
	archived, err := env.storage.Exists(filepath.Join(archives, rpt.Id+".json"))
	require.NoError(t, err)
	require.True(t, archived)

	// Removing the only link to a client organization removes the organization
	// and its report archives.
	require.NotEmpty(t, orgs[0].LinkId)
	require.NoError(t, carol.Delete("/consultant-organizations/"+orgs[0].LinkId).Do(nil))

	var count int64
	require.NoError(t, env.db.Model(&schema.Organization{}).Where("id = ?", clientOrg).Count(&count).Error)
	assert.Zero(t, count)
	archived, err = env.storage.Exists(archives)
	require.NoError(t, err)
	assert.False(t, archived)

	orgs, err = carol.listOrganizations()
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, alice.orgId, orgs[0].Id)

	// Removing a link to an owned organization keeps the organization.
	require.NoError(t, carol.Delete("/consultant-organizations/"+orgs[0].LinkId).Do(nil))
	require.NoError(t, env.db.Model(&schema.Organization{}).Where("id = ?", alice.orgId).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	err = carol.Delete("/consultant-organizations/" + uuid.NewString()).Do(nil)
	assert.Equal(t, http.StatusNotFound, statusCode(err))
}

func TestOwnedOrganizationsShadowConsultantLinks(t *testing.T) {
	env := setupTestEnv(t)

	alice, err := env.newOrganizationUser("alice")
	require.NoError(t, err)
	bob, err := env.newOrganizationUser("bob")
	require.NoError(t, err)

	// Link bob as if he were a consultant for alice's organization.
	link := schema.ConsultantOrganization{Id: uuid.New(), ConsultantId: uuid.MustParse(bob.userId), OrganizationId: uuid.MustParse(alice.orgId)}
	require.NoError(t, env.db.Create(&link).Error)

	orgs, err := bob.listOrganizations()
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, bob.orgId, orgs[0].Id)

	_, err = bob.currentOrganization(alice.orgId)
	assert.Equal(t, http.StatusForbidden, statusCode(err))
}
