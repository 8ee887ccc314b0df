package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"esg_platform/esg_hub/auth"
	"esg_platform/esg_hub/schema"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDb(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	if err := db.AutoMigrate(schema.AllModels()...); err != nil {
		t.Fatal(err)
	}
	return db
}

func addUser(t *testing.T, db *gorm.DB, name, role string) schema.User {
	user := schema.User{Id: uuid.New(), Username: name, Email: name + "@mail.com", Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func addOrg(t *testing.T, db *gorm.DB, name string, owner *uuid.UUID) schema.Organization {
	org := schema.Organization{Id: uuid.New(), Name: name, Slug: name, OwnerId: owner}
	require.NoError(t, db.Create(&org).Error)
	return org
}

func link(t *testing.T, db *gorm.DB, consultant schema.User, org schema.Organization) {
	l := schema.ConsultantOrganization{Id: uuid.New(), ConsultantId: consultant.Id, OrganizationId: org.Id, ContactPerson: "Jane"}
	require.NoError(t, db.Create(&l).Error)
}

func TestResolveOwnedOrganization(t *testing.T) {
	db := setupDb(t)
	resolver := auth.NewOrganizationResolver(db)

	owner := addUser(t, db, "owner", schema.OrganizationRole)
	other := addUser(t, db, "other", schema.OrganizationRole)
	orgA := addOrg(t, db, "a", &owner.Id)
	orgB := addOrg(t, db, "b", &other.Id)

	org, err := resolver.Resolve(owner.Id, nil)
	require.NoError(t, err)
	assert.Equal(t, orgA.Id, org.Id)
	assert.Equal(t, auth.AccessOwner, org.Access)

	org, err = resolver.Resolve(owner.Id, &orgA.Id)
	require.NoError(t, err)
	assert.Equal(t, orgA.Id, org.Id)

	_, err = resolver.Resolve(owner.Id, &orgB.Id)
	assert.ErrorIs(t, err, auth.ErrOrganizationAccessDenied)
}

func TestResolveConsultantFallback(t *testing.T) {
	db := setupDb(t)
	resolver := auth.NewOrganizationResolver(db)

	consultant := addUser(t, db, "consultant", schema.ConsultantRole)
	nobody := addUser(t, db, "nobody", schema.OrganizationRole)
	orgC := addOrg(t, db, "c", nil)
	link(t, db, consultant, orgC)

	org, err := resolver.Resolve(consultant.Id, nil)
	require.NoError(t, err)
	assert.Equal(t, orgC.Id, org.Id)
	assert.Equal(t, auth.AccessConsultant, org.Access)
	assert.Equal(t, "Jane", org.ContactPerson)

	_, err = resolver.Resolve(nobody.Id, nil)
	assert.ErrorIs(t, err, auth.ErrNoAccessibleOrganization)

	_, err = resolver.Resolve(nobody.Id, &orgC.Id)
	assert.ErrorIs(t, err, auth.ErrOrganizationAccessDenied)

	unknown := uuid.New()
	_, err = resolver.Resolve(nobody.Id, &unknown)
	assert.ErrorIs(t, err, auth.ErrOrganizationAccessDenied)
}

func TestOwnedOrganizationsShadowConsultantLinks(t *testing.T) {
	db := setupDb(t)
	resolver := auth.NewOrganizationResolver(db)

	user := addUser(t, db, "both", schema.OrganizationRole)
	owned := addOrg(t, db, "owned", &user.Id)
	client := addOrg(t, db, "client", nil)
	link(t, db, user, client)

	orgs, err := resolver.AccessibleOrganizations(user.Id)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, owned.Id, orgs[0].Id)

	_, err = resolver.Resolve(user.Id, &client.Id)
	assert.ErrorIs(t, err, auth.ErrOrganizationAccessDenied)
}

func TestAccessibleOrganizationsOrder(t *testing.T) {
	db := setupDb(t)
	resolver := auth.NewOrganizationResolver(db)

	user := addUser(t, db, "owner", schema.OrganizationRole)
	first := addOrg(t, db, "first", &user.Id)
	second := addOrg(t, db, "second", &user.Id)
	require.NoError(t, db.Model(&second).Update("created_at", first.CreatedAt.Add(time.Second)).Error)

	orgs, err := resolver.AccessibleOrganizations(user.Id)
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	assert.Equal(t, first.Id, orgs[0].Id)
	assert.Equal(t, second.Id, orgs[1].Id)
}

func scopedRequest(user schema.User, target string, header string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if header != "" {
		req.Header.Set(auth.OrganizationHeader, header)
	}
	return auth.WithUser(req, user)
}

func TestOrganizationScopeMiddleware(t *testing.T) {
	db := setupDb(t)
	resolver := auth.NewOrganizationResolver(db)

	owner := addUser(t, db, "owner", schema.OrganizationRole)
	other := addUser(t, db, "other", schema.OrganizationRole)
	nobody := addUser(t, db, "nobody", schema.OrganizationRole)
	orgA := addOrg(t, db, "a", &owner.Id)
	orgB := addOrg(t, db, "b", &other.Id)

	var resolved auth.OrganizationSummary
	handler := auth.OrganizationScope(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		org, err := auth.OrganizationFromContext(r)
		require.NoError(t, err)
		resolved = org
	}))

	cases := []struct {
		user   schema.User
		target string
		header string
		status int
	}{
		{owner, "/", "", http.StatusOK},
		{owner, "/?organizationId=" + orgA.Id.String(), "", http.StatusOK},
		{owner, "/", orgA.Id.String(), http.StatusOK},
		{owner, "/?organizationId=" + orgB.Id.String(), "", http.StatusForbidden},
		{owner, "/", orgB.Id.String(), http.StatusForbidden},
		{owner, "/?organizationId=not-a-uuid", "", http.StatusBadRequest},
		{nobody, "/", "", http.StatusNotFound},
		{nobody, "/?organizationId=" + orgB.Id.String(), "", http.StatusForbidden},
		{nobody, "/", orgA.Id.String(), http.StatusForbidden},
	}

	for _, c := range cases {
		resolved = auth.OrganizationSummary{}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, scopedRequest(c.user, c.target, c.header))
		assert.Equal(t, c.status, w.Code, "%v %v %v", c.user.Username, c.target, c.header)
		if c.status == http.StatusOK {
			assert.Equal(t, orgA.Id, resolved.Id)
		}
	}
}
