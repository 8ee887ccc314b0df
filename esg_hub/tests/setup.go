package tests

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"esg_platform/esg_hub/auth"
	"esg_platform/esg_hub/metrics"
	"esg_platform/esg_hub/schema"
	"esg_platform/esg_hub/services"
	"esg_platform/esg_hub/storage"
	"esg_platform/esg_hub/templates"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	platform services.EsgPlatform
	api      chi.Router
	storage  storage.Storage
	metrics  *metrics.Metrics
	db       *gorm.DB
}

func setupTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	if err := db.AutoMigrate(schema.AllModels()...); err != nil {
		t.Fatal(err)
	}

	storagePath := filepath.Join(t.TempDir(), "storage")
	if err := os.MkdirAll(storagePath, 0777); err != nil {
		t.Fatalf("error creating storage directory: %v", err)
	}
	store := storage.NewSharedDisk(storagePath)

	userAuth := auth.NewBasicIdentityProvider(
		db,
		auth.NewAuditLogger(new(bytes.Buffer)),
		auth.BasicProviderArgs{Secret: []byte("a8f0cz1e93lq2")},
	)

	m := metrics.New()

	platform := services.NewEsgPlatform(db, store, userAuth, templates.Default(), m, services.Variables{})

	return &testEnv{platform: platform, api: platform.Routes(), storage: store, metrics: m, db: db}
}

func (t *testEnv) newClient() client {
	return client{api: t.api}
}

// newOrganizationUser registers an organization account that owns a new
// organization named after the user and logs it in.
func (t *testEnv) newOrganizationUser(username string) (client, error) {
	c := t.newClient()
	reg, err := c.register(username, schema.OrganizationRole, &organizationInfo{Name: username + " GmbH", Industry: "Manufacturing", Country: "Germany"})
	if err != nil {
		return client{}, err
	}
	if err := c.login(reg.login); err != nil {
		return client{}, err
	}
	c.orgId = reg.OrganizationId
	return c, nil
}

func (t *testEnv) newConsultant(username string) (client, error) {
	c := t.newClient()
	reg, err := c.register(username, schema.ConsultantRole, nil)
	if err != nil {
		return client{}, err
	}
	if err := c.login(reg.login); err != nil {
		return client{}, err
	}
	return c, nil
}
