package versions

import (
	"testing"
	"time"

	"esg_platform/esg_hub/schema"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// legacyTopic is the materiality_topics table as it existed before topics had
// a natural key.
type legacyTopic struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationId uuid.UUID `gorm:"type:uuid"`
	Topic          string
	UpdatedAt      time.Time
}

func (legacyTopic) TableName() string {
	return "materiality_topics"
}

func TestMaterialityTopicNaturalKey(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&legacyTopic{}))

	orgA, orgB := uuid.New(), uuid.New()
	now := time.Now()

	latest := legacyTopic{Id: uuid.New(), OrganizationId: orgA, Topic: "Water", UpdatedAt: now}
	rows := []legacyTopic{
		{Id: uuid.New(), OrganizationId: orgA, Topic: "Water", UpdatedAt: now.Add(-time.Hour)},
		latest,
		{Id: uuid.New(), OrganizationId: orgA, Topic: "Water", UpdatedAt: now.Add(-2 * time.Hour)},
		{Id: uuid.New(), OrganizationId: orgA, Topic: "Climate change", UpdatedAt: now},
		{Id: uuid.New(), OrganizationId: orgB, Topic: "Water", UpdatedAt: now},
	}
	require.NoError(t, db.Create(&rows).Error)

	require.NoError(t, db.Transaction(Migration_2_materiality_topic_natural_key))

	var remaining []legacyTopic
	require.NoError(t, db.Order("topic").Find(&remaining, "organization_id = ?", orgA).Error)
	require.Len(t, remaining, 2)
	assert.Equal(t, "Climate change", remaining[0].Topic)
	assert.Equal(t, latest.Id, remaining[1].Id)

	var count int64
	require.NoError(t, db.Model(&legacyTopic{}).Where("organization_id = ?", orgB).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	assert.True(t, db.Migrator().HasIndex(&schema.MaterialityTopic{}, "idx_org_topic"))

	dup := legacyTopic{Id: uuid.New(), OrganizationId: orgA, Topic: "Water", UpdatedAt: now}
	assert.Error(t, db.Create(&dup).Error)
}

func TestDuplicateIdsKeepsFirstPerKey(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&legacyTopic{}))

	org := uuid.New()
	now := time.Now()
	first := legacyTopic{Id: uuid.New(), OrganizationId: org, Topic: "a", UpdatedAt: now.Add(-time.Minute)}
	second := legacyTopic{Id: uuid.New(), OrganizationId: org, Topic: "b", UpdatedAt: now}
	require.NoError(t, db.Create(&[]legacyTopic{second, first}).Error)

	dups, err := duplicateIds(db, "materiality_topics", "CAST(organization_id AS TEXT)", "updated_at, id")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{second.Id}, dups)

	require.NoError(t, deleteIds(db, "materiality_topics", "id", dups))
	require.NoError(t, deleteIds(db, "materiality_topics", "id", nil))

	var ids []uuid.UUID
	require.NoError(t, db.Model(&legacyTopic{}).Pluck("id", &ids).Error)
	assert.Equal(t, []uuid.UUID{first.Id}, ids)
}

// legacyConsultantLink is the consultant_organizations table before links were
// unique per consultant and organization.
type legacyConsultantLink struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConsultantId   uuid.UUID `gorm:"type:uuid"`
	OrganizationId uuid.UUID `gorm:"type:uuid"`
	ContactPerson  string
	CreatedAt      time.Time
}

func (legacyConsultantLink) TableName() string {
	return "consultant_organizations"
}

func TestUniqueOrgRecordsDedupesConsultantLinks(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&schema.User{}, &schema.Organization{},
		&schema.CompanyProfile{}, &schema.Subsidiary{}, &schema.OwnershipStructure{}, &schema.SustainabilityInitiative{}, &schema.SustainabilityKPI{},
		&schema.GovernanceStructure{}, &schema.DueDiligenceProcess{},
	))
	require.NoError(t, db.AutoMigrate(&legacyConsultantLink{}))

	consultant, orgA, orgB := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	earliest := legacyConsultantLink{Id: uuid.New(), ConsultantId: consultant, OrganizationId: orgA, ContactPerson: "first", CreatedAt: now.Add(-time.Hour)}
	links := []legacyConsultantLink{
		{Id: uuid.New(), ConsultantId: consultant, OrganizationId: orgA, ContactPerson: "second", CreatedAt: now},
		earliest,
		{Id: uuid.New(), ConsultantId: consultant, OrganizationId: orgB, CreatedAt: now},
		{Id: uuid.New(), ConsultantId: uuid.New(), OrganizationId: orgA, CreatedAt: now},
	}
	require.NoError(t, db.Create(&links).Error)

	require.NoError(t, db.Transaction(Migration_1_unique_org_records))

	var remaining []legacyConsultantLink
	require.NoError(t, db.Find(&remaining, "consultant_id = ? AND organization_id = ?", consultant, orgA).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, earliest.Id, remaining[0].Id)

	var count int64
	require.NoError(t, db.Model(&legacyConsultantLink{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	assert.True(t, db.Migrator().HasIndex(&schema.ConsultantOrganization{}, "idx_consultant_org"))

	dup := legacyConsultantLink{Id: uuid.New(), ConsultantId: consultant, OrganizationId: orgB, CreatedAt: now}
	assert.Error(t, db.Create(&dup).Error)
}
