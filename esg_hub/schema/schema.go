package schema

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Username string `gorm:"unique;size:50;not null" json:"username"`
	Email    string `gorm:"unique;size:254;not null" json:"email"`
	Password []byte `json:"-"`

	Role string `gorm:"size:20;not null;default:'organization'" json:"role"`

	CreatedAt time.Time `json:"createdAt"`

	Organizations []Organization `gorm:"foreignKey:OwnerId" json:"-"`
}

type Organization struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Name          string  `gorm:"size:200;not null" json:"name"`
	Slug          string  `gorm:"size:200;not null;index" json:"slug"`
	Industry      string  `gorm:"size:200" json:"industry"`
	Country       string  `gorm:"size:100" json:"country"`
	EmployeeCount int     `json:"employeeCount"`
	Revenue       float64 `json:"revenue"`
	ReportingYear int     `json:"reportingYear"`

	// Nil for client organizations created by a consultant.
	OwnerId *uuid.UUID `gorm:"type:uuid;index" json:"ownerId"`
	Owner   *User      `gorm:"constraint:OnDelete:SET NULL" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
}

type ConsultantOrganization struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	ConsultantId   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_consultant_org" json:"consultantId"`
	OrganizationId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_consultant_org" json:"organizationId"`

	ContactEmail  string `gorm:"size:254" json:"contactEmail"`
	ContactPerson string `gorm:"size:200" json:"contactPerson"`

	CreatedAt time.Time `json:"createdAt"`

	Consultant   *User         `gorm:"foreignKey:ConsultantId;constraint:OnDelete:CASCADE" json:"-"`
	Organization *Organization `gorm:"constraint:OnDelete:CASCADE" json:"organization,omitempty"`
}

type CompanyProfile struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"organizationId"`

	LegalName          string `gorm:"size:300" json:"legalName"`
	RegistrationNumber string `gorm:"size:100" json:"registrationNumber"`
	LegalForm          string `gorm:"size:100" json:"legalForm"`
	NaceCode           string `gorm:"size:50" json:"naceCode"`
	Industry           string `gorm:"size:200" json:"industry"`
	Sector             string `gorm:"size:200" json:"sector"`

	HeadquartersCountry string                      `gorm:"size:100" json:"headquartersCountry"`
	HeadquartersCity    string                      `gorm:"size:100" json:"headquartersCity"`
	Address             string                      `json:"address"`
	OperatingCountries  datatypes.JSONSlice[string] `json:"operatingCountries"`
	Website             string                      `json:"website"`

	EmployeeCount int     `json:"employeeCount"`
	Revenue       float64 `json:"revenue"`
	Currency      string  `gorm:"size:10" json:"currency"`

	FiscalYearEnd *datatypes.Date `json:"fiscalYearEnd"`

	BusinessModel          string `json:"businessModel"`
	KeyProducts            string `json:"keyProducts"`
	KeyMarkets             string `json:"keyMarkets"`
	ValueChain             string `json:"valueChain"`
	SustainabilityStrategy string `json:"sustainabilityStrategy"`

	UpdatedAt time.Time `json:"updatedAt"`

	Subsidiaries       []Subsidiary               `gorm:"constraint:OnDelete:CASCADE" json:"subsidiaries"`
	OwnershipStructure []OwnershipStructure       `gorm:"constraint:OnDelete:CASCADE" json:"ownershipStructure"`
	Initiatives        []SustainabilityInitiative `gorm:"constraint:OnDelete:CASCADE" json:"sustainabilityInitiatives"`
	Kpis               []SustainabilityKPI        `gorm:"constraint:OnDelete:CASCADE" json:"sustainabilityKpis"`

	Organization *Organization `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Child rows of a company profile keep a position so they are read back in the
// order they were submitted.

type Subsidiary struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyProfileId uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Position         int       `gorm:"not null;default:0" json:"-"`

	Name                string  `gorm:"size:300;not null" json:"name"`
	Country             string  `gorm:"size:100" json:"country"`
	OwnershipPercentage float64 `json:"ownershipPercentage"`
}

type OwnershipStructure struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyProfileId uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Position         int       `gorm:"not null;default:0" json:"-"`

	Shareholder         string  `gorm:"size:300;not null" json:"shareholder"`
	ShareholderType     string  `gorm:"size:100" json:"shareholderType"`
	OwnershipPercentage float64 `json:"ownershipPercentage"`
}

type SustainabilityInitiative struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyProfileId uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Position         int       `gorm:"not null;default:0" json:"-"`

	Name        string          `gorm:"size:300;not null" json:"name"`
	Description string          `json:"description"`
	Status      string          `gorm:"size:50" json:"status"`
	StartDate   *datatypes.Date `json:"startDate"`
}

type SustainabilityKPI struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyProfileId uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Position         int       `gorm:"not null;default:0" json:"-"`

	Name   string `gorm:"size:300;not null" json:"name"`
	Value  string `gorm:"size:100" json:"value"`
	Unit   string `gorm:"size:50" json:"unit"`
	Target string `gorm:"size:100" json:"target"`
	Year   int    `json:"year"`
}

type GovernanceStructure struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"organizationId"`

	BoardComposition          string                      `json:"boardComposition"`
	SustainabilityOversight   string                      `json:"sustainabilityOversight"`
	CommitteeResponsibilities datatypes.JSONSlice[string] `json:"committeeResponsibilities"`
	ManagementRole            string                      `json:"managementRole"`
	IncentiveSchemes          string                      `json:"incentiveSchemes"`

	UpdatedAt time.Time `json:"updatedAt"`

	Organization *Organization `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type MaterialityTopic struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_org_topic" json:"organizationId"`

	Topic       string `gorm:"size:300;not null;uniqueIndex:idx_org_topic" json:"topic"`
	Category    string `gorm:"size:200" json:"category"`
	Subcategory string `gorm:"size:200" json:"subcategory"`
	Description string `json:"description"`

	FinancialImpact   int     `gorm:"not null;default:0" json:"financialImpact"`
	StakeholderImpact int     `gorm:"not null;default:0" json:"stakeholderImpact"`
	MaterialityIndex  float64 `json:"materialityIndex"`
	IsMaterial        bool    `gorm:"not null;default:false" json:"isMaterial"`

	ImpactedStakeholders datatypes.JSONSlice[string] `json:"impactedStakeholders"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Organization *Organization `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type IroRegisterEntry struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationId uuid.UUID `gorm:"type:uuid;not null;index" json:"organizationId"`

	IroType     string `gorm:"size:20;not null" json:"iroType"`
	Title       string `gorm:"size:300;not null" json:"title"`
	Description string `json:"description"`
	Category    string `gorm:"size:200" json:"category"`

	Likelihood int `json:"likelihood"`
	Severity   int `json:"severity"`

	TimeHorizon          string `gorm:"size:100" json:"timeHorizon"`
	AffectedStakeholders string `json:"affectedStakeholders"`
	ValueChainLocation   string `json:"valueChainLocation"`

	FinancialMateriality bool `gorm:"not null;default:false" json:"financialMateriality"`
	ImpactMateriality    bool `gorm:"not null;default:false" json:"impactMateriality"`

	CreatedAt time.Time `json:"createdAt"`

	Organization *Organization `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type ActionPlan struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationId uuid.UUID `gorm:"type:uuid;not null;index" json:"organizationId"`

	IroId *uuid.UUID        `gorm:"type:uuid" json:"iroId"`
	Iro   *IroRegisterEntry `gorm:"foreignKey:IroId;constraint:OnDelete:SET NULL" json:"-"`

	Title       string `gorm:"size:300;not null" json:"title"`
	Description string `json:"description"`
	Responsible string `gorm:"size:200" json:"responsible"`
	Timeline    string `gorm:"size:200" json:"timeline"`
	Status      string `gorm:"size:50" json:"status"`
	Resources   string `json:"resources"`

	CreatedAt time.Time `json:"createdAt"`

	Organization *Organization `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type DueDiligenceProcess struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"organizationId"`

	Methodology           string `json:"methodology"`
	Scope                 string `json:"scope"`
	StakeholderEngagement string `json:"stakeholderEngagement"`
	RiskIdentification    string `json:"riskIdentification"`
	MonitoringProcess     string `json:"monitoringProcess"`
	Frequency             string `gorm:"size:100" json:"frequency"`

	UpdatedAt time.Time `json:"updatedAt"`

	Organization *Organization `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type EsgDataKpi struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationId uuid.UUID `gorm:"type:uuid;not null;index" json:"organizationId"`

	EsrsTopic  string `gorm:"size:50;not null" json:"esrsTopic"`
	TopicTitle string `gorm:"size:200" json:"topicTitle"`
	Section    string `gorm:"size:200" json:"section"`
	KpiName    string `gorm:"size:300;not null" json:"kpiName"`
	Unit       string `gorm:"size:50" json:"unit"`

	CurrentValue  string `gorm:"size:100" json:"currentValue"`
	BaselineValue string `gorm:"size:100" json:"baselineValue"`
	BaselineYear  int    `json:"baselineYear"`
	TargetValue   string `gorm:"size:100" json:"targetValue"`
	TargetYear    int    `json:"targetYear"`

	DataSource         string `json:"dataSource"`
	CollectionMethod   string `json:"collectionMethod"`
	VerificationStatus string `gorm:"size:100" json:"verificationStatus"`
	VerifiedBy         string `gorm:"size:200" json:"verifiedBy"`

	CreatedAt time.Time `json:"createdAt"`

	Organization *Organization `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type GeneratedReport struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationId uuid.UUID `gorm:"type:uuid;not null;index"`
	TemplateId     string    `gorm:"size:100;not null"`

	Title string `gorm:"size:300;not null"`

	// Shapes are owned by the report package.
	Sections   datatypes.JSON
	Provenance datatypes.JSON

	Status       string `gorm:"size:20;not null;default:'draft'"`
	LastModified time.Time
	FinalizedAt  *time.Time

	CreatedAt time.Time

	Organization *Organization `gorm:"constraint:OnDelete:CASCADE"`
}

func (r *GeneratedReport) IsFinal() bool {
	return r.Status == ReportFinal
}

// AllModels lists every table in dependency order, for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&User{}, &Organization{}, &ConsultantOrganization{},
		&CompanyProfile{}, &Subsidiary{}, &OwnershipStructure{}, &SustainabilityInitiative{}, &SustainabilityKPI{},
		&GovernanceStructure{}, &MaterialityTopic{}, &IroRegisterEntry{}, &ActionPlan{},
		&DueDiligenceProcess{}, &EsgDataKpi{}, &GeneratedReport{},
	}
}
