package report

import (
	"strings"
	"testing"
	"time"

	"esg_platform/esg_hub/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func date(year int, month time.Month, day int) *datatypes.Date {
	d := datatypes.Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
	return &d
}

func sampleData() Data {
	return Data{
		Profile: &schema.CompanyProfile{
			LegalName:           "Acme Holding AG",
			RegistrationNumber:  "HRB 1234",
			LegalForm:           "AG",
			NaceCode:            "C28",
			HeadquartersCity:    "Munich",
			HeadquartersCountry: "Germany",
			EmployeeCount:       1200,
			FiscalYearEnd:       date(2024, time.December, 31),
			BusinessModel:       "B2B machinery",
			KeyProducts:         "Pumps, valves",
			Subsidiaries: []schema.Subsidiary{
				{Name: "Acme GmbH", Country: "Germany", OwnershipPercentage: 80},
				{Name: "Acme SAS", Country: "France", OwnershipPercentage: 100},
			},
			Initiatives: []schema.SustainabilityInitiative{
				{Name: "Solar roofs", Status: "active", Description: "Install PV on all plants"},
			},
			Kpis: []schema.SustainabilityKPI{
				{Name: "Scope 1", Value: "1200", Unit: "tCO2e", Target: "800", Year: 2030},
			},
		},
		Governance: &schema.GovernanceStructure{
			BoardComposition:          "5 members, 2 independent",
			CommitteeResponsibilities: []string{"Audit", "Sustainability"},
		},
		Topics: []schema.MaterialityTopic{
			{Topic: "Climate Risk", Category: "Environment", Subcategory: "E1", MaterialityIndex: 4, IsMaterial: true, ImpactedStakeholders: []string{"Investors", "Communities"}},
			{Topic: "Biodiversity", Category: "Environment", MaterialityIndex: 1.5},
		},
		Iros: []schema.IroRegisterEntry{
			{IroType: schema.IroRisk, Title: "Flooding", Likelihood: 3, Severity: 4, FinancialMateriality: true},
			{IroType: schema.IroOpportunity, Title: "Heat pumps", Description: "New market", Category: "Products", TimeHorizon: "Medium"},
			{IroType: schema.IroRisk, Title: "Carbon price", Likelihood: 4, Severity: 3},
			{IroType: schema.IroImpact, Title: "Water use"},
			{IroType: schema.IroRisk, Title: "Supplier strikes", Likelihood: 2, Severity: 2, ImpactMateriality: true},
			{IroType: schema.IroOpportunity, Title: "Green bonds"},
		},
		DueDiligence: &schema.DueDiligenceProcess{
			Methodology:           "OECD guidance",
			StakeholderEngagement: "Annual survey",
		},
		ActionPlans: []schema.ActionPlan{
			{Title: "Flood barriers", Description: "Protect plant 2", Responsible: "COO", Timeline: "2025", Status: "planned"},
		},
		Kpis: []schema.EsgDataKpi{
			{EsrsTopic: "E1", TopicTitle: "Climate change", KpiName: "GHG Scope 1", Unit: "tCO2e", CurrentValue: "1200"},
			{EsrsTopic: "S1", TopicTitle: "Own workforce", KpiName: "Injury rate"},
			{EsrsTopic: "E1", TopicTitle: "Climate change", KpiName: "Energy use", Unit: "MWh", BaselineYear: 2020},
		},
	}
}

func TestReportingPeriod(t *testing.T) {
	res := Assemble(NewSections(), nil, sampleData())
	assert.Equal(t, "1 January 2023 - 31 December 2024", res.Sections.Field(GeneralInfo, FieldReportingPeriod))
}

func TestConsolidationScope(t *testing.T) {
	res := Assemble(NewSections(), nil, sampleData())
	assert.Equal(t, "Acme GmbH (Germany) - 80%, Acme SAS (France) - 100%", res.Sections.Field(GeneralInfo, FieldConsolidationScope))
}

func TestProfileFields(t *testing.T) {
	res := Assemble(NewSections(), nil, sampleData())
	s := res.Sections

	assert.Equal(t, "Acme Holding AG", s.Field(GeneralInfo, FieldEntityLegalName))
	assert.Equal(t, "Munich, Germany", s.Field(GeneralInfo, FieldHeadquartersLocation))
	assert.Equal(t, "1200", s.Field(GeneralInfo, FieldNumberOfEmployees))
	assert.Equal(t, "Pumps, valves", s.Field(GovernanceStrategy, FieldKeyProducts))
	assert.Equal(t, "Audit, Sustainability", s.Field(GovernanceStrategy, FieldGovernanceRoles))
	assert.Equal(t, "5 members, 2 independent", s.Field(GovernanceStrategy, FieldBoardComposition))
	assert.Equal(t, "OECD guidance", s.Field(MaterialityAssessment, FieldAssessmentMethodology))
	assert.Equal(t, "Solar roofs (active): Install PV on all plants", s.Field(PoliciesActionsTargetsKpis, FieldSustainabilityInitiatives))
	assert.Equal(t, "Scope 1: 1200 tCO2e (Target: 800, Year: 2030)", s.Field(PoliciesActionsTargetsKpis, FieldCompanyKpis))
}

func TestMaterialityFields(t *testing.T) {
	res := Assemble(NewSections(), nil, sampleData())

	assert.Equal(t, "Climate Risk (E1), Biodiversity (Environment)", res.Sections.Field(MaterialityAssessment, FieldListOfAssessedTopics))
	assert.Equal(t, "Climate Risk: Material Index 4, Stakeholders: Investors, Communities", res.Sections.Field(MaterialityAssessment, FieldFinalMaterialTopicsTable))
}

func TestRiskOpportunityPartition(t *testing.T) {
	res := Assemble(NewSections(), nil, sampleData())

	risks := strings.Split(res.Sections.Field(ImpactsRisks, FieldSustainabilityRisks), "\n\n")
	require.Len(t, risks, 3)
	for _, risk := range risks {
		assert.Len(t, strings.Split(risk, " | "), 10)
		assert.NotContains(t, risk, "Heat pumps")
		assert.NotContains(t, risk, "Water use")
	}
	assert.True(t, strings.HasPrefix(risks[0], "Title: Flooding | Description: N/A | Category: N/A | Likelihood: 3/5 | Severity: 4/5"))
	assert.True(t, strings.HasSuffix(risks[0], "Financial Materiality: Yes | Impact Materiality: No"))

	opportunities := strings.Split(res.Sections.Field(ImpactsRisks, FieldSustainabilityOpportunities), "\n")
	require.Len(t, opportunities, 2)
	assert.Equal(t, "Heat pumps: New market (Category: Products, Time Horizon: Medium)", opportunities[0])
	assert.Equal(t, "Green bonds: N/A (Category: N/A, Time Horizon: N/A)", opportunities[1])

	assert.Equal(t, "Flood barriers: Protect plant 2 (Responsible: COO, Timeline: 2025, Status: planned)",
		res.Sections.Field(ImpactsRisks, FieldRemediationMechanisms))
}

func TestEsgDataGrouping(t *testing.T) {
	res := Assemble(NewSections(), nil, sampleData())

	groups := strings.Split(res.Sections.Field(PoliciesActionsTargetsKpis, FieldEsgDataByTopic), "\n\n\n")
	require.Len(t, groups, 2)

	climate := strings.Split(groups[0], "\n")
	require.Len(t, climate, 3)
	assert.Equal(t, "E1 - Climate change:", climate[0])
	assert.Len(t, strings.Split(climate[1], " | "), 12)
	assert.Contains(t, climate[1], "KPI: GHG Scope 1")
	assert.Contains(t, climate[2], "Baseline Year: 2020")
	assert.Contains(t, climate[2], "Target Year: N/A")

	assert.True(t, strings.HasPrefix(groups[1], "S1 - Own workforce:\nKPI: Injury rate"))
}

func TestEmptyDataDegradesToEmptyFields(t *testing.T) {
	res := Assemble(NewSections(), nil, Data{})

	for _, ref := range AutoFields() {
		value, ok := res.Sections.Section(ref.Section)[ref.Field]
		assert.True(t, ok, "missing %v.%v", ref.Section, ref.Field)
		assert.Equal(t, "", value, "%v.%v", ref.Section, ref.Field)
		assert.True(t, res.Provenance.IsAuto(ref.Section, ref.Field))
	}
	assert.Empty(t, res.Filled)
	assert.Empty(t, res.Skipped)
}

func TestReassemblyIsNoop(t *testing.T) {
	data := sampleData()
	first := Assemble(NewSections(), nil, data)
	assert.NotEmpty(t, first.Filled)

	second := Assemble(first.Sections, first.Provenance, data)
	assert.Equal(t, first.Sections, second.Sections)
	assert.Equal(t, first.Provenance, second.Provenance)
	assert.Empty(t, second.Filled)
	assert.False(t, second.Changed(first.Provenance))
}

func TestReassemblyPicksUpNewData(t *testing.T) {
	data := sampleData()
	first := Assemble(NewSections(), nil, data)

	data.Profile.LegalName = "Acme Group SE"
	second := Assemble(first.Sections, first.Provenance, data)

	assert.Equal(t, "Acme Group SE", second.Sections.Field(GeneralInfo, FieldEntityLegalName))
	assert.Equal(t, []FieldRef{{Section: GeneralInfo, Field: FieldEntityLegalName}}, second.Filled)
}

func TestUserEditsArePreserved(t *testing.T) {
	data := sampleData()
	first := Assemble(NewSections(), nil, data)

	edited := first.Sections.Clone()
	edited.Section(GeneralInfo)[FieldEntityLegalName] = "Acme (edited)"
	edited.Section(ImpactsRisks)[FieldRemediationMechanisms] = ""
	edited.Section(GeneralInfo)["reportingBoundary"] = "Group"
	prov := MarkUserEdits(first.Sections, edited, first.Provenance)

	data.Profile.LegalName = "Acme Group SE"
	res := Assemble(edited, prov, data)

	assert.Equal(t, "Acme (edited)", res.Sections.Field(GeneralInfo, FieldEntityLegalName))
	assert.Equal(t, "", res.Sections.Field(ImpactsRisks, FieldRemediationMechanisms))
	assert.Equal(t, "Group", res.Sections.Field(GeneralInfo, "reportingBoundary"))
	assert.ElementsMatch(t, []FieldRef{
		{Section: GeneralInfo, Field: FieldEntityLegalName},
		{Section: ImpactsRisks, Field: FieldRemediationMechanisms},
	}, res.Skipped)
	assert.Equal(t, SourceUser, res.Provenance[ProvenanceKey(GeneralInfo, FieldEntityLegalName)])
}

func TestLegacyFieldsWithoutProvenanceAreKept(t *testing.T) {
	current := NewSections()
	current.Section(GeneralInfo)[FieldEntityLegalName] = "Hand written"
	current.Section(GovernanceStrategy)[FieldKeyProducts] = "Hand written"
	current.Section(MaterialityAssessment)[FieldListOfAssessedTopics] = "Hand written"
	current.Section(ImpactsRisks)[FieldSustainabilityRisks] = "Hand written"

	res := Assemble(current, nil, sampleData())
	again := Assemble(res.Sections, res.Provenance, sampleData())

	assert.Equal(t, "Hand written", res.Sections.Field(GeneralInfo, FieldEntityLegalName))
	assert.Equal(t, "Hand written", res.Sections.Field(ImpactsRisks, FieldSustainabilityRisks))
	assert.Len(t, res.Skipped, 4)
	assert.Equal(t, res.Sections, again.Sections)
}

func TestAssembleDoesNotMutateInput(t *testing.T) {
	current := NewSections()
	prov := Provenance{}

	Assemble(current, prov, sampleData())

	assert.Empty(t, current.GeneralInfo)
	assert.Empty(t, prov)
}

type stubSource struct {
	profile *schema.CompanyProfile
	err     error
}

func (s stubSource) CompanyProfile() (*schema.CompanyProfile, error) { return s.profile, s.err }
func (s stubSource) GovernanceStructure() (*schema.GovernanceStructure, error) {
	return nil, nil
}
func (s stubSource) MaterialityTopics() ([]schema.MaterialityTopic, error) { return nil, nil }
func (s stubSource) IroEntries() ([]schema.IroRegisterEntry, error)        { return nil, nil }
func (s stubSource) DueDiligenceProcess() (*schema.DueDiligenceProcess, error) {
	return nil, nil
}
func (s stubSource) ActionPlans() ([]schema.ActionPlan, error) { return nil, nil }
func (s stubSource) EsgDataKpis() ([]schema.EsgDataKpi, error) { return nil, nil }

func TestLoadData(t *testing.T) {
	data, err := LoadData(stubSource{profile: &schema.CompanyProfile{LegalName: "Acme"}})
	require.NoError(t, err)
	assert.Equal(t, "Acme", data.Profile.LegalName)
	assert.Nil(t, data.Governance)

	_, err = LoadData(stubSource{err: schema.ErrDbAccessFailed})
	assert.ErrorIs(t, err, schema.ErrDbAccessFailed)
}
