package report

import (
	"maps"

	"esg_platform/esg_hub/schema"

	"gorm.io/datatypes"
)

// Data is everything the assembler reads for one organization. Absent single
// records are nil and absent collections are empty.
type Data struct {
	Profile      *schema.CompanyProfile
	Governance   *schema.GovernanceStructure
	Topics       []schema.MaterialityTopic
	Iros         []schema.IroRegisterEntry
	DueDiligence *schema.DueDiligenceProcess
	ActionPlans  []schema.ActionPlan
	Kpis         []schema.EsgDataKpi
}

type FieldRef struct {
	Section string `json:"section"`
	Field   string `json:"field"`
}

type Result struct {
	Sections   Sections
	Provenance Provenance

	// Fields whose value changed.
	Filled []FieldRef
	// Fields left alone because the user edited them.
	Skipped []FieldRef
}

type derivedField struct {
	section string
	field   string
	value   string
}

func profileField(p *schema.CompanyProfile, get func(*schema.CompanyProfile) string) string {
	if p == nil {
		return ""
	}
	return get(p)
}

func deriveFields(data Data) []derivedField {
	p := data.Profile
	gov := data.Governance
	dd := data.DueDiligence

	var subsidiaries []schema.Subsidiary
	var profileInitiatives []schema.SustainabilityInitiative
	var profileKpis []schema.SustainabilityKPI
	var fiscalYearEnd *datatypes.Date
	if p != nil {
		fiscalYearEnd = p.FiscalYearEnd
		subsidiaries = p.Subsidiaries
		profileInitiatives = p.Initiatives
		profileKpis = p.Kpis
	}

	govField := func(get func(*schema.GovernanceStructure) string) string {
		if gov == nil {
			return ""
		}
		return get(gov)
	}
	ddField := func(get func(*schema.DueDiligenceProcess) string) string {
		if dd == nil {
			return ""
		}
		return get(dd)
	}

	return []derivedField{
		{GeneralInfo, FieldEntityLegalName, profileField(p, func(p *schema.CompanyProfile) string { return p.LegalName })},
		{GeneralInfo, FieldRegistrationNumber, profileField(p, func(p *schema.CompanyProfile) string { return p.RegistrationNumber })},
		{GeneralInfo, FieldLegalForm, profileField(p, func(p *schema.CompanyProfile) string { return p.LegalForm })},
		{GeneralInfo, FieldNaceCode, profileField(p, func(p *schema.CompanyProfile) string { return p.NaceCode })},
		{GeneralInfo, FieldHeadquartersLocation, profileField(p, headquartersLocation)},
		{GeneralInfo, FieldNumberOfEmployees, profileField(p, func(p *schema.CompanyProfile) string { return employees(p.EmployeeCount) })},
		{GeneralInfo, FieldConsolidationScope, consolidationScope(subsidiaries)},
		{GeneralInfo, FieldReportingPeriod, reportingPeriod(fiscalYearEnd)},

		{GovernanceStrategy, FieldBusinessModel, profileField(p, func(p *schema.CompanyProfile) string { return p.BusinessModel })},
		{GovernanceStrategy, FieldKeyProducts, profileField(p, func(p *schema.CompanyProfile) string { return p.KeyProducts })},
		{GovernanceStrategy, FieldKeyMarkets, profileField(p, func(p *schema.CompanyProfile) string { return p.KeyMarkets })},
		{GovernanceStrategy, FieldValueChain, profileField(p, func(p *schema.CompanyProfile) string { return p.ValueChain })},
		{GovernanceStrategy, FieldSustainabilityStrategy, profileField(p, func(p *schema.CompanyProfile) string { return p.SustainabilityStrategy })},
		{GovernanceStrategy, FieldGovernanceRoles, governanceRoles(gov)},
		{GovernanceStrategy, FieldBoardComposition, govField(func(g *schema.GovernanceStructure) string { return g.BoardComposition })},
		{GovernanceStrategy, FieldSustainabilityOversight, govField(func(g *schema.GovernanceStructure) string { return g.SustainabilityOversight })},

		{MaterialityAssessment, FieldAssessmentMethodology, ddField(func(d *schema.DueDiligenceProcess) string { return d.Methodology })},
		{MaterialityAssessment, FieldStakeholderEngagement, ddField(func(d *schema.DueDiligenceProcess) string { return d.StakeholderEngagement })},
		{MaterialityAssessment, FieldListOfAssessedTopics, assessedTopics(data.Topics)},
		{MaterialityAssessment, FieldFinalMaterialTopicsTable, materialTopicsTable(data.Topics)},

		{ImpactsRisks, FieldSustainabilityRisks, sustainabilityRisks(data.Iros)},
		{ImpactsRisks, FieldSustainabilityOpportunities, sustainabilityOpportunities(data.Iros)},
		{ImpactsRisks, FieldDueDiligenceProcess, dueDiligenceSummary(dd)},
		{ImpactsRisks, FieldRemediationMechanisms, remediationMechanisms(data.ActionPlans)},

		{PoliciesActionsTargetsKpis, FieldEsgDataByTopic, esgDataByTopic(data.Kpis)},
		{PoliciesActionsTargetsKpis, FieldSustainabilityInitiatives, initiatives(profileInitiatives)},
		{PoliciesActionsTargetsKpis, FieldCompanyKpis, companyKpis(profileKpis)},
	}
}

// AutoFields lists every section field the assembler derives, in render order.
func AutoFields() []FieldRef {
	derived := deriveFields(Data{})
	refs := make([]FieldRef, 0, len(derived))
	for _, d := range derived {
		refs = append(refs, FieldRef{Section: d.section, Field: d.field})
	}
	return refs
}

// Assemble merges the fields derived from data over current. A field is only
// written when it was last written by the assembler, or when it is empty and the
// user has not touched it; anything else is a user edit and is left as is.
// Fields not derived by the assembler are always carried over. The inputs are
// not modified.
func Assemble(current Sections, prov Provenance, data Data) Result {
	res := Result{
		Sections:   current.Clone(),
		Provenance: maps.Clone(prov),
		Filled:     make([]FieldRef, 0),
		Skipped:    make([]FieldRef, 0),
	}
	if res.Provenance == nil {
		res.Provenance = Provenance{}
	}

	for _, d := range deriveFields(data) {
		section := res.Sections.Section(d.section)
		existing, ok := section[d.field]
		ref := FieldRef{Section: d.section, Field: d.field}

		userEdited := prov[ProvenanceKey(d.section, d.field)] == SourceUser
		if userEdited || (existing != "" && !prov.IsAuto(d.section, d.field)) {
			res.Skipped = append(res.Skipped, ref)
			continue
		}

		if !ok || existing != d.value {
			section[d.field] = d.value
			if existing != d.value {
				res.Filled = append(res.Filled, ref)
			}
		}
		res.Provenance[ProvenanceKey(d.section, d.field)] = SourceAuto
	}

	return res
}

// Changed reports whether assembling altered the sections or provenance.
func (r Result) Changed(prov Provenance) bool {
	return len(r.Filled) > 0 || !maps.Equal(r.Provenance, prov)
}
