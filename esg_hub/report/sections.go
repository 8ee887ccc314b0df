package report

import (
	"encoding/json"
	"fmt"
	"maps"
)

const (
	GeneralInfo                = "general_info"
	GovernanceStrategy         = "governance_strategy"
	MaterialityAssessment      = "materiality_assessment"
	ImpactsRisks               = "impacts_risks"
	PoliciesActionsTargetsKpis = "policies_actions_targets_kpis"
)

// SectionNames is the fixed order sections are rendered and stored in.
var SectionNames = []string{GeneralInfo, GovernanceStrategy, MaterialityAssessment, ImpactsRisks, PoliciesActionsTargetsKpis}

// general_info fields
const (
	FieldEntityLegalName      = "entityLegalName"
	FieldRegistrationNumber   = "registrationNumber"
	FieldLegalForm            = "legalForm"
	FieldNaceCode             = "naceCode"
	FieldHeadquartersLocation = "headquartersLocation"
	FieldNumberOfEmployees    = "numberOfEmployees"
	FieldConsolidationScope   = "consolidationScope"
	FieldReportingPeriod      = "reportingPeriod"
)

// governance_strategy fields
const (
	FieldBusinessModel           = "businessModel"
	FieldKeyProducts             = "keyProducts"
	FieldKeyMarkets              = "keyMarkets"
	FieldValueChain              = "valueChain"
	FieldSustainabilityStrategy  = "sustainabilityStrategy"
	FieldGovernanceRoles         = "governanceRoles"
	FieldBoardComposition        = "boardComposition"
	FieldSustainabilityOversight = "sustainabilityOversight"
)

// materiality_assessment fields
const (
	FieldAssessmentMethodology    = "assessmentMethodology"
	FieldStakeholderEngagement    = "stakeholderEngagement"
	FieldListOfAssessedTopics     = "listOfAssessedTopics"
	FieldFinalMaterialTopicsTable = "finalMaterialTopicsTable"
)

// impacts_risks fields
const (
	FieldSustainabilityRisks         = "sustainabilityRisks"
	FieldSustainabilityOpportunities = "sustainabilityOpportunities"
	FieldDueDiligenceProcess         = "dueDiligenceProcess"
	FieldRemediationMechanisms       = "remediationMechanisms"
)

// policies_actions_targets_kpis fields
const (
	FieldEsgDataByTopic            = "esgDataByTopic"
	FieldSustainabilityInitiatives = "sustainabilityInitiatives"
	FieldCompanyKpis               = "companyKpis"
)

// Section is one flat group of string valued report fields.
type Section map[string]string

// Sections is the document stored in the sections column of a generated report.
// The five known sections are always present once serialized; any other top
// level keys found in stored json are carried through untouched.
type Sections struct {
	GeneralInfo                Section
	GovernanceStrategy         Section
	MaterialityAssessment      Section
	ImpactsRisks               Section
	PoliciesActionsTargetsKpis Section

	Additional map[string]json.RawMessage
}

func NewSections() Sections {
	return Sections{
		GeneralInfo:                Section{},
		GovernanceStrategy:         Section{},
		MaterialityAssessment:      Section{},
		ImpactsRisks:               Section{},
		PoliciesActionsTargetsKpis: Section{},
	}
}

func (s *Sections) sectionPtr(name string) *Section {
	switch name {
	case GeneralInfo:
		return &s.GeneralInfo
	case GovernanceStrategy:
		return &s.GovernanceStrategy
	case MaterialityAssessment:
		return &s.MaterialityAssessment
	case ImpactsRisks:
		return &s.ImpactsRisks
	case PoliciesActionsTargetsKpis:
		return &s.PoliciesActionsTargetsKpis
	default:
		return nil
	}
}

// Section returns the named known section, creating it if needed. It returns nil
// for names that are not one of SectionNames.
func (s *Sections) Section(name string) Section {
	ptr := s.sectionPtr(name)
	if ptr == nil {
		return nil
	}
	if *ptr == nil {
		*ptr = Section{}
	}
	return *ptr
}

// Field returns the value of section.field, or "" if either is missing.
func (s *Sections) Field(section, field string) string {
	ptr := s.sectionPtr(section)
	if ptr == nil || *ptr == nil {
		return ""
	}
	return (*ptr)[field]
}

func (s Sections) Clone() Sections {
	out := Sections{}
	for _, name := range SectionNames {
		src := s.sectionPtr(name)
		dst := out.sectionPtr(name)
		*dst = maps.Clone(*src)
		if *dst == nil {
			*dst = Section{}
		}
	}
	if s.Additional != nil {
		out.Additional = maps.Clone(s.Additional)
	}
	return out
}

func (s Sections) MarshalJSON() ([]byte, error) {
	doc := make(map[string]interface{}, len(SectionNames)+len(s.Additional))
	for k, v := range s.Additional {
		doc[k] = v
	}
	for _, name := range SectionNames {
		section := *s.sectionPtr(name)
		if section == nil {
			section = Section{}
		}
		doc[name] = section
	}
	return json.Marshal(doc)
}

func (s *Sections) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = NewSections()
	for key, value := range raw {
		ptr := s.sectionPtr(key)
		if ptr == nil {
			if s.Additional == nil {
				s.Additional = make(map[string]json.RawMessage)
			}
			s.Additional[key] = value
			continue
		}
		section, err := decodeSection(value)
		if err != nil {
			return fmt.Errorf("invalid section %v: %w", key, err)
		}
		*ptr = section
	}
	return nil
}

// decodeSection accepts non string scalars written by older clients and keeps
// them as their json text.
func decodeSection(data []byte) (Section, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	section := make(Section, len(fields))
	for k, v := range fields {
		var str string
		if err := json.Unmarshal(v, &str); err == nil {
			section[k] = str
			continue
		}
		if string(v) == "null" {
			section[k] = ""
			continue
		}
		section[k] = string(v)
	}
	return section, nil
}

// DecodeSections parses a stored sections column. An empty column yields empty sections.
func DecodeSections(data []byte) (Sections, error) {
	if len(data) == 0 || string(data) == "null" {
		return NewSections(), nil
	}
	var s Sections
	if err := json.Unmarshal(data, &s); err != nil {
		return Sections{}, err
	}
	return s, nil
}

const (
	SourceAuto = "auto"
	SourceUser = "user"
)

// Provenance records who last wrote each field, keyed by "section.field".
type Provenance map[string]string

func ProvenanceKey(section, field string) string {
	return section + "." + field
}

func (p Provenance) IsAuto(section, field string) bool {
	return p[ProvenanceKey(section, field)] == SourceAuto
}

func DecodeProvenance(data []byte) (Provenance, error) {
	prov := Provenance{}
	if len(data) == 0 || string(data) == "null" {
		return prov, nil
	}
	if err := json.Unmarshal(data, &prov); err != nil {
		return nil, err
	}
	return prov, nil
}

// MarkUserEdits flags every known field whose value differs between before and
// after as a user edit.
func MarkUserEdits(before, after Sections, prov Provenance) Provenance {
	out := maps.Clone(prov)
	if out == nil {
		out = Provenance{}
	}
	for _, name := range SectionNames {
		prev := before.Section(name)
		for field, value := range after.Section(name) {
			if prev[field] != value {
				out[ProvenanceKey(name, field)] = SourceUser
			}
		}
		for field := range prev {
			if _, ok := after.Section(name)[field]; !ok {
				out[ProvenanceKey(name, field)] = SourceUser
			}
		}
	}
	return out
}
