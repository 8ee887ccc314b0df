package report

import (
	"esg_platform/esg_hub/schema"
)

// Source reads the upstream records of one organization. Single records that do
// not exist are returned as nil with no error.
type Source interface {
	CompanyProfile() (*schema.CompanyProfile, error)
	GovernanceStructure() (*schema.GovernanceStructure, error)
	MaterialityTopics() ([]schema.MaterialityTopic, error)
	IroEntries() ([]schema.IroRegisterEntry, error)
	DueDiligenceProcess() (*schema.DueDiligenceProcess, error)
	ActionPlans() ([]schema.ActionPlan, error)
	EsgDataKpis() ([]schema.EsgDataKpi, error)
}

func LoadData(src Source) (Data, error) {
	var data Data
	var err error

	if data.Profile, err = src.CompanyProfile(); err != nil {
		return Data{}, err
	}
	if data.Governance, err = src.GovernanceStructure(); err != nil {
		return Data{}, err
	}
	if data.Topics, err = src.MaterialityTopics(); err != nil {
		return Data{}, err
	}
	if data.Iros, err = src.IroEntries(); err != nil {
		return Data{}, err
	}
	if data.DueDiligence, err = src.DueDiligenceProcess(); err != nil {
		return Data{}, err
	}
	if data.ActionPlans, err = src.ActionPlans(); err != nil {
		return Data{}, err
	}
	if data.Kpis, err = src.EsgDataKpis(); err != nil {
		return Data{}, err
	}

	return data, nil
}
