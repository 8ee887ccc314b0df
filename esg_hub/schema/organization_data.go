package schema

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrganizationData reads every record of one organization that feeds a report.
type OrganizationData struct {
	OrganizationId uuid.UUID
	DB             *gorm.DB
}

func NewOrganizationData(orgId uuid.UUID, db *gorm.DB) *OrganizationData {
	return &OrganizationData{OrganizationId: orgId, DB: db}
}

func optional[T any](row T, err error, notFound error) (*T, error) {
	if err != nil {
		if errors.Is(err, notFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (o *OrganizationData) CompanyProfile() (*CompanyProfile, error) {
	profile, err := GetCompanyProfile(o.OrganizationId, o.DB, true)
	return optional(profile, err, ErrCompanyProfileNotFound)
}

func (o *OrganizationData) GovernanceStructure() (*GovernanceStructure, error) {
	gov, err := GetGovernanceStructure(o.OrganizationId, o.DB)
	return optional(gov, err, ErrGovernanceStructureNotFound)
}

func (o *OrganizationData) MaterialityTopics() ([]MaterialityTopic, error) {
	return ListMaterialityTopics(o.OrganizationId, o.DB)
}

func (o *OrganizationData) IroEntries() ([]IroRegisterEntry, error) {
	return ListIroEntries(o.OrganizationId, "", o.DB)
}

func (o *OrganizationData) DueDiligenceProcess() (*DueDiligenceProcess, error) {
	dd, err := GetDueDiligenceProcess(o.OrganizationId, o.DB)
	return optional(dd, err, ErrDueDiligenceNotFound)
}

func (o *OrganizationData) ActionPlans() ([]ActionPlan, error) {
	return ListActionPlans(o.OrganizationId, o.DB)
}

func (o *OrganizationData) EsgDataKpis() ([]EsgDataKpi, error) {
	return ListEsgDataKpis(o.OrganizationId, o.DB)
}
