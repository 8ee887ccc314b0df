package schema

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound                = errors.New("user not found")
	ErrOrganizationNotFound        = errors.New("organization not found")
	ErrConsultantLinkNotFound      = errors.New("consultant organization link not found")
	ErrCompanyProfileNotFound      = errors.New("company profile not found")
	ErrGovernanceStructureNotFound = errors.New("governance structure not found")
	ErrMaterialityTopicNotFound    = errors.New("materiality topic not found")
	ErrIroEntryNotFound            = errors.New("iro register entry not found")
	ErrActionPlanNotFound          = errors.New("action plan not found")
	ErrDueDiligenceNotFound        = errors.New("due diligence process not found")
	ErrEsgDataKpiNotFound          = errors.New("esg data kpi not found")
	ErrReportNotFound              = errors.New("generated report not found")
	ErrDbAccessFailed              = errors.New("db access failed")
)

func first[T any](db *gorm.DB, notFound error, action string, query string, args ...interface{}) (T, error) {
	var row T
	result := db.First(&row, append([]interface{}{query}, args...)...)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return row, notFound
		}
		slog.Error("sql error in "+action, "args", args, "error", result.Error)
		return row, ErrDbAccessFailed
	}
	return row, nil
}

func findAll[T any](db *gorm.DB, action string, query string, args ...interface{}) ([]T, error) {
	rows := make([]T, 0)
	result := db.Where(query, args...).Find(&rows)
	if result.Error != nil {
		slog.Error("sql error in "+action, "args", args, "error", result.Error)
		return nil, ErrDbAccessFailed
	}
	return rows, nil
}

func GetUser(userId uuid.UUID, db *gorm.DB) (User, error) {
	return first[User](db, ErrUserNotFound, "get user", "id = ?", userId)
}

func GetUserByEmail(email string, db *gorm.DB) (User, error) {
	return first[User](db, ErrUserNotFound, "get user by email", "email = ?", email)
}

func GetOrganization(orgId uuid.UUID, db *gorm.DB) (Organization, error) {
	return first[Organization](db, ErrOrganizationNotFound, "get organization", "id = ?", orgId)
}

func ListOwnedOrganizations(userId uuid.UUID, db *gorm.DB) ([]Organization, error) {
	return findAll[Organization](db.Order("created_at, id"), "list owned organizations", "owner_id = ?", userId)
}

func ListConsultantLinks(consultantId uuid.UUID, db *gorm.DB) ([]ConsultantOrganization, error) {
	return findAll[ConsultantOrganization](db.Preload("Organization").Order("created_at, id"), "list consultant organizations", "consultant_id = ?", consultantId)
}

func GetConsultantLink(linkId, consultantId uuid.UUID, db *gorm.DB) (ConsultantOrganization, error) {
	return first[ConsultantOrganization](db, ErrConsultantLinkNotFound, "get consultant organization", "id = ? AND consultant_id = ?", linkId, consultantId)
}

func GetCompanyProfile(orgId uuid.UUID, db *gorm.DB, loadChildren bool) (CompanyProfile, error) {
	if loadChildren {
		byPosition := func(db *gorm.DB) *gorm.DB { return db.Order("position") }
		db = db.Preload("Subsidiaries", byPosition).
			Preload("OwnershipStructure", byPosition).
			Preload("Initiatives", byPosition).
			Preload("Kpis", byPosition)
	}
	return first[CompanyProfile](db, ErrCompanyProfileNotFound, "get company profile", "organization_id = ?", orgId)
}

func GetGovernanceStructure(orgId uuid.UUID, db *gorm.DB) (GovernanceStructure, error) {
	return first[GovernanceStructure](db, ErrGovernanceStructureNotFound, "get governance structure", "organization_id = ?", orgId)
}

func GetDueDiligenceProcess(orgId uuid.UUID, db *gorm.DB) (DueDiligenceProcess, error) {
	return first[DueDiligenceProcess](db, ErrDueDiligenceNotFound, "get due diligence process", "organization_id = ?", orgId)
}

func ListMaterialityTopics(orgId uuid.UUID, db *gorm.DB) ([]MaterialityTopic, error) {
	return findAll[MaterialityTopic](db.Order("created_at, topic"), "list materiality topics", "organization_id = ?", orgId)
}

func GetMaterialityTopic(orgId, topicId uuid.UUID, db *gorm.DB) (MaterialityTopic, error) {
	return first[MaterialityTopic](db, ErrMaterialityTopicNotFound, "get materiality topic", "id = ? AND organization_id = ?", topicId, orgId)
}

func ListIroEntries(orgId uuid.UUID, iroType string, db *gorm.DB) ([]IroRegisterEntry, error) {
	db = db.Order("created_at, id")
	if iroType != "" {
		return findAll[IroRegisterEntry](db, "list iro entries", "organization_id = ? AND iro_type = ?", orgId, iroType)
	}
	return findAll[IroRegisterEntry](db, "list iro entries", "organization_id = ?", orgId)
}

func GetIroEntry(orgId, iroId uuid.UUID, db *gorm.DB) (IroRegisterEntry, error) {
	return first[IroRegisterEntry](db, ErrIroEntryNotFound, "get iro entry", "id = ? AND organization_id = ?", iroId, orgId)
}

func ListActionPlans(orgId uuid.UUID, db *gorm.DB) ([]ActionPlan, error) {
	return findAll[ActionPlan](db.Order("created_at, id"), "list action plans", "organization_id = ?", orgId)
}

func GetActionPlan(orgId, planId uuid.UUID, db *gorm.DB) (ActionPlan, error) {
	return first[ActionPlan](db, ErrActionPlanNotFound, "get action plan", "id = ? AND organization_id = ?", planId, orgId)
}

func ListEsgDataKpis(orgId uuid.UUID, db *gorm.DB) ([]EsgDataKpi, error) {
	return findAll[EsgDataKpi](db.Order("created_at, id"), "list esg data kpis", "organization_id = ?", orgId)
}

func GetEsgDataKpi(orgId, kpiId uuid.UUID, db *gorm.DB) (EsgDataKpi, error) {
	return first[EsgDataKpi](db, ErrEsgDataKpiNotFound, "get esg data kpi", "id = ? AND organization_id = ?", kpiId, orgId)
}

func ListGeneratedReports(orgId uuid.UUID, db *gorm.DB) ([]GeneratedReport, error) {
	return findAll[GeneratedReport](db.Order("created_at, id"), "list generated reports", "organization_id = ?", orgId)
}

func GetGeneratedReport(orgId, reportId uuid.UUID, db *gorm.DB) (GeneratedReport, error) {
	return first[GeneratedReport](db, ErrReportNotFound, "get generated report", "id = ? AND organization_id = ?", reportId, orgId)
}

func upsertByKey(txn *gorm.DB, row interface{}, action string, keys []string, updates []string) error {
	columns := make([]clause.Column, 0, len(keys))
	for _, k := range keys {
		columns = append(columns, clause.Column{Name: k})
	}

	result := txn.Clauses(clause.OnConflict{
		Columns:   columns,
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(row)
	if result.Error != nil {
		slog.Error("sql error in "+action, "error", result.Error)
		return ErrDbAccessFailed
	}
	return nil
}

// UpsertCompanyProfile writes the profile row keyed by organization id and returns
// the stored row. Children are not touched.
func UpsertCompanyProfile(txn *gorm.DB, profile CompanyProfile) (CompanyProfile, error) {
	if profile.Id == uuid.Nil {
		profile.Id = uuid.New()
	}
	children := []string{"Subsidiaries", "OwnershipStructure", "Initiatives", "Kpis"}
	err := upsertByKey(txn.Omit(children...), &profile, "upsert company profile", []string{"organization_id"}, []string{
		"legal_name", "registration_number", "legal_form", "nace_code", "industry", "sector",
		"headquarters_country", "headquarters_city", "address", "operating_countries", "website",
		"employee_count", "revenue", "currency", "fiscal_year_end",
		"business_model", "key_products", "key_markets", "value_chain", "sustainability_strategy",
		"updated_at",
	})
	if err != nil {
		return CompanyProfile{}, err
	}
	return GetCompanyProfile(profile.OrganizationId, txn, false)
}

func UpsertGovernanceStructure(txn *gorm.DB, gov GovernanceStructure) (GovernanceStructure, error) {
	if gov.Id == uuid.Nil {
		gov.Id = uuid.New()
	}
	err := upsertByKey(txn, &gov, "upsert governance structure", []string{"organization_id"}, []string{
		"board_composition", "sustainability_oversight", "committee_responsibilities", "management_role", "incentive_schemes", "updated_at",
	})
	if err != nil {
		return GovernanceStructure{}, err
	}
	return GetGovernanceStructure(gov.OrganizationId, txn)
}

func UpsertDueDiligenceProcess(txn *gorm.DB, process DueDiligenceProcess) (DueDiligenceProcess, error) {
	if process.Id == uuid.Nil {
		process.Id = uuid.New()
	}
	err := upsertByKey(txn, &process, "upsert due diligence process", []string{"organization_id"}, []string{
		"methodology", "scope", "stakeholder_engagement", "risk_identification", "monitoring_process", "frequency", "updated_at",
	})
	if err != nil {
		return DueDiligenceProcess{}, err
	}
	return GetDueDiligenceProcess(process.OrganizationId, txn)
}

// UpsertMaterialityTopic uses (organization_id, topic) as the natural key, so a
// resubmitted topic name updates the existing row.
func UpsertMaterialityTopic(txn *gorm.DB, topic MaterialityTopic) (MaterialityTopic, error) {
	if topic.Id == uuid.Nil {
		topic.Id = uuid.New()
	}
	topic.MaterialityIndex = MaterialityIndex(topic.FinancialImpact, topic.StakeholderImpact)
	topic.IsMaterial = IsMaterial(topic.FinancialImpact, topic.StakeholderImpact)

	err := upsertByKey(txn, &topic, "upsert materiality topic", []string{"organization_id", "topic"}, []string{
		"category", "subcategory", "description", "financial_impact", "stakeholder_impact",
		"materiality_index", "is_material", "impacted_stakeholders", "updated_at",
	})
	if err != nil {
		return MaterialityTopic{}, err
	}
	return first[MaterialityTopic](txn, ErrMaterialityTopicNotFound, "get materiality topic by name", "organization_id = ? AND topic = ?", topic.OrganizationId, topic.Topic)
}

// ReplaceCompanyProfileChildren swaps every child row of the profile for the
// ones on profile, numbering them in slice order. Must run in a transaction.
func ReplaceCompanyProfileChildren(txn *gorm.DB, profile CompanyProfile) error {
	for _, model := range []interface{}{&Subsidiary{}, &OwnershipStructure{}, &SustainabilityInitiative{}, &SustainabilityKPI{}} {
		result := txn.Where("company_profile_id = ?", profile.Id).Delete(model)
		if result.Error != nil {
			slog.Error("sql error deleting company profile children", "company_profile_id", profile.Id, "error", result.Error)
			return ErrDbAccessFailed
		}
	}

	for i := range profile.Subsidiaries {
		profile.Subsidiaries[i].Id = uuid.New()
		profile.Subsidiaries[i].CompanyProfileId = profile.Id
		profile.Subsidiaries[i].Position = i
	}
	for i := range profile.OwnershipStructure {
		profile.OwnershipStructure[i].Id = uuid.New()
		profile.OwnershipStructure[i].CompanyProfileId = profile.Id
		profile.OwnershipStructure[i].Position = i
	}
	for i := range profile.Initiatives {
		profile.Initiatives[i].Id = uuid.New()
		profile.Initiatives[i].CompanyProfileId = profile.Id
		profile.Initiatives[i].Position = i
	}
	for i := range profile.Kpis {
		profile.Kpis[i].Id = uuid.New()
		profile.Kpis[i].CompanyProfileId = profile.Id
		profile.Kpis[i].Position = i
	}

	create := func(rows interface{}, count int) error {
		if count == 0 {
			return nil
		}
		result := txn.Create(rows)
		if result.Error != nil {
			slog.Error("sql error creating company profile children", "company_profile_id", profile.Id, "error", result.Error)
			return ErrDbAccessFailed
		}
		return nil
	}

	if err := create(&profile.Subsidiaries, len(profile.Subsidiaries)); err != nil {
		return err
	}
	if err := create(&profile.OwnershipStructure, len(profile.OwnershipStructure)); err != nil {
		return err
	}
	if err := create(&profile.Initiatives, len(profile.Initiatives)); err != nil {
		return err
	}
	if err := create(&profile.Kpis, len(profile.Kpis)); err != nil {
		return err
	}

	return nil
}
