package versions

import (
	"log"

	"esg_platform/esg_hub/schema"

	"gorm.io/gorm"
)

var profileChildTables = []string{"subsidiaries", "ownership_structures", "sustainability_initiatives", "sustainability_kpis"}

// Migration_1_unique_org_records collapses repeated one per organization
// records and repeated consultant links, keeping the earliest, and adds the
// unique indexes that prevent them.
func Migration_1_unique_org_records(txn *gorm.DB) error {
	log.Println("removing duplicate company profiles")
	profileDups, err := duplicateIds(txn, "company_profiles", "CAST(organization_id AS TEXT)", "updated_at, id")
	if err != nil {
		return err
	}
	for _, table := range profileChildTables {
		if err := deleteIds(txn, table, "company_profile_id", profileDups); err != nil {
			return err
		}
	}
	if err := deleteIds(txn, "company_profiles", "id", profileDups); err != nil {
		return err
	}
	log.Printf("removed %d duplicate company profiles", len(profileDups))

	for _, table := range []string{"governance_structures", "due_diligence_processes"} {
		dups, err := duplicateIds(txn, table, "CAST(organization_id AS TEXT)", "updated_at, id")
		if err != nil {
			return err
		}
		if err := deleteIds(txn, table, "id", dups); err != nil {
			return err
		}
		log.Printf("removed %d duplicate rows from '%v'", len(dups), table)
	}

	linkDups, err := duplicateIds(txn, "consultant_organizations", "CAST(consultant_id AS TEXT) || '/' || CAST(organization_id AS TEXT)", "created_at, id")
	if err != nil {
		return err
	}
	if err := deleteIds(txn, "consultant_organizations", "id", linkDups); err != nil {
		return err
	}
	log.Printf("removed %d duplicate consultant links", len(linkDups))

	if err := createIndexes(&schema.CompanyProfile{}, txn, "idx_company_profiles_organization_id"); err != nil {
		return err
	}
	if err := createIndexes(&schema.GovernanceStructure{}, txn, "idx_governance_structures_organization_id"); err != nil {
		return err
	}
	if err := createIndexes(&schema.DueDiligenceProcess{}, txn, "idx_due_diligence_processes_organization_id"); err != nil {
		return err
	}
	return createIndexes(&schema.ConsultantOrganization{}, txn, "idx_consultant_org")
}
