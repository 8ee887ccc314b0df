package versions

import (
	"log"

	"esg_platform/esg_hub/schema"

	"gorm.io/gorm"
)

// Migration_2_materiality_topic_natural_key makes (organization_id, topic) the
// natural key of materiality topics. Of each set of repeated topics the most
// recently updated row survives, since it holds the latest assessment.
func Migration_2_materiality_topic_natural_key(txn *gorm.DB) error {
	dups, err := duplicateIds(txn, "materiality_topics", "CAST(organization_id AS TEXT) || '/' || topic", "updated_at DESC, id")
	if err != nil {
		return err
	}
	if err := deleteIds(txn, "materiality_topics", "id", dups); err != nil {
		return err
	}
	log.Printf("removed %d duplicate materiality topics", len(dups))

	return createIndexes(&schema.MaterialityTopic{}, txn, "idx_org_topic")
}
