package versions

import (
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type keyedRow struct {
	Id       uuid.UUID
	DedupKey string
}

// duplicateIds returns the ids of every row after the first one per key. Rows
// are read ordered by key and then by the given columns, so the kept row is the
// first in that order.
func duplicateIds(txn *gorm.DB, table, keyExpr, order string) ([]uuid.UUID, error) {
	var rows []keyedRow
	err := txn.Table(table).
		Select("id, " + keyExpr + " AS dedup_key").
		Order(keyExpr + ", " + order).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	dups := make([]uuid.UUID, 0)
	for i := 1; i < len(rows); i++ {
		if rows[i].DedupKey == rows[i-1].DedupKey {
			dups = append(dups, rows[i].Id)
		}
	}
	return dups, nil
}

func deleteIds(txn *gorm.DB, table, column string, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return txn.Exec("DELETE FROM "+table+" WHERE "+column+" IN ?", ids).Error
}

// createIndexes creates the named indexes declared on model's struct tags that
// do not exist yet.
func createIndexes(model interface{}, txn *gorm.DB, indexes ...string) error {
	for _, idx := range indexes {
		if txn.Migrator().HasIndex(model, idx) {
			continue
		}
		log.Printf("creating index '%v'", idx)
		if err := txn.Migrator().CreateIndex(model, idx); err != nil {
			return err
		}
	}
	return nil
}
