package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"strings"

	"esg_platform/cmd/migration/versions"
	"esg_platform/esg_hub/schema"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func postgresDsn(uri string) string {
	if uri == "" {
		log.Fatalf("Missing --db_uri arg")
	}
	parts, err := url.Parse(uri)
	if err != nil {
		log.Fatalf("error parsing db uri: %v", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v", parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port())
}

func main() {
	dbUri := flag.String("db_uri", "", "Database URI")
	flag.Parse()

	db, err := gorm.Open(postgres.Open(postgresDsn(*dbUri)), &gorm.Config{})
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	migration := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID:      "1_unique_org_records",
			Migrate: versions.Migration_1_unique_org_records,
			// Deleted duplicates cannot be restored, so there is no rollback.
		},
		{
			ID:      "2_materiality_topic_natural_key",
			Migrate: versions.Migration_2_materiality_topic_natural_key,
			Rollback: func(txn *gorm.DB) error {
				return txn.Migrator().DropIndex(&schema.MaterialityTopic{}, "idx_org_topic")
			},
		},
	})

	migration.InitSchema(func(txn *gorm.DB) error {
		log.Println("clean database detected, running full schema initialization")

		return txn.AutoMigrate(schema.AllModels()...)
	})

	if err := migration.Migrate(); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("migration completed successfully")
}
