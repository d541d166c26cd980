package models

import (
	"log"

	"github.com/mmagrifocus/poultry_backend/config"
)

// MigrateTable runs AutoMigrate for every table this service owns.
// Callable on startup (skippable via SKIP_MIGRATIONS) or from a job.
func MigrateTable() {
	db := config.GetDB()
	if db == nil {
		log.Println("MigrateTable: db is nil; skipping")
		return
	}
	err := db.AutoMigrate(
		&Upload{},
		&DeliveryRecord{},
	)
	if err != nil {
		log.Printf("MigrateTable: %v", err)
	}
}
