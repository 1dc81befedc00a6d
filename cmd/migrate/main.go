package main

import (
	"log"

	"ai-study-assistant-be/internal/config"
	"ai-study-assistant-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.Debug)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Running AutoMigrate for study_records...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("Error: Migration failed:", err)
	}

	// AutoMigrate creates it too; kept for databases migrated before the tag existed.
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_study_records_expires_at ON study_records (expires_at)`).Error; err != nil {
		log.Printf("Warn: Failed to create expires_at index: %v", err)
	}

	log.Println("Migration completed")
}
