package main

import (
	"log"
	"os"

	"publo-orchestrator/internal/model"
	"publo-orchestrator/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: extensions gen_random_uuid() depends on
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.OrchestratorSession{},
		&model.OrchestratorMessage{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: composite indexes GORM tags can't express
	log.Println("Step 3: Creating composite indexes...")

	postMigrationSQL := []string{
		// Active-session lookup is always "latest active session for user".
		`CREATE INDEX IF NOT EXISTS idx_orchestrator_sessions_user_active
		 ON orchestrator_sessions (user_id, created_at DESC)
		 WHERE is_active = true AND deleted_at IS NULL;`,

		// Transcript reads are ordered per session.
		`CREATE INDEX IF NOT EXISTS idx_orchestrator_messages_session_created
		 ON orchestrator_messages (session_id, created_at);`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
