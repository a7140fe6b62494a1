package database

import (
	"github.com/loopware/billing-webhook/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	// Create extensions first
	logger.Info("Creating PostgreSQL extensions...")
	if err := createExtensions(db); err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}
	logger.Info("PostgreSQL extensions created successfully")

	// Create custom types BEFORE auto-migrate
	logger.Info("Creating custom PostgreSQL types...")
	if err := createCustomTypes(db); err != nil {
		logger.Error("Failed to create custom types", zap.Error(err))
		return err
	}
	logger.Info("Custom PostgreSQL types created successfully")

	// Auto-migrate all models
	logger.Info("Running GORM auto-migrations...")
	err := db.AutoMigrate(
		&model.Shop{},
		&model.SignupAttempt{},
		&model.Subscription{},
		&model.WebhookEvent{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}
	logger.Info("GORM auto-migrations completed successfully")

	// Create custom indexes and constraints
	logger.Info("Creating custom indexes...")
	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}
	logger.Info("Custom indexes created successfully")

	logger.Info("Database migrations completed successfully")
	return nil
}

// createExtensions creates required PostgreSQL extensions
func createExtensions(db *gorm.DB) error {
	// gen_random_uuid for signup attempt primary keys
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}
	return nil
}

// createCustomTypes creates custom PostgreSQL types
func createCustomTypes(db *gorm.DB) error {
	// Check if signup_status type exists
	var exists bool
	db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'signup_status')`).Scan(&exists)
	if !exists {
		if err := db.Exec(`CREATE TYPE signup_status AS ENUM ('pending', 'paid')`).Error; err != nil {
			return err
		}
	}

	// Check if webhook_event_status exists
	db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'webhook_event_status')`).Scan(&exists)
	if !exists {
		if err := db.Exec(`CREATE TYPE webhook_event_status AS ENUM ('received', 'duplicate', 'processed', 'skipped', 'failed')`).Error; err != nil {
			return err
		}
	}

	return nil
}

// createCustomIndexes creates custom indexes that GORM doesn't handle automatically
func createCustomIndexes(db *gorm.DB) error {
	// Matching scans pending attempts for one email, newest first
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_signup_attempts_pending_email ON signup_attempts (email, created_at DESC) WHERE status = 'pending'`).Error; err != nil {
		return err
	}

	// Replay tooling scans the unprocessed backlog oldest first
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_webhook_events_unprocessed ON webhook_events (created_at) WHERE status IN ('received', 'failed')`).Error; err != nil {
		return err
	}

	return nil
}
