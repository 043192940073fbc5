package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"amlak-system/internal/database/models"
)

// Migration is one ordered schema change. Versions are applied exactly once,
// in declaration order, and recorded in schema_migrations.
type Migration struct {
	Version string
	Name    string
	Up      func(db *gorm.DB) error
}

type MigrationRecord struct {
	Version   string `gorm:"primaryKey"`
	Name      string
	AppliedAt time.Time
}

func (MigrationRecord) TableName() string {
	return "schema_migrations"
}

// Migrations is the full ordered history. New schema changes are appended,
// never edited in place.
var Migrations = []Migration{
	{
		Version: "20240901000001",
		Name:    "initial_schema",
		Up: func(db *gorm.DB) error {
			return db.AutoMigrate(
				&models.User{},
				&models.Asset{},
				&models.Unit{},
				&models.Tenant{},
				&models.Contract{},
				&models.ContractUnit{},
				&models.Payment{},
			)
		},
	},
	{
		Version: "20240915000001",
		Name:    "contract_cancellation_fields",
		Up: func(db *gorm.DB) error {
			return db.AutoMigrate(&models.Contract{})
		},
	},
	{
		Version: "20241002000001",
		Name:    "payment_collection_fields",
		Up: func(db *gorm.DB) error {
			return db.AutoMigrate(&models.Payment{})
		},
	},
}

// RunMigrations applies all pending migrations. Any failure aborts the run
// and is returned to the caller; the server refuses to start on a failed
// migration.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
		return fmt.Errorf("failed to prepare schema_migrations: %w", err)
	}

	for _, m := range Migrations {
		var count int64
		if err := db.Model(&MigrationRecord{}).Where("version = ?", m.Version).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration %s: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		if err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&MigrationRecord{
				Version:   m.Version,
				Name:      m.Name,
				AppliedAt: time.Now(),
			}).Error
		}); err != nil {
			return fmt.Errorf("migration %s (%s) failed: %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// PendingMigrations reports versions not yet applied, for the migrate CLI
// status command.
func PendingMigrations(db *gorm.DB) ([]Migration, error) {
	if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to prepare schema_migrations: %w", err)
	}

	var applied []MigrationRecord
	if err := db.Find(&applied).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(applied))
	for _, r := range applied {
		seen[r.Version] = true
	}

	var pending []Migration
	for _, m := range Migrations {
		if !seen[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending, nil
}
