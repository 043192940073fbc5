package models

import "time"

const (
	AssetTypeBuilding    = "building"
	AssetTypeWarehouse   = "warehouse"
	AssetTypeLand        = "land"
	AssetTypeFuelStation = "fuel_station"
	AssetTypeOther       = "other"
)

const (
	UnitStatusVacant      = "vacant"
	UnitStatusRented      = "rented"
	UnitStatusMaintenance = "maintenance"
)

const (
	UnitUsageResidential   = "residential"
	UnitUsageCommercial    = "commercial"
	UnitUsageRightOfUse    = "right_of_use"
	UnitUsageWorkerHousing = "worker_housing"
)

type Asset struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	Name        string     `gorm:"uniqueIndex;not null"`
	Type        string     `gorm:"type:varchar(32);not null"`
	Location    *string    `gorm:"type:varchar(128)"`
	Description *string    `gorm:"type:text"`
	CreatedAt   *time.Time `gorm:"autoCreateTime"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime"`

	Units []Unit `gorm:"foreignKey:AssetID"`
}

type Unit struct {
	ID         int64    `gorm:"primaryKey;autoIncrement"`
	AssetID    int64    `gorm:"index;not null;uniqueIndex:idx_asset_unit_number"`
	UnitNumber string   `gorm:"not null;uniqueIndex:idx_asset_unit_number"`
	Floor      *string  `gorm:"type:varchar(32)"`
	Area       *float64 // m2
	UsageType  string   `gorm:"type:varchar(32);not null"`
	// Rented status is contract-driven: flipped at contract creation and
	// cancellation, never set directly by unit edits.
	Status    string     `gorm:"type:varchar(32);not null;default:vacant"`
	CreatedAt *time.Time `gorm:"autoCreateTime"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime"`

	Asset *Asset `gorm:"foreignKey:AssetID"`
}
