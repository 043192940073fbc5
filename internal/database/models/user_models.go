package models

import "time"

const (
	RoleAdmin    = "Admin"
	RoleEmployee = "Employee"
)

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(16);not null"`
	IsActive     bool   `gorm:"default:true"`
	LastLogin    *time.Time
	CreatedAt    *time.Time `gorm:"autoCreateTime"`
	UpdatedAt    *time.Time `gorm:"autoUpdateTime"`
}
