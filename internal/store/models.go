package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence. Cross-collection references are kept as
// JSONB arrays to match the document shape of the records.
type MedicineModel struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"uniqueIndex;not null"`
	Description  string `gorm:"not null"`
	Price        *float64
	PharmacyRefs datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null"`
}

type PharmacyModel struct {
	// Name uniqueness is enforced by an explicit pre-check in the app
	// layer, not by a storage constraint.
	ID            string         `gorm:"primaryKey"`
	Name          string         `gorm:"not null;index"`
	Address       string         `gorm:"not null"`
	MedicineLinks datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"not null"`
	UpdatedAt     time.Time      `gorm:"not null"`
}

type UserModel struct {
	ID           string         `gorm:"primaryKey"`
	Username     string         `gorm:"uniqueIndex;not null"`
	Email        string         `gorm:"uniqueIndex;not null"`
	PasswordHash string         `gorm:"not null"`
	Favorites    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null"`
}
