package models

import (
	"time"
)

// Validation lifecycle of a registration. A row stays pending until exactly
// one validation pass records a terminal status.
const (
	ValidationStatusPending   = "pending"
	ValidationStatusValidated = "validated"
	ValidationStatusFailed    = "failed"
)

type Driver struct {
	ID                  uint       `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	FirstName           string     `gorm:"column:first_name;type:varchar(100);not null" json:"first_name"`
	LastName            string     `gorm:"column:last_name;type:varchar(100);not null" json:"last_name"`
	Email               string     `gorm:"column:email;type:varchar(255);not null;unique" json:"email"`
	Phone               string     `gorm:"column:phone;type:varchar(32);not null" json:"phone"`
	LicenseDocPath      string     `gorm:"column:license_doc_path;type:varchar(512);not null" json:"license_doc_path"`
	LicenseExpiryDate   string     `gorm:"column:license_expiry_date;type:varchar(32);not null" json:"license_expiry_date"`
	InsuranceDocPath    string     `gorm:"column:insurance_doc_path;type:varchar(512);not null" json:"insurance_doc_path"`
	InsuranceExpiryDate string     `gorm:"column:insurance_expiry_date;type:varchar(32);not null" json:"insurance_expiry_date"`
	ValidationStatus    string     `gorm:"column:validation_status;type:varchar(32);not null;default:pending" json:"validation_status"`
	ValidationNotes     *string    `gorm:"column:validation_notes;type:text" json:"validation_notes,omitempty"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	ValidatedAt         *time.Time `gorm:"column:validated_at" json:"validated_at,omitempty"`
}

// TableName overrides
func (Driver) TableName() string {
	return "drivers"
}

// FullName is the name expected to appear on the driver's documents.
func (d *Driver) FullName() string {
	return d.FirstName + " " + d.LastName
}
