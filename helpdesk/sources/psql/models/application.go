package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// VendorApplication rows are immutable history once decided: approval and
// rejection are terminal, and a re-submission after rejection is a fresh
// pending row, never an edit of the old one.
type VendorApplication struct {
	ID              uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	VendorID        uuid.UUID         `json:"vendor_id" gorm:"type:uuid;not null;index"`
	BusinessName    string            `json:"business_name" gorm:"type:varchar(255);not null"`
	Status          ApplicationStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	RejectionReason string            `json:"rejection_reason,omitempty" gorm:"type:text"`
	DecidedAt       *time.Time        `json:"decided_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at" gorm:"autoCreateTime"`
}

func (VendorApplication) TableName() string {
	return "vendor_applications"
}

func (VendorApplication) BeforeCreate(tx *gorm.DB) (err error) {
	return tx.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error
}
