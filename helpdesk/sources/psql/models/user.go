package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleVendor || r == RoleAdmin
}

type User struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Username string    `json:"username" gorm:"type:varchar(255);not null;uniqueIndex"`
	Email    string    `json:"email" gorm:"type:varchar(255);not null"`
	FullName *string   `json:"full_name,omitempty" gorm:"type:varchar(255)"`
	Role     Role      `json:"role" gorm:"type:varchar(50);not null;default:'user'"`
}

func (User) BeforeCreate(tx *gorm.DB) (err error) {
	// Ensure UUID extension is enabled
	return tx.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error
}
