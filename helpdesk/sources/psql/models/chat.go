package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryUserSupport   Category = "user_support"
	CategoryVendorSupport Category = "vendor_support"
)

func (c Category) Valid() bool {
	return c == CategoryUserSupport || c == CategoryVendorSupport
}

// ParticipantRole is the role pool a category's participants belong to.
func (c Category) ParticipantRole() Role {
	if c == CategoryVendorSupport {
		return RoleVendor
	}
	return RoleUser
}

type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// ChatSession is the durable thread between one participant and the support
// pool of its category. The unique index over (participant_id, category)
// backs the at-most-one-open-session rule; the row is never hard-deleted.
type ChatSession struct {
	ID              uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Category        Category      `json:"category" gorm:"type:varchar(50);not null;uniqueIndex:ux_participant_category,priority:2"`
	ParticipantID   uuid.UUID     `json:"participant_id" gorm:"type:uuid;not null;uniqueIndex:ux_participant_category,priority:1"`
	AssignedAdminID *uuid.UUID    `json:"assigned_admin_id,omitempty" gorm:"type:uuid"`
	Status          SessionStatus `json:"status" gorm:"type:varchar(20);not null;default:'open'"`
	CreatedAt       time.Time     `json:"created_at" gorm:"autoCreateTime"`
	Messages        []ChatMessage `json:"messages,omitempty" gorm:"foreignKey:SessionID;references:ID"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

func (ChatSession) BeforeCreate(tx *gorm.DB) (err error) {
	return tx.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error
}

// ChatMessage is append-only at the API surface: the only delete is the
// internal rollback of an append whose fan-out failed. Timestamp is
// assigned server-side and is non-decreasing within a session.
type ChatMessage struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	SessionID  uuid.UUID `json:"session_id" gorm:"type:uuid;not null;index"`
	SenderID   uuid.UUID `json:"sender_id" gorm:"type:uuid;not null"`
	SenderRole Role      `json:"sender_role" gorm:"type:varchar(50);not null"`
	Text       string    `json:"text" gorm:"type:text;not null"`
	Timestamp  time.Time `json:"timestamp" gorm:"not null;index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
