package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationAlert   NotificationType = "ALERT"
	NotificationSuccess NotificationType = "SUCCESS"
	NotificationInfo    NotificationType = "INFO"
)

// NotificationKind is the typed classification that replaces the legacy
// string sniffing on the message text ("New Message:", "Congratulations!").
type NotificationKind string

const (
	KindChatMessage    NotificationKind = "chat_message"
	KindVendorApproved NotificationKind = "vendor_approved"
	KindVendorRejected NotificationKind = "vendor_rejected"
)

// Notification references its originating entity via TargetID but never owns
// it. SourceMessageID is the idempotency key for chat fan-out: the unique
// index over (source_message_id, recipient_id) makes retries collapse into
// the original row.
type Notification struct {
	ID              uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	RecipientID     uuid.UUID        `json:"recipient_id" gorm:"type:uuid;not null;index;uniqueIndex:ux_source_recipient,priority:2"`
	RecipientRole   Role             `json:"recipient_role" gorm:"type:varchar(50);not null"`
	Type            NotificationType `json:"type" gorm:"type:varchar(20);not null"`
	Kind            NotificationKind `json:"kind" gorm:"type:varchar(50);not null"`
	Message         string           `json:"message" gorm:"type:text;not null"`
	TargetID        *uuid.UUID       `json:"target_id,omitempty" gorm:"type:uuid"`
	SourceMessageID *uuid.UUID       `json:"source_message_id,omitempty" gorm:"type:uuid;uniqueIndex:ux_source_recipient,priority:1"`
	IsRead          bool             `json:"is_read" gorm:"not null;default:false"`
	CreatedAt       time.Time        `json:"created_at" gorm:"autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (Notification) BeforeCreate(tx *gorm.DB) (err error) {
	return tx.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error
}
