// helpdesk/types/types.go
package types

import (
	"time"

	"github.com/google/uuid"

	"helpdesk/helpdesk/sources/psql/models"
)

// Caller is the authenticated identity every operation runs as. ViewAs is
// set only for admins impersonating a user for read-only UI verification;
// write paths must reject callers with ViewAs set.
type Caller struct {
	ID     uuid.UUID
	Role   models.Role
	ViewAs *uuid.UUID
}

// Impersonating reports whether the caller is in read-only view-as mode.
func (c Caller) Impersonating() bool {
	return c.ViewAs != nil
}

type LoginRequest struct {
	Username string `json:"username"`
}

type CreateUserRequest struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name,omitempty"`
	Role     string  `json:"role,omitempty"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

type SubmitApplicationRequest struct {
	BusinessName string `json:"business_name"`
}

type DecisionRequest struct {
	Decision string `json:"decision"` // "approved" | "rejected"
	Reason   string `json:"reason,omitempty"`
}

// MessageView is a projected message. Sender carries the full sender id for
// same-role and admin views, and is redacted to the bare role tag for
// cross-role display.
type MessageView struct {
	ID         uuid.UUID   `json:"id"`
	SessionID  uuid.UUID   `json:"session_id"`
	Sender     string      `json:"sender"`
	SenderRole models.Role `json:"sender_role"`
	Text       string      `json:"text"`
	Timestamp  time.Time   `json:"timestamp"`
}

type SessionView struct {
	ID              uuid.UUID            `json:"id"`
	Category        models.Category      `json:"category"`
	ParticipantID   uuid.UUID            `json:"participant_id"`
	AssignedAdminID *uuid.UUID           `json:"assigned_admin_id,omitempty"`
	Status          models.SessionStatus `json:"status"`
	CreatedAt       time.Time            `json:"created_at"`
	Messages        []MessageView        `json:"messages,omitempty"`
}

// AdminSessionView joins participant display fields for inbox search.
type AdminSessionView struct {
	SessionView
	ParticipantName  string `json:"participant_name"`
	ParticipantEmail string `json:"participant_email"`
	LastMessageText  string `json:"last_message_text,omitempty"`
	LastMessageAt    string `json:"last_message_at,omitempty"`
}

type NotificationView struct {
	ID        uuid.UUID               `json:"id"`
	Type      models.NotificationType `json:"type"`
	Kind      models.NotificationKind `json:"kind"`
	Message   string                  `json:"message"`
	TargetID  *uuid.UUID              `json:"target_id,omitempty"`
	IsRead    bool                    `json:"is_read"`
	CreatedAt time.Time               `json:"created_at"`
}
