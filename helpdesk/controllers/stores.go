// helpdesk/controllers/stores.go
//
// Store interfaces the controllers operate on. The gorm DAOs in
// sources/psql/dao and the in-memory store in sources/memstore both satisfy
// them, so the same controller logic runs against Postgres in production
// and against memory in tests and database-less dev mode.
package controllers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"helpdesk/helpdesk/sources/psql/models"
)

type UserStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
}

type SessionStore interface {
	GetSession(ctx context.Context, id uuid.UUID) (*models.ChatSession, error)
	FindSession(ctx context.Context, participantID uuid.UUID, category models.Category) (*models.ChatSession, error)
	CreateSession(ctx context.Context, session *models.ChatSession) (*models.ChatSession, error)
	ListSessions(ctx context.Context, category models.Category) ([]models.ChatSession, error)
	CloseSession(ctx context.Context, id uuid.UUID) error
	AssignAdmin(ctx context.Context, sessionID, adminID uuid.UUID) error
	AppendMessage(ctx context.Context, msg *models.ChatMessage) error
	DeleteMessage(ctx context.Context, sessionID, messageID uuid.UUID) error
	ListMessages(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error)
	LastMessage(ctx context.Context, sessionID uuid.UUID) (*models.ChatMessage, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) (bool, error)
	GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	DeleteNotification(ctx context.Context, id uuid.UUID) error
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
}

type ApplicationStore interface {
	CreateApplication(ctx context.Context, app *models.VendorApplication) error
	GetApplication(ctx context.Context, id uuid.UUID) (*models.VendorApplication, error)
	ListApplications(ctx context.Context) ([]models.VendorApplication, error)
	ListApplicationsByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.VendorApplication, error)
	DecideApplication(ctx context.Context, id uuid.UUID, status models.ApplicationStatus, reason string, decidedAt time.Time) (bool, error)
	HasPendingApplication(ctx context.Context, vendorID uuid.UUID) (bool, error)
}
