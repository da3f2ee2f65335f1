// Package fanout derives notifications from message appends and vendor
// application decisions and targets them at the correct recipient set.
package fanout

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"helpdesk/helpdesk/sources/psql/models"
	"helpdesk/helpdesk/utils/apperrors"
)

// previewLen caps how much of the message text lands in the notification.
const previewLen = 80

// NotificationStore is the slice of the store the engine writes through.
// CreateNotification must be idempotent per (source message, recipient);
// DeleteBySource unwinds every notification derived from one message.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) (bool, error)
	DeleteBySource(ctx context.Context, sourceMessageID uuid.UUID) error
}

// AdminDirectory resolves the admin recipient pool.
type AdminDirectory interface {
	ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

type Engine struct {
	notifications NotificationStore
	users         AdminDirectory
	logger        *zap.Logger
}

func NewEngine(notifications NotificationStore, users AdminDirectory, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{notifications: notifications, users: users, logger: logger}
}

// OnMessageAppended runs synchronously inside the append operation: a
// participant message notifies every admin, an admin message notifies the
// session participant. The sender never notifies itself, and the message id
// keys the dedupe so a retried append cannot double-notify.
func (e *Engine) OnMessageAppended(ctx context.Context, msg *models.ChatMessage, session *models.ChatSession) error {
	text := "New Message: " + preview(msg.Text)

	if msg.SenderRole == models.RoleAdmin {
		return e.emitChatNotification(ctx, msg, session, session.ParticipantID, session.Category.ParticipantRole(), text)
	}

	admins, err := e.users.ListUsersByRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("listing admins for fan-out: %w", err)
	}
	for _, admin := range admins {
		if admin.ID == msg.SenderID {
			continue
		}
		if err := e.emitChatNotification(ctx, msg, session, admin.ID, models.RoleAdmin, text); err != nil {
			// A partial fan-out must fail the whole append; the caller
			// rolls the append back via OnMessageRevoked.
			return err
		}
	}
	return nil
}

func (e *Engine) emitChatNotification(ctx context.Context, msg *models.ChatMessage, session *models.ChatSession, recipientID uuid.UUID, recipientRole models.Role, text string) error {
	sessionID := session.ID
	messageID := msg.ID
	created, err := e.notifications.CreateNotification(ctx, &models.Notification{
		RecipientID:     recipientID,
		RecipientRole:   recipientRole,
		Type:            models.NotificationInfo,
		Kind:            models.KindChatMessage,
		Message:         text,
		TargetID:        &sessionID,
		SourceMessageID: &messageID,
	})
	if err != nil {
		return fmt.Errorf("creating chat notification: %w", err)
	}
	if !created {
		e.logger.Info("chat notification already fanned out",
			zap.String("message_id", messageID.String()),
			zap.String("recipient_id", recipientID.String()),
		)
	}
	return nil
}

// OnMessageRevoked removes whatever part of a fan-out landed before a
// failure, so the caller can unwind the append without orphaning rows.
func (e *Engine) OnMessageRevoked(ctx context.Context, msg *models.ChatMessage) error {
	if err := e.notifications.DeleteBySource(ctx, msg.ID); err != nil {
		return fmt.Errorf("revoking notifications for message %s: %w", msg.ID, err)
	}
	return nil
}

// OnVendorDecision emits the one-shot decision notification. Callers invoke
// it only after winning the pending-to-terminal transition; deciding an
// already-decided application is an ErrConflict upstream, not a retry path.
func (e *Engine) OnVendorDecision(ctx context.Context, app *models.VendorApplication) error {
	appID := app.ID
	n := &models.Notification{
		RecipientID:   app.VendorID,
		RecipientRole: models.RoleVendor,
		TargetID:      &appID,
	}
	switch app.Status {
	case models.ApplicationApproved:
		n.Type = models.NotificationSuccess
		n.Kind = models.KindVendorApproved
		n.Message = fmt.Sprintf("Congratulations! Your vendor application for %q has been approved.", app.BusinessName)
	case models.ApplicationRejected:
		n.Type = models.NotificationAlert
		n.Kind = models.KindVendorRejected
		n.Message = fmt.Sprintf("Your vendor application for %q was rejected: %s", app.BusinessName, app.RejectionReason)
	default:
		return apperrors.Wrap(apperrors.ErrValidation, "cannot fan out undecided application %s", app.ID)
	}
	if _, err := e.notifications.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("creating decision notification: %w", err)
	}
	return nil
}

func preview(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= previewLen {
		return text
	}
	// back up to a rune start so the cut never splits a multi-byte rune
	cut := previewLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
