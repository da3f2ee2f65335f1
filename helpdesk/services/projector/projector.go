// Package projector computes the role-filtered view of sessions, messages
// and notifications a caller is permitted to see. Everything here is a pure
// function over loaded rows; no store access, no mutation.
package projector

import (
	"github.com/google/uuid"

	"helpdesk/helpdesk/sources/psql/models"
	"helpdesk/helpdesk/types"
	"helpdesk/helpdesk/utils/apperrors"
)

// VerifyRole checks the caller's role claim against the server-side record.
// A mismatch is a stale client session, not an ownership denial, and maps to
// the refresh-session UX.
func VerifyRole(caller types.Caller, serverRole models.Role) error {
	if caller.Role != serverRole {
		return apperrors.Wrap(apperrors.ErrStaleRole, "token role %q, server role %q", caller.Role, serverRole)
	}
	return nil
}

// Viewer resolves the effective identity a projection runs as. Admins with
// ViewAs set are re-projected as that user, read-only.
func Viewer(caller types.Caller) (uuid.UUID, models.Role, error) {
	if caller.ViewAs == nil {
		return caller.ID, caller.Role, nil
	}
	if caller.Role != models.RoleAdmin {
		return uuid.Nil, "", apperrors.Wrap(apperrors.ErrForbidden, "view_as requires admin role")
	}
	return *caller.ViewAs, models.RoleUser, nil
}

// CanReadSession decides session visibility for the effective viewer.
func CanReadSession(viewerID uuid.UUID, viewerRole models.Role, session models.ChatSession) bool {
	switch viewerRole {
	case models.RoleAdmin:
		return true
	case models.RoleVendor:
		return session.Category == models.CategoryVendorSupport && session.ParticipantID == viewerID
	default:
		return session.ParticipantID == viewerID
	}
}

// ProjectSessions filters sessions down to what the caller may see.
func ProjectSessions(caller types.Caller, sessions []models.ChatSession) ([]types.SessionView, error) {
	viewerID, viewerRole, err := Viewer(caller)
	if err != nil {
		return nil, err
	}
	var out []types.SessionView
	for _, s := range sessions {
		if !CanReadSession(viewerID, viewerRole, s) {
			continue
		}
		out = append(out, types.SessionView{
			ID:              s.ID,
			Category:        s.Category,
			ParticipantID:   s.ParticipantID,
			AssignedAdminID: s.AssignedAdminID,
			Status:          s.Status,
			CreatedAt:       s.CreatedAt,
		})
	}
	return out, nil
}

// ProjectMessages redacts sender identity down to a role tag for cross-role
// rows. Admins not in view-as mode keep full identity everywhere; everyone
// keeps full identity on their own messages.
func ProjectMessages(caller types.Caller, session models.ChatSession, msgs []models.ChatMessage) ([]types.MessageView, error) {
	viewerID, viewerRole, err := Viewer(caller)
	if err != nil {
		return nil, err
	}
	if !CanReadSession(viewerID, viewerRole, session) {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "session %s does not belong to caller", session.ID)
	}
	out := make([]types.MessageView, 0, len(msgs))
	for _, m := range msgs {
		sender := string(m.SenderRole)
		if m.SenderID == viewerID || viewerRole == models.RoleAdmin {
			sender = m.SenderID.String()
		}
		out = append(out, types.MessageView{
			ID:         m.ID,
			SessionID:  m.SessionID,
			Sender:     sender,
			SenderRole: m.SenderRole,
			Text:       m.Text,
			Timestamp:  m.Timestamp,
		})
	}
	return out, nil
}

// ProjectNotifications is recipient-scoped: rows for other recipients are
// dropped, never redacted.
func ProjectNotifications(caller types.Caller, notifs []models.Notification) ([]types.NotificationView, error) {
	viewerID, _, err := Viewer(caller)
	if err != nil {
		return nil, err
	}
	var out []types.NotificationView
	for _, n := range notifs {
		if n.RecipientID != viewerID {
			continue
		}
		out = append(out, types.NotificationView{
			ID:        n.ID,
			Type:      n.Type,
			Kind:      n.Kind,
			Message:   n.Message,
			TargetID:  n.TargetID,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return out, nil
}
