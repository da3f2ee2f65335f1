// helpdesk/controllers/chat.go
package controllers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"helpdesk/helpdesk/services/fanout"
	"helpdesk/helpdesk/services/projector"
	"helpdesk/helpdesk/sources/psql/models"
	"helpdesk/helpdesk/types"
	"helpdesk/helpdesk/utils/apperrors"
)

// lockTable hands out one mutex per string key. Creation is serialized per
// (participant, category) and appends per session; different keys proceed
// fully in parallel.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

func (t *lockTable) lock(key string) func() {
	t.mu.Lock()
	l, ok := t.locks[key]
	if !ok {
		l = &sync.Mutex{}
		t.locks[key] = l
	}
	t.mu.Unlock()
	l.Lock()
	return l.Unlock
}

type ChatController struct {
	sessions    SessionStore
	users       UserStore
	fanout      *fanout.Engine
	createLocks *lockTable
	appendLocks *lockTable
	logger      *zap.Logger
}

func NewChatController(sessions SessionStore, users UserStore, engine *fanout.Engine, logger *zap.Logger) *ChatController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatController{
		sessions:    sessions,
		users:       users,
		fanout:      engine,
		createLocks: newLockTable(),
		appendLocks: newLockTable(),
		logger:      logger,
	}
}

// GetOrCreateSession resolves the caller's session for a category,
// creating it on first use. Participants always act on their own session;
// admins initiating contact pass the participant explicitly. Creation is
// idempotent: concurrent calls for the same pair converge on one session.
func (c *ChatController) GetOrCreateSession(ctx context.Context, caller types.Caller, category models.Category, participantID *uuid.UUID) (*types.SessionView, error) {
	user, err := verifyCaller(ctx, c.users, caller)
	if err != nil {
		return nil, err
	}
	if !category.Valid() {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "unknown category %q", category)
	}

	target := caller.ID
	switch user.Role {
	case models.RoleAdmin:
		if caller.Impersonating() {
			viewAs := *caller.ViewAs
			return c.lookupOnly(ctx, caller, viewAs, category)
		}
		if participantID == nil {
			return nil, apperrors.Wrap(apperrors.ErrValidation, "admin-initiated contact requires a participant id")
		}
		target = *participantID
	case models.RoleVendor:
		if category != models.CategoryVendorSupport {
			return nil, apperrors.Wrap(apperrors.ErrForbidden, "vendors are scoped to vendor_support")
		}
	default:
		if category != models.CategoryUserSupport {
			return nil, apperrors.Wrap(apperrors.ErrForbidden, "users are scoped to user_support")
		}
	}

	unlock := c.createLocks.lock(target.String() + "/" + string(category))
	defer unlock()

	session, err := c.sessions.FindSession(ctx, target, category)
	if err != nil {
		return nil, err
	}
	if session == nil {
		session, err = c.sessions.CreateSession(ctx, &models.ChatSession{
			Category:      category,
			ParticipantID: target,
			Status:        models.SessionOpen,
		})
		if err != nil {
			return nil, err
		}
		c.logger.Info("chat session created",
			zap.String("session_id", session.ID.String()),
			zap.String("participant_id", target.String()),
			zap.String("category", string(category)),
		)
	}
	return c.sessionView(ctx, caller, session)
}

// lookupOnly serves view-as mode: impersonation never creates anything.
func (c *ChatController) lookupOnly(ctx context.Context, caller types.Caller, participantID uuid.UUID, category models.Category) (*types.SessionView, error) {
	session, err := c.sessions.FindSession(ctx, participantID, category)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "no session for participant %s in %s", participantID, category)
	}
	return c.sessionView(ctx, caller, session)
}

func (c *ChatController) sessionView(ctx context.Context, caller types.Caller, session *models.ChatSession) (*types.SessionView, error) {
	msgs, err := c.sessions.ListMessages(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	projected, err := projector.ProjectMessages(caller, *session, msgs)
	if err != nil {
		return nil, err
	}
	return &types.SessionView{
		ID:              session.ID,
		Category:        session.Category,
		ParticipantID:   session.ParticipantID,
		AssignedAdminID: session.AssignedAdminID,
		Status:          session.Status,
		CreatedAt:       session.CreatedAt,
		Messages:        projected,
	}, nil
}

// SendMessage appends to the session log and fans out notifications inside
// the same operation. Writers to one session are serialized so the
// timestamp sequence is non-decreasing even if the wall clock steps back.
func (c *ChatController) SendMessage(ctx context.Context, caller types.Caller, sessionID uuid.UUID, text string) (*models.ChatMessage, error) {
	if _, err := verifyCaller(ctx, c.users, caller); err != nil {
		return nil, err
	}
	if err := rejectImpersonation(caller); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "message text is empty")
	}

	session, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "session %s", sessionID)
	}
	if !projector.CanReadSession(caller.ID, caller.Role, *session) {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "session %s does not belong to caller", sessionID)
	}

	unlock := c.appendLocks.lock(sessionID.String())
	defer unlock()

	ts := time.Now()
	last, err := c.sessions.LastMessage(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if last != nil && !ts.After(last.Timestamp) {
		// wall clock went backward; bump past the previous message
		ts = last.Timestamp.Add(time.Millisecond)
	}

	msg := &models.ChatMessage{
		ID:         uuid.New(),
		SessionID:  sessionID,
		SenderID:   caller.ID,
		SenderRole: caller.Role,
		Text:       text,
		Timestamp:  ts,
	}
	if err := c.sessions.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	if caller.Role == models.RoleAdmin && session.AssignedAdminID == nil {
		if err := c.sessions.AssignAdmin(ctx, sessionID, caller.ID); err != nil {
			return nil, err
		}
	}
	// Synchronous by contract: a sent message must never be observable
	// without its derived notifications existing. A fan-out failure
	// therefore unwinds the append before the error surfaces, so the
	// caller's retry starts from a clean log.
	if err := c.fanout.OnMessageAppended(ctx, msg, session); err != nil {
		if rerr := c.fanout.OnMessageRevoked(ctx, msg); rerr != nil {
			c.logger.Error("unwinding partial fan-out failed",
				zap.String("message_id", msg.ID.String()),
				zap.Error(rerr),
			)
		}
		if derr := c.sessions.DeleteMessage(ctx, sessionID, msg.ID); derr != nil {
			c.logger.Error("rolling back message append failed",
				zap.String("message_id", msg.ID.String()),
				zap.Error(derr),
			)
		}
		return nil, err
	}
	return msg, nil
}

// GetMessages returns the projected message log for one session.
func (c *ChatController) GetMessages(ctx context.Context, caller types.Caller, sessionID uuid.UUID) ([]types.MessageView, error) {
	if _, err := verifyCaller(ctx, c.users, caller); err != nil {
		return nil, err
	}
	session, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "session %s", sessionID)
	}
	msgs, err := c.sessions.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return projector.ProjectMessages(caller, *session, msgs)
}

// ListAdminSessions is the inbox: every session of a category joined with
// participant display fields, filtered by a free-text search over
// name/email/id. Ordering comes from the store and is stable across polls.
func (c *ChatController) ListAdminSessions(ctx context.Context, caller types.Caller, category models.Category, search string) ([]types.AdminSessionView, error) {
	user, err := verifyCaller(ctx, c.users, caller)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleAdmin {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "admin inbox requires admin role")
	}
	if !category.Valid() {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "unknown category %q", category)
	}

	sessions, err := c.sessions.ListSessions(ctx, category)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ParticipantID)
	}
	participants, err := c.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	var out []types.AdminSessionView
	for _, s := range sessions {
		p := participants[s.ParticipantID]
		name := p.Username
		if p.FullName != nil && *p.FullName != "" {
			name = *p.FullName
		}
		if needle != "" && !matchesSearch(needle, name, p.Email, s.ParticipantID.String()) {
			continue
		}
		view := types.AdminSessionView{
			SessionView: types.SessionView{
				ID:              s.ID,
				Category:        s.Category,
				ParticipantID:   s.ParticipantID,
				AssignedAdminID: s.AssignedAdminID,
				Status:          s.Status,
				CreatedAt:       s.CreatedAt,
			},
			ParticipantName:  name,
			ParticipantEmail: p.Email,
		}
		if last, err := c.sessions.LastMessage(ctx, s.ID); err == nil && last != nil {
			view.LastMessageText = last.Text
			view.LastMessageAt = last.Timestamp.Format(time.RFC3339)
		}
		out = append(out, view)
	}
	return out, nil
}

// CloseSession flips the workflow status; the thread and its history stay.
func (c *ChatController) CloseSession(ctx context.Context, caller types.Caller, sessionID uuid.UUID) error {
	user, err := verifyCaller(ctx, c.users, caller)
	if err != nil {
		return err
	}
	if user.Role != models.RoleAdmin {
		return apperrors.Wrap(apperrors.ErrForbidden, "closing sessions requires admin role")
	}
	if err := rejectImpersonation(caller); err != nil {
		return err
	}
	session, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return apperrors.Wrap(apperrors.ErrNotFound, "session %s", sessionID)
	}
	return c.sessions.CloseSession(ctx, sessionID)
}

func matchesSearch(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
