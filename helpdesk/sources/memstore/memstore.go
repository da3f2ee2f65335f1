// Package memstore is the in-memory counterpart of the psql DAOs. It backs
// the server when no database is configured and is the store used by unit
// tests. Method contracts mirror the DAOs exactly: lookups return nil, nil
// when the row is missing, creates assign IDs and timestamps.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"helpdesk/helpdesk/sources/psql/models"
)

type Store struct {
	mu            sync.Mutex
	users         map[uuid.UUID]models.User
	sessions      map[uuid.UUID]models.ChatSession
	messages      map[uuid.UUID][]models.ChatMessage // by session id
	notifications map[uuid.UUID]models.Notification
	applications  map[uuid.UUID]models.VendorApplication
}

func New() *Store {
	return &Store{
		users:         make(map[uuid.UUID]models.User),
		sessions:      make(map[uuid.UUID]models.ChatSession),
		messages:      make(map[uuid.UUID][]models.ChatMessage),
		notifications: make(map[uuid.UUID]models.Notification),
		applications:  make(map[uuid.UUID]models.VendorApplication),
	}
}

// --- users ---

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Store) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

// --- sessions ---

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*models.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *Store) FindSession(ctx context.Context, participantID uuid.UUID, category models.Category) (*models.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(participantID, category), nil
}

func (s *Store) findLocked(participantID uuid.UUID, category models.Category) *models.ChatSession {
	for _, sess := range s.sessions {
		if sess.ParticipantID == participantID && sess.Category == category {
			sess := sess
			return &sess
		}
	}
	return nil
}

// CreateSession keeps the (participant, category) pair unique under the
// store lock, the same way the DB unique index does for the psql DAO.
func (s *Store) CreateSession(ctx context.Context, session *models.ChatSession) (*models.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.findLocked(session.ParticipantID, session.Category); existing != nil {
		return existing, nil
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.Status == "" {
		session.Status = models.SessionOpen
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	s.sessions[session.ID] = *session
	out := *session
	return &out, nil
}

func (s *Store) ListSessions(ctx context.Context, category models.Category) ([]models.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatSession
	for _, sess := range s.sessions {
		if sess.Category == category {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return strings.Compare(out[i].ID.String(), out[j].ID.String()) < 0
	})
	return out, nil
}

func (s *Store) CloseSession(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	sess.Status = models.SessionClosed
	s.sessions[id] = sess
	return nil
}

func (s *Store) AssignAdmin(ctx context.Context, sessionID, adminID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.AssignedAdminID != nil {
		return nil
	}
	sess.AssignedAdminID = &adminID
	s.sessions[sessionID] = sess
	return nil
}

func (s *Store) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], *msg)
	return nil
}

// DeleteMessage unwinds an append whose fan-out failed, mirroring the psql
// DAO's rollback-only delete.
func (s *Store) DeleteMessage(ctx context.Context, sessionID, messageID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[sessionID]
	for i, m := range msgs {
		if m.ID == messageID {
			s.messages[sessionID] = append(msgs[:i:i], msgs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[sessionID]
	out := make([]models.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *Store) LastMessage(ctx context.Context, sessionID uuid.UUID) (*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[sessionID]
	if len(msgs) == 0 {
		return nil, nil
	}
	last := msgs[len(msgs)-1]
	return &last, nil
}

// --- notifications ---

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.SourceMessageID != nil {
		for _, existing := range s.notifications {
			if existing.SourceMessageID != nil &&
				*existing.SourceMessageID == *n.SourceMessageID &&
				existing.RecipientID == n.RecipientID {
				return false, nil
			}
		}
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	s.notifications[n.ID] = *n
	return true, nil
}

func (s *Store) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (s *Store) ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return strings.Compare(out[i].ID.String(), out[j].ID.String()) > 0
	})
	return out, nil
}

func (s *Store) MarkRead(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil
	}
	n.IsRead = true
	s.notifications[id] = n
	return nil
}

func (s *Store) DeleteBySource(ctx context.Context, sourceMessageID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, n := range s.notifications {
		if n.SourceMessageID != nil && *n.SourceMessageID == sourceMessageID {
			delete(s.notifications, id)
		}
	}
	return nil
}

func (s *Store) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notifications, id)
	return nil
}

func (s *Store) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// --- vendor applications ---

func (s *Store) CreateApplication(ctx context.Context, app *models.VendorApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	if app.Status == "" {
		app.Status = models.ApplicationPending
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now()
	}
	s.applications[app.ID] = *app
	return nil
}

func (s *Store) GetApplication(ctx context.Context, id uuid.UUID) (*models.VendorApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[id]
	if !ok {
		return nil, nil
	}
	return &app, nil
}

func (s *Store) ListApplications(ctx context.Context) ([]models.VendorApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.VendorApplication
	for _, app := range s.applications {
		out = append(out, app)
	}
	sortApplications(out)
	return out, nil
}

func (s *Store) ListApplicationsByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.VendorApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.VendorApplication
	for _, app := range s.applications {
		if app.VendorID == vendorID {
			out = append(out, app)
		}
	}
	sortApplications(out)
	return out, nil
}

func sortApplications(apps []models.VendorApplication) {
	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].CreatedAt.Before(apps[j].CreatedAt)
		}
		return strings.Compare(apps[i].ID.String(), apps[j].ID.String()) < 0
	})
}

// DecideApplication applies the pending-status guard under the store lock,
// matching the psql DAO's guarded UPDATE. The losing concurrent decision
// reports decided=false.
func (s *Store) DecideApplication(ctx context.Context, id uuid.UUID, status models.ApplicationStatus, reason string, decidedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[id]
	if !ok || app.Status != models.ApplicationPending {
		return false, nil
	}
	app.Status = status
	app.RejectionReason = reason
	app.DecidedAt = &decidedAt
	s.applications[id] = app
	return true, nil
}

func (s *Store) HasPendingApplication(ctx context.Context, vendorID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, app := range s.applications {
		if app.VendorID == vendorID && app.Status == models.ApplicationPending {
			return true, nil
		}
	}
	return false, nil
}
