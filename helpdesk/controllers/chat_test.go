package controllers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"helpdesk/helpdesk/services/fanout"
	"helpdesk/helpdesk/sources/memstore"
	"helpdesk/helpdesk/sources/psql/models"
	"helpdesk/helpdesk/types"
	"helpdesk/helpdesk/utils/apperrors"
)

func seedUser(t *testing.T, store *memstore.Store, username string, role models.Role) types.Caller {
	t.Helper()
	u := &models.User{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return types.Caller{ID: u.ID, Role: role}
}

func newChatController(store *memstore.Store) *ChatController {
	engine := fanout.NewEngine(store, store, zap.NewNop())
	return NewChatController(store, store, engine, zap.NewNop())
}

func TestGetOrCreateSessionIdempotent(t *testing.T) {
	store := memstore.New()
	ctrl := newChatController(store)
	user := seedUser(t, store, "alice", models.RoleUser)
	ctx := context.Background()

	first, err := ctrl.GetOrCreateSession(ctx, user, models.CategoryUserSupport, nil)
	require.NoError(t, err)
	second, err := ctrl.GetOrCreateSession(ctx, user, models.CategoryUserSupport, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	sessions, err := store.ListSessions(ctx, models.CategoryUserSupport)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestGetOrCreateSessionConcurrent(t *testing.T) {
	store := memstore.New()
	ctrl := newChatController(store)
	user := seedUser(t, store, "alice", models.RoleUser)
	ctx := context.Background()

	const workers = 16
	ids := make(chan uuid.UUID, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := ctrl.GetOrCreateSession(ctx, user, models.CategoryUserSupport, nil)
			assert.NoError(t, err)
			if session != nil {
				ids <- session.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	var first uuid.UUID
	for id := range ids {
		if first == uuid.Nil {
			first = id
		}
		assert.Equal(t, first, id)
	}
	sessions, err := store.ListSessions(ctx, models.CategoryUserSupport)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestGetOrCreateSessionRoleScoping(t *testing.T) {
	store := memstore.New()
	ctrl := newChatController(store)
	user := seedUser(t, store, "alice", models.RoleUser)
	vendor := seedUser(t, store, "acme", models.RoleVendor)
	admin := seedUser(t, store, "root", models.RoleAdmin)
	ctx := context.Background()

	_, err := ctrl.GetOrCreateSession(ctx, user, models.CategoryVendorSupport, nil)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = ctrl.GetOrCreateSession(ctx, vendor, models.CategoryUserSupport, nil)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = ctrl.GetOrCreateSession(ctx, user, models.Category("billing"), nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// admins initiating contact must name the participant
	_, err = ctrl.GetOrCreateSession(ctx, admin, models.CategoryUserSupport, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	session, err := ctrl.GetOrCreateSession(ctx, admin, models.CategoryUserSupport, &user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.ParticipantID)
}

func TestGetOrCreateSessionViewAsNeverCreates(t *testing.T) {
	store := memstore.New()
	ctrl := newChatController(store)
	user := seedUser(t, store, "alice", models.RoleUser)
	admin := seedUser(t, store, "root", models.RoleAdmin)
	ctx := context.Background()

	viewing := admin
	viewing.ViewAs = &user.ID

	_, err := ctrl.GetOrCreateSession(ctx, viewing, models.CategoryUserSupport, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	created, err := ctrl.GetOrCreateSession(ctx, user, models.CategoryUserSupport, nil)
	require.NoError(t, err)

	seen, err := ctrl.GetOrCreateSession(ctx, viewing, models.CategoryUserSupport, nil)
	require.NoError(t, err)
	assert.Equal(t, created.ID, seen.ID)
}

func TestSendMessageMonotonicTimestamps(t *testing.T) {
	store := memstore.New()
	ctrl := newChatController(store)
	user := seedUser(t, store, "alice", models.RoleUser)
	seedUser(t, store, "root", models.RoleAdmin)
	ctx := context.Background()

	session, err := ctrl.GetOrCreateSession(ctx, user, models.CategoryUserSupport, nil)
	require.NoError(t, err)

	var prev time.Time
	for i := 0; i < 5; i++ {
		msg, err := ctrl.SendMessage(ctx, user, session.ID, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
		assert.True(t, msg.Timestamp.After(prev), "timestamps must increase")
		prev = msg.Timestamp
	}
}

func TestSendMessageClockBackstep(t *testing.T) {
	store := memstore.New()
	ctrl := newChatController(store)
	user := seedUser(t, store, "alice", models.RoleUser)
	seedUser(t, store, "root", models.RoleAdmin)
	ctx := context.Background()

	session, err := ctrl.GetOrCreateSession(ctx, user, models.CategoryUserSupport, nil)
	require.NoError(t, err)

	// a message stamped in the future simulates the wall clock stepping back
	future := time.Now().Add(time.Hour)
	require.NoError(t, store.AppendMessage(ctx, &models.ChatMessage{
		ID:         uuid.New(),
		SessionID:  session.ID,
		SenderID:   user.ID,
		SenderRole: models.RoleUser,
		Text:       "from the future",
		Timestamp:  future,
	}))

	msg, err := ctrl.SendMessage(ctx, user, session.ID, "after backstep")
	require.NoError(t, err)
	assert.True(t, msg.Timestamp.Equal(future.Add(time.Millisecond)),
		"append after a backstep must land just past the previous message")
}

func TestSendMessageValidation(t *testing.T) {
	store := memstore.New()
	ctrl := newChatController(store)
	user := seedUser(t, store, "alice", models.RoleUser)
	other := seedUser(t, store, "bob", models.RoleUser)
	admin := seedUser(t, store, "root", models.RoleAdmin)
	ctx := context.Background()

	session, err := ctrl.GetOrCreateSession(ctx, user, models.CategoryUserSupport, nil)
	require.NoError(t, err)

	_, err = ctrl.SendMessage(ctx, user, session.ID, "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = ctrl.SendMessage(ctx, user, uuid.New(), "hello")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = ctrl.SendMessage(ctx, other, session.ID, "not mine")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	viewing := admin
	viewing.ViewAs = &user.ID
	_, err = ctrl.SendMessage(ctx, viewing, session.ID, "read-only")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestSendMessageStaleRole(t *testing.T) {
	store := memstore.New()
	ctrl := newChatController(store)
	user := seedUser(t, store, "alice", models.RoleUser)
	ctx := context.Background()

	session, err := ctrl.GetOrCreateSession(ctx, user, models.CategoryUserSupport, nil)
	require.NoError(t, err)

	// demoted admin still holding an admin token
	stale := types.Caller{ID: user.ID, Role: models.RoleAdmin}
	_, err = ctrl.SendMessage(ctx, stale, session.ID, "hello")
	assert.ErrorIs(t, err, apperrors.ErrStaleRole)

	// deleted account
	gone := types.Caller{ID: uuid.New(), Role: models.RoleUser}
	_, err = ctrl.SendMessage(ctx, gone, session.ID, "hello")
	assert.ErrorIs(t, err, apperrors.ErrStaleRole)
}

func TestSendMessageFansOutToAdmins(t *testing.T) {
	store := memstore.New()
	ctrl := newChatController(store)
	user := seedUser(t, store, "alice", models.RoleUser)
	admin1 := seedUser(t, store, "root", models.RoleAdmin)
	admin2 := seedUser(t, store, "root2", models.RoleAdmin)
	ctx := context.Background()

	session, err := ctrl.GetOrCreateSession(ctx, user, models.CategoryUserSupport, nil)
	require.NoError(t, err)
	_, err = ctrl.SendMessage(ctx, user, session.ID, "I need help")
	require.NoError(t, err)

	for _, admin := range []types.Caller{admin1, admin2} {
		notifs, err := store.ListByRecipient(ctx, admin.ID)
		require.NoError(t, err)
		require.Len(t, notifs, 1)
		assert.Equal(t, models.KindChatMessage, notifs[0].Kind)
		assert.Equal(t, "New Message: I need help", notifs[0].Message)
		assert.Equal(t, session.ID, *notifs[0].TargetID)
	}

	// sender gets nothing
	notifs, err := store.ListByRecipient(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, notifs)
}

// failingNotifications simulates a notification store outage mid fan-out:
// creates succeed until the allowance runs out, then error.
type failingNotifications struct {
	*memstore.Store
	mu    sync.Mutex
	calls int
	allow int
}

func (f *failingNotifications) CreateNotification(ctx context.Context, n *models.Notification) (bool, error) {
	f.mu.Lock()
	f.calls++
	failing := f.calls > f.allow
	f.mu.Unlock()
	if failing {
		return false, errors.New("notification store unavailable")
	}
	return f.Store.CreateNotification(ctx, n)
}

func (f *failingNotifications) recover() {
	f.mu.Lock()
	f.allow = int(^uint(0) >> 1)
	f.mu.Unlock()
}

func TestFailedFanOutUnwindsAppend(t *testing.T) {
	store := memstore.New()
	flaky := &failingNotifications{Store: store, allow: 1}
	engine := fanout.NewEngine(flaky, store, zap.NewNop())
	ctrl := NewChatController(store, store, engine, zap.NewNop())
	user := seedUser(t, store, "alice", models.RoleUser)
	admin1 := seedUser(t, store, "root", models.RoleAdmin)
	admin2 := seedUser(t, store, "root2", models.RoleAdmin)
	ctx := context.Background()

	session, err := ctrl.GetOrCreateSession(ctx, user, models.CategoryUserSupport, nil)
	require.NoError(t, err)

	// the second admin's notification fails, so the send must error and
	// leave neither the message nor the first admin's notification behind
	_, err = ctrl.SendMessage(ctx, user, session.ID, "I need help")
	require.Error(t, err)

	msgs, err := store.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	for _, admin := range []types.Caller{admin1, admin2} {
		notifs, err := store.ListByRecipient(ctx, admin.ID)
		require.NoError(t, err)
		assert.Empty(t, notifs)
	}

	// once the store recovers, the retry lands message and fan-out together
	flaky.recover()
	msg, err := ctrl.SendMessage(ctx, user, session.ID, "I need help")
	require.NoError(t, err)

	msgs, err = store.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, msg.ID, msgs[0].ID)
	for _, admin := range []types.Caller{admin1, admin2} {
		notifs, err := store.ListByRecipient(ctx, admin.ID)
		require.NoError(t, err)
		assert.Len(t, notifs, 1)
	}
}

func TestAdminReplyNotifiesParticipantOnly(t *testing.T) {
	store := memstore.New()
	ctrl := newChatController(store)
	user := seedUser(t, store, "alice", models.RoleUser)
	admin := seedUser(t, store, "root", models.RoleAdmin)
	admin2 := seedUser(t, store, "root2", models.RoleAdmin)
	ctx := context.Background()

	session, err := ctrl.GetOrCreateSession(ctx, user, models.CategoryUserSupport, nil)
	require.NoError(t, err)
	_, err = ctrl.SendMessage(ctx, admin, session.ID, "how can I help?")
	require.NoError(t, err)

	notifs, err := store.ListByRecipient(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, "New Message: how can I help?", notifs[0].Message)

	for _, a := range []types.Caller{admin, admin2} {
		notifs, err := store.ListByRecipient(ctx, a.ID)
		require.NoError(t, err)
		assert.Empty(t, notifs)
	}
}

func TestGetMessagesRedactsCrossRoleSenders(t *testing.T) {
	store := memstore.New()
	ctrl := newChatController(store)
	user := seedUser(t, store, "alice", models.RoleUser)
	admin := seedUser(t, store, "root", models.RoleAdmin)
	ctx := context.Background()

	session, err := ctrl.GetOrCreateSession(ctx, user, models.CategoryUserSupport, nil)
	require.NoError(t, err)
	_, err = ctrl.SendMessage(ctx, user, session.ID, "hello")
	require.NoError(t, err)
	_, err = ctrl.SendMessage(ctx, admin, session.ID, "hi there")
	require.NoError(t, err)

	userView, err := ctrl.GetMessages(ctx, user, session.ID)
	require.NoError(t, err)
	require.Len(t, userView, 2)
	assert.Equal(t, user.ID.String(), userView[0].Sender)
	assert.Equal(t, string(models.RoleAdmin), userView[1].Sender)

	adminView, err := ctrl.GetMessages(ctx, admin, session.ID)
	require.NoError(t, err)
	require.Len(t, adminView, 2)
	assert.Equal(t, user.ID.String(), adminView[0].Sender)
	assert.Equal(t, admin.ID.String(), adminView[1].Sender)
}

func TestListAdminSessions(t *testing.T) {
	store := memstore.New()
	ctrl := newChatController(store)
	admin := seedUser(t, store, "root", models.RoleAdmin)
	alice := seedUser(t, store, "alice", models.RoleUser)
	bob := seedUser(t, store, "bob", models.RoleUser)
	ctx := context.Background()

	aliceSession, err := ctrl.GetOrCreateSession(ctx, alice, models.CategoryUserSupport, nil)
	require.NoError(t, err)
	_, err = ctrl.GetOrCreateSession(ctx, bob, models.CategoryUserSupport, nil)
	require.NoError(t, err)
	_, err = ctrl.SendMessage(ctx, alice, aliceSession.ID, "billing question")
	require.NoError(t, err)

	all, err := ctrl.ListAdminSessions(ctx, admin, models.CategoryUserSupport, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := ctrl.ListAdminSessions(ctx, admin, models.CategoryUserSupport, "alice")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, alice.ID, filtered[0].ParticipantID)
	assert.Equal(t, "billing question", filtered[0].LastMessageText)

	_, err = ctrl.ListAdminSessions(ctx, alice, models.CategoryUserSupport, "")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCloseSessionKeepsHistory(t *testing.T) {
	store := memstore.New()
	ctrl := newChatController(store)
	user := seedUser(t, store, "alice", models.RoleUser)
	admin := seedUser(t, store, "root", models.RoleAdmin)
	ctx := context.Background()

	session, err := ctrl.GetOrCreateSession(ctx, user, models.CategoryUserSupport, nil)
	require.NoError(t, err)
	_, err = ctrl.SendMessage(ctx, user, session.ID, "hello")
	require.NoError(t, err)

	require.ErrorIs(t, ctrl.CloseSession(ctx, user, session.ID), apperrors.ErrForbidden)
	require.NoError(t, ctrl.CloseSession(ctx, admin, session.ID))

	stored, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionClosed, stored.Status)

	msgs, err := ctrl.GetMessages(ctx, user, session.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestFirstAdminReplyClaimsSession(t *testing.T) {
	store := memstore.New()
	ctrl := newChatController(store)
	user := seedUser(t, store, "alice", models.RoleUser)
	admin := seedUser(t, store, "root", models.RoleAdmin)
	admin2 := seedUser(t, store, "root2", models.RoleAdmin)
	ctx := context.Background()

	session, err := ctrl.GetOrCreateSession(ctx, user, models.CategoryUserSupport, nil)
	require.NoError(t, err)
	assert.Nil(t, session.AssignedAdminID)

	_, err = ctrl.SendMessage(ctx, admin, session.ID, "on it")
	require.NoError(t, err)
	_, err = ctrl.SendMessage(ctx, admin2, session.ID, "me too")
	require.NoError(t, err)

	stored, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AssignedAdminID)
	assert.Equal(t, admin.ID, *stored.AssignedAdminID)
}

func TestStaleRoleIsNotForbidden(t *testing.T) {
	store := memstore.New()
	ctrl := newChatController(store)
	user := seedUser(t, store, "alice", models.RoleUser)
	ctx := context.Background()

	stale := types.Caller{ID: user.ID, Role: models.RoleVendor}
	_, err := ctrl.GetOrCreateSession(ctx, stale, models.CategoryVendorSupport, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStaleRole))
	assert.False(t, errors.Is(err, apperrors.ErrForbidden))
}
