package fanout

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"helpdesk/helpdesk/sources/memstore"
	"helpdesk/helpdesk/sources/psql/models"
	"helpdesk/helpdesk/utils/apperrors"
)

func seedAdmin(t *testing.T, store *memstore.Store, username string) uuid.UUID {
	t.Helper()
	u := &models.User{ID: uuid.New(), Username: username, Email: username + "@example.com", Role: models.RoleAdmin}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u.ID
}

func TestFanOutExactlyOncePerRetry(t *testing.T) {
	store := memstore.New()
	engine := NewEngine(store, store, zap.NewNop())
	admin := seedAdmin(t, store, "root")
	ctx := context.Background()

	session := &models.ChatSession{ID: uuid.New(), Category: models.CategoryUserSupport, ParticipantID: uuid.New()}
	msg := &models.ChatMessage{
		ID:         uuid.New(),
		SessionID:  session.ID,
		SenderID:   session.ParticipantID,
		SenderRole: models.RoleUser,
		Text:       "help",
	}

	require.NoError(t, engine.OnMessageAppended(ctx, msg, session))
	// a retried append dedupes on the message id
	require.NoError(t, engine.OnMessageAppended(ctx, msg, session))

	notifs, err := store.ListByRecipient(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, notifs, 1)
}

func TestAdminMessageTargetsParticipant(t *testing.T) {
	store := memstore.New()
	engine := NewEngine(store, store, zap.NewNop())
	admin := seedAdmin(t, store, "root")
	otherAdmin := seedAdmin(t, store, "root2")
	ctx := context.Background()

	participant := uuid.New()
	session := &models.ChatSession{ID: uuid.New(), Category: models.CategoryVendorSupport, ParticipantID: participant}
	msg := &models.ChatMessage{
		ID:         uuid.New(),
		SessionID:  session.ID,
		SenderID:   admin,
		SenderRole: models.RoleAdmin,
		Text:       "your order shipped",
	}
	require.NoError(t, engine.OnMessageAppended(ctx, msg, session))

	notifs, err := store.ListByRecipient(ctx, participant)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.RoleVendor, notifs[0].RecipientRole)

	for _, id := range []uuid.UUID{admin, otherAdmin} {
		notifs, err := store.ListByRecipient(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, notifs)
	}
}

func TestLongMessagePreviewTruncated(t *testing.T) {
	store := memstore.New()
	engine := NewEngine(store, store, zap.NewNop())
	admin := seedAdmin(t, store, "root")
	ctx := context.Background()

	long := strings.Repeat("x", 200)
	session := &models.ChatSession{ID: uuid.New(), Category: models.CategoryUserSupport, ParticipantID: uuid.New()}
	msg := &models.ChatMessage{
		ID:         uuid.New(),
		SessionID:  session.ID,
		SenderID:   session.ParticipantID,
		SenderRole: models.RoleUser,
		Text:       long,
	}
	require.NoError(t, engine.OnMessageAppended(ctx, msg, session))

	notifs, err := store.ListByRecipient(ctx, admin)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, "New Message: "+strings.Repeat("x", 80)+"...", notifs[0].Message)
}

func TestMultiByteMessagePreviewStaysValid(t *testing.T) {
	store := memstore.New()
	engine := NewEngine(store, store, zap.NewNop())
	admin := seedAdmin(t, store, "root")
	ctx := context.Background()

	// 120 bytes of three-byte runes, so the byte cap lands mid-rune
	long := strings.Repeat("日", 40)
	session := &models.ChatSession{ID: uuid.New(), Category: models.CategoryUserSupport, ParticipantID: uuid.New()}
	msg := &models.ChatMessage{
		ID:         uuid.New(),
		SessionID:  session.ID,
		SenderID:   session.ParticipantID,
		SenderRole: models.RoleUser,
		Text:       long,
	}
	require.NoError(t, engine.OnMessageAppended(ctx, msg, session))

	notifs, err := store.ListByRecipient(ctx, admin)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.True(t, utf8.ValidString(notifs[0].Message))
	assert.Equal(t, "New Message: "+strings.Repeat("日", 26)+"...", notifs[0].Message)
}

func TestVendorDecisionNotifications(t *testing.T) {
	store := memstore.New()
	engine := NewEngine(store, store, zap.NewNop())
	ctx := context.Background()
	vendor := uuid.New()

	approved := &models.VendorApplication{
		ID:           uuid.New(),
		VendorID:     vendor,
		BusinessName: "Acme Corp",
		Status:       models.ApplicationApproved,
	}
	require.NoError(t, engine.OnVendorDecision(ctx, approved))

	rejected := &models.VendorApplication{
		ID:              uuid.New(),
		VendorID:        vendor,
		BusinessName:    "Acme Corp",
		Status:          models.ApplicationRejected,
		RejectionReason: "missing documents",
	}
	require.NoError(t, engine.OnVendorDecision(ctx, rejected))

	notifs, err := store.ListByRecipient(ctx, vendor)
	require.NoError(t, err)
	require.Len(t, notifs, 2)
	byKind := map[models.NotificationKind]models.Notification{}
	for _, n := range notifs {
		byKind[n.Kind] = n
	}
	assert.Equal(t, models.NotificationSuccess, byKind[models.KindVendorApproved].Type)
	assert.Contains(t, byKind[models.KindVendorApproved].Message, `"Acme Corp"`)
	assert.Equal(t, models.NotificationAlert, byKind[models.KindVendorRejected].Type)
	assert.Contains(t, byKind[models.KindVendorRejected].Message, "missing documents")
}

func TestUndecidedApplicationRejected(t *testing.T) {
	store := memstore.New()
	engine := NewEngine(store, store, zap.NewNop())
	pending := &models.VendorApplication{
		ID:       uuid.New(),
		VendorID: uuid.New(),
		Status:   models.ApplicationPending,
	}
	err := engine.OnVendorDecision(context.Background(), pending)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
