package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpdesk/helpdesk/sources/psql/models"
)

func TestCreateSessionUniquePerPair(t *testing.T) {
	store := New()
	ctx := context.Background()
	participant := uuid.New()

	const workers = 32
	ids := make(chan uuid.UUID, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := store.CreateSession(ctx, &models.ChatSession{
				ParticipantID: participant,
				Category:      models.CategoryUserSupport,
			})
			assert.NoError(t, err)
			ids <- s.ID
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

func TestCreateNotificationDedupe(t *testing.T) {
	store := New()
	ctx := context.Background()
	msgID := uuid.New()
	recipient := uuid.New()

	n := func() *models.Notification {
		return &models.Notification{
			RecipientID:     recipient,
			Type:            models.NotificationInfo,
			Kind:            models.KindChatMessage,
			Message:         "New Message: hi",
			SourceMessageID: &msgID,
		}
	}

	created, err := store.CreateNotification(ctx, n())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.CreateNotification(ctx, n())
	require.NoError(t, err)
	assert.False(t, created)

	// same message, different recipient is a distinct row
	other := n()
	other.RecipientID = uuid.New()
	created, err = store.CreateNotification(ctx, other)
	require.NoError(t, err)
	assert.True(t, created)

	count, err := store.CountUnread(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDecideApplicationSingleWinner(t *testing.T) {
	store := New()
	ctx := context.Background()
	app := &models.VendorApplication{VendorID: uuid.New(), BusinessName: "Acme", Status: models.ApplicationPending}
	require.NoError(t, store.CreateApplication(ctx, app))

	const workers = 8
	results := make(chan bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decided, err := store.DecideApplication(ctx, app.ID, models.ApplicationApproved, "", time.Now())
			assert.NoError(t, err)
			results <- decided
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for decided := range results {
		if decided {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestLookupsReturnNilNilWhenMissing(t *testing.T) {
	store := New()
	ctx := context.Background()

	u, err := store.GetUserByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, u)

	s, err := store.GetSession(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, s)

	n, err := store.GetNotification(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, n)

	a, err := store.GetApplication(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestListMessagesKeepsAppendOrder(t *testing.T) {
	store := New()
	ctx := context.Background()
	sessionID := uuid.New()

	for i, text := range []string{"one", "two", "three"} {
		require.NoError(t, store.AppendMessage(ctx, &models.ChatMessage{
			SessionID: sessionID,
			Text:      text,
			Timestamp: time.Now().Add(time.Duration(i) * time.Millisecond),
		}))
	}
	msgs, err := store.ListMessages(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Text)
	assert.Equal(t, "three", msgs[2].Text)

	last, err := store.LastMessage(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "three", last.Text)
}
