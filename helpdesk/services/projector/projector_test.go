package projector

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpdesk/helpdesk/sources/psql/models"
	"helpdesk/helpdesk/types"
	"helpdesk/helpdesk/utils/apperrors"
)

func TestVerifyRole(t *testing.T) {
	caller := types.Caller{ID: uuid.New(), Role: models.RoleAdmin}
	assert.NoError(t, VerifyRole(caller, models.RoleAdmin))
	assert.ErrorIs(t, VerifyRole(caller, models.RoleUser), apperrors.ErrStaleRole)
}

func TestViewerResolution(t *testing.T) {
	target := uuid.New()

	admin := types.Caller{ID: uuid.New(), Role: models.RoleAdmin, ViewAs: &target}
	id, role, err := Viewer(admin)
	require.NoError(t, err)
	assert.Equal(t, target, id)
	assert.Equal(t, models.RoleUser, role)

	user := types.Caller{ID: uuid.New(), Role: models.RoleUser, ViewAs: &target}
	_, _, err = Viewer(user)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	plain := types.Caller{ID: uuid.New(), Role: models.RoleVendor}
	id, role, err = Viewer(plain)
	require.NoError(t, err)
	assert.Equal(t, plain.ID, id)
	assert.Equal(t, models.RoleVendor, role)
}

func TestCanReadSession(t *testing.T) {
	owner := uuid.New()
	session := models.ChatSession{
		ID:            uuid.New(),
		Category:      models.CategoryVendorSupport,
		ParticipantID: owner,
	}

	assert.True(t, CanReadSession(uuid.New(), models.RoleAdmin, session))
	assert.True(t, CanReadSession(owner, models.RoleVendor, session))
	assert.False(t, CanReadSession(uuid.New(), models.RoleVendor, session))
	// a vendor session is invisible even to its owner acting as plain user
	userSession := session
	userSession.Category = models.CategoryUserSupport
	assert.True(t, CanReadSession(owner, models.RoleUser, userSession))
}

func TestProjectMessagesRedaction(t *testing.T) {
	user := uuid.New()
	admin := uuid.New()
	session := models.ChatSession{
		ID:            uuid.New(),
		Category:      models.CategoryUserSupport,
		ParticipantID: user,
	}
	msgs := []models.ChatMessage{
		{ID: uuid.New(), SessionID: session.ID, SenderID: user, SenderRole: models.RoleUser, Text: "hello"},
		{ID: uuid.New(), SessionID: session.ID, SenderID: admin, SenderRole: models.RoleAdmin, Text: "hi"},
	}

	// the participant sees their own id and a bare role tag for the admin
	out, err := ProjectMessages(types.Caller{ID: user, Role: models.RoleUser}, session, msgs)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, user.String(), out[0].Sender)
	assert.Equal(t, "admin", out[1].Sender)

	// admins see full identity everywhere
	out, err = ProjectMessages(types.Caller{ID: admin, Role: models.RoleAdmin}, session, msgs)
	require.NoError(t, err)
	assert.Equal(t, user.String(), out[0].Sender)
	assert.Equal(t, admin.String(), out[1].Sender)

	// view-as drops the admin down to the participant's redacted view
	viewing := types.Caller{ID: admin, Role: models.RoleAdmin, ViewAs: &user}
	out, err = ProjectMessages(viewing, session, msgs)
	require.NoError(t, err)
	assert.Equal(t, user.String(), out[0].Sender)
	assert.Equal(t, "admin", out[1].Sender)
}

func TestProjectMessagesForbidden(t *testing.T) {
	session := models.ChatSession{
		ID:            uuid.New(),
		Category:      models.CategoryUserSupport,
		ParticipantID: uuid.New(),
	}
	stranger := types.Caller{ID: uuid.New(), Role: models.RoleUser}
	_, err := ProjectMessages(stranger, session, nil)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestProjectSessionsFiltering(t *testing.T) {
	vendor := uuid.New()
	sessions := []models.ChatSession{
		{ID: uuid.New(), Category: models.CategoryVendorSupport, ParticipantID: vendor},
		{ID: uuid.New(), Category: models.CategoryVendorSupport, ParticipantID: uuid.New()},
		{ID: uuid.New(), Category: models.CategoryUserSupport, ParticipantID: uuid.New()},
	}

	out, err := ProjectSessions(types.Caller{ID: vendor, Role: models.RoleVendor}, sessions)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, vendor, out[0].ParticipantID)

	out, err = ProjectSessions(types.Caller{ID: uuid.New(), Role: models.RoleAdmin}, sessions)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

// Every projected notification must belong to the viewer, whatever mix of
// recipients is in the table.
func TestProjectNotificationsIsolation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	recipients := make([]uuid.UUID, 5)
	for i := range recipients {
		recipients[i] = uuid.New()
	}

	var notifs []models.Notification
	perRecipient := make(map[uuid.UUID]int)
	for i := 0; i < 100; i++ {
		r := recipients[rng.Intn(len(recipients))]
		notifs = append(notifs, models.Notification{
			ID:          uuid.New(),
			RecipientID: r,
			Type:        models.NotificationInfo,
			Kind:        models.KindChatMessage,
			Message:     "hello",
		})
		perRecipient[r]++
	}

	for _, r := range recipients {
		out, err := ProjectNotifications(types.Caller{ID: r, Role: models.RoleUser}, notifs)
		require.NoError(t, err)
		assert.Len(t, out, perRecipient[r])
	}
}
