// Package syncclient keeps a local snapshot of the caller's chat session and
// notification inbox in step with the server by periodic polling. The server
// log is the source of truth; locally sent messages are held as pending
// entries until a poll observes them in the server's message list.
package syncclient

import (
	"time"

	"github.com/google/uuid"

	"helpdesk/helpdesk/types"
)

// retireSkew absorbs small clock drift between the client's send time and
// the timestamp the server assigned to the stored message.
const retireSkew = 2 * time.Second

// ServerView is the result of one successful fetch round.
type ServerView struct {
	Messages      []types.MessageView
	Notifications []types.NotificationView
	Unread        int
}

// PendingMessage is a locally sent message not yet observed in a server
// fetch. It renders in the UI immediately and retires on first match.
type PendingMessage struct {
	SessionID uuid.UUID
	SenderID  uuid.UUID
	Text      string
	SentAt    time.Time
}

// Snapshot is the immutable client-side state handed to the UI. A failed
// poll never replaces a snapshot; readers always see the last good merge.
type Snapshot struct {
	Messages      []types.MessageView
	Notifications []types.NotificationView
	Pending       []PendingMessage
	Unread        int

	// PermissionChanged flips when the server answered with a role or
	// access error. The caller must re-authenticate; polling halts.
	PermissionChanged bool
	LastSync          time.Time
}

// merge folds a fetched view into the previous snapshot and retires any
// pending message the server now reflects. Server lists replace local ones
// wholesale since the server orders them authoritatively.
func merge(prev Snapshot, view *ServerView, now time.Time) Snapshot {
	next := Snapshot{
		Messages:      view.Messages,
		Notifications: view.Notifications,
		Unread:        view.Unread,
		LastSync:      now,
	}
	for _, p := range prev.Pending {
		if !retired(p, view.Messages) {
			next.Pending = append(next.Pending, p)
		}
	}
	return next
}

// retired reports whether a server message accounts for the pending entry.
// The viewer is always the sender of its own pending messages, so the
// projected Sender field carries the full id rather than a role tag.
func retired(p PendingMessage, msgs []types.MessageView) bool {
	sender := p.SenderID.String()
	cutoff := p.SentAt.Add(-retireSkew)
	for _, m := range msgs {
		if m.SessionID == p.SessionID && m.Sender == sender && m.Text == p.Text && !m.Timestamp.Before(cutoff) {
			return true
		}
	}
	return false
}
