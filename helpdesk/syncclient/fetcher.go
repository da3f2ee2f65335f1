// helpdesk/syncclient/fetcher.go
package syncclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"helpdesk/helpdesk/sources/psql/models"
	"helpdesk/helpdesk/types"
	httputils "helpdesk/helpdesk/utils/http"
)

// Fetcher talks to the helpdesk HTTP API on behalf of one logged-in user.
type Fetcher struct {
	BaseURL   string
	Client    *http.Client
	Token     string
	SessionID uuid.UUID
}

func NewFetcher(baseURL string) *Fetcher {
	return &Fetcher{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Login obtains a token for the username, creating the account on first use.
func (f *Fetcher) Login(ctx context.Context, username string) error {
	var resp struct {
		Token string `json:"token"`
	}
	req := types.LoginRequest{Username: username}
	if err := httputils.PostJSON(ctx, f.Client, f.BaseURL+"/auth/login", "", req, &resp); err != nil {
		return err
	}
	f.Token = resp.Token
	return nil
}

// EnsureSession resolves (creating if needed) the caller's session for the
// category and pins it for subsequent fetch rounds.
func (f *Fetcher) EnsureSession(ctx context.Context, category models.Category) (*types.SessionView, error) {
	var session types.SessionView
	url := fmt.Sprintf("%s/chat/session?category=%s", f.BaseURL, category)
	if err := httputils.GetJSON(ctx, f.Client, url, f.Token, &session); err != nil {
		return nil, err
	}
	f.SessionID = session.ID
	return &session, nil
}

// Fetch performs one full round: session messages (when a session is
// pinned), the notification inbox, and the unread count.
func (f *Fetcher) Fetch(ctx context.Context) (*ServerView, error) {
	view := &ServerView{}
	if f.SessionID != uuid.Nil {
		url := fmt.Sprintf("%s/chat/session/%s/messages", f.BaseURL, f.SessionID)
		if err := httputils.GetJSON(ctx, f.Client, url, f.Token, &view.Messages); err != nil {
			return nil, err
		}
	}
	if err := httputils.GetJSON(ctx, f.Client, f.BaseURL+"/notifications/", f.Token, &view.Notifications); err != nil {
		return nil, err
	}
	var unread struct {
		Unread int `json:"unread"`
	}
	if err := httputils.GetJSON(ctx, f.Client, f.BaseURL+"/notifications/unread-count", f.Token, &unread); err != nil {
		return nil, err
	}
	view.Unread = unread.Unread
	return view, nil
}

// FetchNotifications is the lighter round used on the slower ambient tick.
func (f *Fetcher) FetchNotifications(ctx context.Context) (*ServerView, error) {
	view := &ServerView{}
	if err := httputils.GetJSON(ctx, f.Client, f.BaseURL+"/notifications/", f.Token, &view.Notifications); err != nil {
		return nil, err
	}
	var unread struct {
		Unread int `json:"unread"`
	}
	if err := httputils.GetJSON(ctx, f.Client, f.BaseURL+"/notifications/unread-count", f.Token, &unread); err != nil {
		return nil, err
	}
	view.Unread = unread.Unread
	return view, nil
}

// SendMessage posts to the pinned session and registers the text as a
// pending entry on the poller. The pending entry stays visible if the POST
// fails so the UI can mark it unsent.
func (f *Fetcher) SendMessage(ctx context.Context, p *Poller, senderID uuid.UUID, text string) error {
	p.AddPending(PendingMessage{
		SessionID: f.SessionID,
		SenderID:  senderID,
		Text:      text,
		SentAt:    time.Now(),
	})
	url := fmt.Sprintf("%s/chat/session/%s/message", f.BaseURL, f.SessionID)
	return httputils.PostJSON(ctx, f.Client, url, f.Token, types.SendMessageRequest{Text: text}, nil)
}

// MarkRead flips one notification to read.
func (f *Fetcher) MarkRead(ctx context.Context, id uuid.UUID) error {
	url := fmt.Sprintf("%s/notifications/%s/read", f.BaseURL, id)
	return httputils.PutJSON(ctx, f.Client, url, f.Token, nil, nil)
}
