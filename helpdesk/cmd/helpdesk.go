// Command-line watcher for the helpdesk chat and notification feeds.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"helpdesk/helpdesk/sources/psql/models"
	"helpdesk/helpdesk/syncclient"
	"helpdesk/helpdesk/utils/color"
	httputils "helpdesk/helpdesk/utils/http"
	"helpdesk/helpdesk/utils/logging"
)

func main() {
	logging.InitLogger()

	args := os.Args[1:]
	if len(args) < 2 || args[0] != "watch" {
		fmt.Println("helpdesk CLI usage:")
		fmt.Println("  helpdesk watch <username>   # Watch your support chat and notifications")
		os.Exit(1)
	}
	username := args[1]

	cfg, err := syncclient.LoadConfig(os.Getenv("SYNC_CONFIG"))
	if err != nil {
		color.ColorError("bad sync config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := syncclient.NewFetcher(cfg.BaseURL)
	loginCtx, loginCancel := context.WithTimeout(ctx, 10*time.Second)
	defer loginCancel()
	if err := fetcher.Login(loginCtx, username); err != nil {
		color.ColorError("login failed: %v\n", err)
		os.Exit(1)
	}

	var me struct {
		ID uuid.UUID `json:"id"`
	}
	if err := httputils.GetJSON(loginCtx, fetcher.Client, cfg.BaseURL+"/users/me", fetcher.Token, &me); err != nil {
		color.ColorError("profile fetch failed: %v\n", err)
		os.Exit(1)
	}

	session, err := fetcher.EnsureSession(loginCtx, models.CategoryUserSupport)
	if err != nil {
		color.ColorError("session open failed: %v\n", err)
		os.Exit(1)
	}
	logging.AppLogger.Info("watching session",
		zap.String("session_id", session.ID.String()),
		zap.String("category", string(session.Category)),
	)

	chatPoller := syncclient.NewPoller(fetcher.Fetch, logging.AppLogger)
	notifPoller := syncclient.NewPoller(fetcher.FetchNotifications, logging.AppLogger)
	go chatPoller.Run(ctx, cfg.ChatInterval)
	go notifPoller.Run(ctx, cfg.NotificationInterval)

	go renderLoop(ctx, chatPoller, notifPoller, cfg.ChatInterval)

	color.ColorSuccess("Connected as %s. Type a message and press enter; 'exit' to quit.\n\n", username)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		color.ColorPrompt("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		if line == "" {
			continue
		}
		sendCtx, sendCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := fetcher.SendMessage(sendCtx, chatPoller, me.ID, line); err != nil {
			color.ColorWarning("send failed, message queued locally: %v\n", err)
		}
		sendCancel()
	}
}

// renderLoop prints messages and notifications the snapshots haven't shown
// yet. The pollers own fetching; this only reads published snapshots.
func renderLoop(ctx context.Context, chat, notifs *syncclient.Poller, every time.Duration) {
	seenMsgs := map[uuid.UUID]bool{}
	seenNotifs := map[uuid.UUID]bool{}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		snap := chat.Snapshot()
		if snap.PermissionChanged {
			color.ColorAlert("\nYour access changed. Please log in again.\n")
			return
		}
		for _, m := range snap.Messages {
			if seenMsgs[m.ID] {
				continue
			}
			seenMsgs[m.ID] = true
			color.ColorInfo("[%s] %s: %s\n", m.Timestamp.Format("15:04:05"), m.Sender, m.Text)
		}
		for _, p := range snap.Pending {
			color.ColorWarning("(sending) %s\n", p.Text)
		}

		nsnap := notifs.Snapshot()
		for _, n := range nsnap.Notifications {
			if seenNotifs[n.ID] || n.IsRead {
				continue
			}
			seenNotifs[n.ID] = true
			switch n.Type {
			case models.NotificationAlert:
				color.ColorAlert("!! %s\n", n.Message)
			case models.NotificationSuccess:
				color.ColorSuccess("** %s\n", n.Message)
			default:
				color.ColorInfo("-- %s\n", n.Message)
			}
		}
		if nsnap.Unread > 0 {
			color.ColorInfo("(%d unread)\n", nsnap.Unread)
		}
	}
}
