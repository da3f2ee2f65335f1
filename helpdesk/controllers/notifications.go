// helpdesk/controllers/notifications.go
package controllers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"helpdesk/helpdesk/services/projector"
	"helpdesk/helpdesk/sources/cache"
	"helpdesk/helpdesk/types"
	"helpdesk/helpdesk/utils/apperrors"
)

// unreadTTL matches the ambient badge polling cadence; a stale count lives
// at most one poll cycle.
const unreadTTL = 30 * time.Second

type NotificationController struct {
	notifications NotificationStore
	users         UserStore
	badges        *cache.RedisCache
	logger        *zap.Logger
}

func NewNotificationController(notifications NotificationStore, users UserStore, badges *cache.RedisCache, logger *zap.Logger) *NotificationController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationController{
		notifications: notifications,
		users:         users,
		badges:        badges,
		logger:        logger,
	}
}

// List returns the caller's notification feed, newest first. Admins in
// view-as mode see the impersonated user's feed.
func (c *NotificationController) List(ctx context.Context, caller types.Caller) ([]types.NotificationView, error) {
	if _, err := verifyCaller(ctx, c.users, caller); err != nil {
		return nil, err
	}
	viewerID, _, err := projector.Viewer(caller)
	if err != nil {
		return nil, err
	}
	notifs, err := c.notifications.ListByRecipient(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return projector.ProjectNotifications(caller, notifs)
}

// MarkRead is the only mutation a notification supports besides deletion,
// and it is one-way. Only the owning recipient may flip it.
func (c *NotificationController) MarkRead(ctx context.Context, caller types.Caller, id uuid.UUID) error {
	if _, err := verifyCaller(ctx, c.users, caller); err != nil {
		return err
	}
	if err := rejectImpersonation(caller); err != nil {
		return err
	}
	n, err := c.notifications.GetNotification(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return apperrors.Wrap(apperrors.ErrNotFound, "notification %s", id)
	}
	if n.RecipientID != caller.ID {
		return apperrors.Wrap(apperrors.ErrForbidden, "notification %s does not belong to caller", id)
	}
	if n.IsRead {
		return nil
	}
	if err := c.notifications.MarkRead(ctx, id); err != nil {
		return err
	}
	c.badges.Delete(ctx, unreadKey(caller.ID))
	return nil
}

func (c *NotificationController) Delete(ctx context.Context, caller types.Caller, id uuid.UUID) error {
	if _, err := verifyCaller(ctx, c.users, caller); err != nil {
		return err
	}
	if err := rejectImpersonation(caller); err != nil {
		return err
	}
	n, err := c.notifications.GetNotification(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return apperrors.Wrap(apperrors.ErrNotFound, "notification %s", id)
	}
	if n.RecipientID != caller.ID {
		return apperrors.Wrap(apperrors.ErrForbidden, "notification %s does not belong to caller", id)
	}
	if err := c.notifications.DeleteNotification(ctx, id); err != nil {
		return err
	}
	c.badges.Delete(ctx, unreadKey(caller.ID))
	return nil
}

// UnreadCount backs the ambient badge. Counts are served from redis when
// available and recomputed from the store on a miss.
func (c *NotificationController) UnreadCount(ctx context.Context, caller types.Caller) (int, error) {
	if _, err := verifyCaller(ctx, c.users, caller); err != nil {
		return 0, err
	}
	viewerID, _, err := projector.Viewer(caller)
	if err != nil {
		return 0, err
	}
	if count, ok := c.badges.GetInt(ctx, unreadKey(viewerID)); ok {
		return count, nil
	}
	count, err := c.notifications.CountUnread(ctx, viewerID)
	if err != nil {
		return 0, err
	}
	c.badges.SetInt(ctx, unreadKey(viewerID), count, unreadTTL)
	return count, nil
}

func unreadKey(id uuid.UUID) string {
	return "unread:" + id.String()
}
