// helpdesk/sources/psql/dao/dao.notification.go
package dao

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"helpdesk/helpdesk/sources/psql/models"
)

type NotificationDAO struct {
	DB *gorm.DB
}

func NewNotificationDAO(db *gorm.DB) *NotificationDAO {
	return &NotificationDAO{DB: db}
}

// CreateNotification is idempotent per (source_message_id, recipient_id):
// a fan-out retry for the same message hits the unique index and reports
// created=false instead of duplicating the row.
func (dao *NotificationDAO) CreateNotification(ctx context.Context, n *models.Notification) (bool, error) {
	res := dao.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_message_id"}, {Name: "recipient_id"}},
			DoNothing: true,
		}).
		Create(n)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (dao *NotificationDAO) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	err := dao.DB.WithContext(ctx).First(&n, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (dao *NotificationDAO) ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.Notification, error) {
	var notifs []models.Notification
	err := dao.DB.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at desc, id desc").
		Find(&notifs).Error
	if err != nil {
		return nil, err
	}
	return notifs, nil
}

// MarkRead is one-way: there is no path back to unread.
func (dao *NotificationDAO) MarkRead(ctx context.Context, id uuid.UUID) error {
	return dao.DB.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

// DeleteBySource removes every notification derived from one message. Only
// the fan-out rollback path calls it; recipients cannot reach it.
func (dao *NotificationDAO) DeleteBySource(ctx context.Context, sourceMessageID uuid.UUID) error {
	return dao.DB.WithContext(ctx).
		Where("source_message_id = ?", sourceMessageID).
		Delete(&models.Notification{}).Error
}

func (dao *NotificationDAO) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	return dao.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Notification{}).Error
}

func (dao *NotificationDAO) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	var count int64
	err := dao.DB.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
