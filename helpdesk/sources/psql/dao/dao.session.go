// helpdesk/sources/psql/dao/dao.session.go
package dao

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"helpdesk/helpdesk/sources/psql/models"
)

type SessionDAO struct {
	DB *gorm.DB
}

func NewSessionDAO(db *gorm.DB) *SessionDAO {
	return &SessionDAO{DB: db}
}

func (dao *SessionDAO) GetSession(ctx context.Context, id uuid.UUID) (*models.ChatSession, error) {
	var session models.ChatSession
	err := dao.DB.WithContext(ctx).First(&session, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (dao *SessionDAO) FindSession(ctx context.Context, participantID uuid.UUID, category models.Category) (*models.ChatSession, error) {
	var session models.ChatSession
	err := dao.DB.WithContext(ctx).
		Where("participant_id = ? AND category = ?", participantID, category).
		First(&session).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateSession inserts the row unless the (participant, category) pair
// already has one. The unique index absorbs the concurrent-create race:
// the loser's insert is a no-op and both callers read back the same row.
func (dao *SessionDAO) CreateSession(ctx context.Context, session *models.ChatSession) (*models.ChatSession, error) {
	err := dao.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "participant_id"}, {Name: "category"}},
			DoNothing: true,
		}).
		Create(session).Error
	if err != nil {
		return nil, err
	}
	return dao.FindSession(ctx, session.ParticipantID, session.Category)
}

func (dao *SessionDAO) ListSessions(ctx context.Context, category models.Category) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	// created_at,id keeps inbox ordering stable across repeated polls
	err := dao.DB.WithContext(ctx).
		Where("category = ?", category).
		Order("created_at asc, id asc").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (dao *SessionDAO) CloseSession(ctx context.Context, id uuid.UUID) error {
	return dao.DB.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("id = ?", id).
		Update("status", models.SessionClosed).Error
}

// AssignAdmin claims an unowned session for the first admin who replies.
// The IS NULL guard keeps a concurrent second reply from reassigning it.
func (dao *SessionDAO) AssignAdmin(ctx context.Context, sessionID, adminID uuid.UUID) error {
	return dao.DB.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("id = ? AND assigned_admin_id IS NULL", sessionID).
		Update("assigned_admin_id", adminID).Error
}

func (dao *SessionDAO) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	return dao.DB.WithContext(ctx).Create(msg).Error
}

// DeleteMessage unwinds an append whose fan-out failed. The message log is
// append-only at the API surface; this is the one internal exception.
func (dao *SessionDAO) DeleteMessage(ctx context.Context, sessionID, messageID uuid.UUID) error {
	return dao.DB.WithContext(ctx).
		Where("id = ? AND session_id = ?", messageID, sessionID).
		Delete(&models.ChatMessage{}).Error
}

func (dao *SessionDAO) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := dao.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp asc, id asc").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (dao *SessionDAO) LastMessage(ctx context.Context, sessionID uuid.UUID) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	err := dao.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp desc, id desc").
		First(&msg).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
