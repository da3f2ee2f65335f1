package dao

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"helpdesk/helpdesk/sources/psql/models"
)

type UserDAO struct {
	DB *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{DB: db}
}

func (dao *UserDAO) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := dao.DB.WithContext(ctx).First(&user, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (dao *UserDAO) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := dao.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (dao *UserDAO) CreateUser(ctx context.Context, user *models.User) error {
	return dao.DB.WithContext(ctx).Create(user).Error
}

func (dao *UserDAO) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	err := dao.DB.WithContext(ctx).Where("role = ?", role).Order("username asc").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (dao *UserDAO) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	var users []models.User
	err := dao.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
