// helpdesk/controllers/user.go
package controllers

import (
	"context"

	"github.com/google/uuid"

	"helpdesk/helpdesk/sources/psql/models"
	"helpdesk/helpdesk/types"
	"helpdesk/helpdesk/utils/apperrors"
)

type UserController struct {
	users UserStore
}

func NewUserController(users UserStore) *UserController {
	return &UserController{users: users}
}

func (c *UserController) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := c.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "user %s", id)
	}
	return user, nil
}

func (c *UserController) CreateUser(ctx context.Context, req types.CreateUserRequest) (*models.User, error) {
	if req.Username == "" || req.Email == "" {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "username and email are required")
	}
	role := models.Role(req.Role)
	if req.Role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "unknown role %q", req.Role)
	}
	existing, err := c.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Wrap(apperrors.ErrConflict, "username %q is taken", req.Username)
	}
	user := &models.User{
		ID:       uuid.New(),
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     role,
	}
	if err := c.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
