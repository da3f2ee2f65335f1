// helpdesk/controllers/applications.go
package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"helpdesk/helpdesk/services/fanout"
	"helpdesk/helpdesk/sources/psql/models"
	"helpdesk/helpdesk/types"
	"helpdesk/helpdesk/utils/apperrors"
)

type ApplicationController struct {
	applications ApplicationStore
	users        UserStore
	fanout       *fanout.Engine
	logger       *zap.Logger
}

func NewApplicationController(applications ApplicationStore, users UserStore, engine *fanout.Engine, logger *zap.Logger) *ApplicationController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationController{
		applications: applications,
		users:        users,
		fanout:       engine,
		logger:       logger,
	}
}

// Submit creates a fresh pending application. After a rejection the vendor
// submits again and gets a new row; decided rows are history and never
// mutated. A second concurrent pending application is refused.
func (c *ApplicationController) Submit(ctx context.Context, caller types.Caller, businessName string) (*models.VendorApplication, error) {
	user, err := verifyCaller(ctx, c.users, caller)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleVendor {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "only vendors submit applications")
	}
	if err := rejectImpersonation(caller); err != nil {
		return nil, err
	}
	if strings.TrimSpace(businessName) == "" {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "business name is empty")
	}
	pending, err := c.applications.HasPendingApplication(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperrors.Wrap(apperrors.ErrConflict, "vendor %s already has a pending application", caller.ID)
	}
	app := &models.VendorApplication{
		ID:           uuid.New(),
		VendorID:     caller.ID,
		BusinessName: businessName,
		Status:       models.ApplicationPending,
	}
	if err := c.applications.CreateApplication(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// List is admin-wide or vendor-own.
func (c *ApplicationController) List(ctx context.Context, caller types.Caller) ([]models.VendorApplication, error) {
	user, err := verifyCaller(ctx, c.users, caller)
	if err != nil {
		return nil, err
	}
	switch user.Role {
	case models.RoleAdmin:
		return c.applications.ListApplications(ctx)
	case models.RoleVendor:
		return c.applications.ListApplicationsByVendor(ctx, caller.ID)
	default:
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "applications are not visible to users")
	}
}

// Decide moves a pending application to its terminal state and fans the
// decision out to the vendor. Deciding an already-decided application is a
// hard ErrConflict: the race is not idempotent and the loser must learn it
// lost.
func (c *ApplicationController) Decide(ctx context.Context, caller types.Caller, id uuid.UUID, decision, reason string) (*models.VendorApplication, error) {
	user, err := verifyCaller(ctx, c.users, caller)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleAdmin {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "deciding applications requires admin role")
	}
	if err := rejectImpersonation(caller); err != nil {
		return nil, err
	}

	var status models.ApplicationStatus
	switch decision {
	case "approved":
		status = models.ApplicationApproved
	case "rejected":
		status = models.ApplicationRejected
		if strings.TrimSpace(reason) == "" {
			return nil, apperrors.Wrap(apperrors.ErrValidation, "rejection requires a reason")
		}
	default:
		return nil, apperrors.Wrap(apperrors.ErrValidation, "unknown decision %q", decision)
	}

	app, err := c.applications.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "application %s", id)
	}

	decided, err := c.applications.DecideApplication(ctx, id, status, reason, time.Now())
	if err != nil {
		return nil, err
	}
	if !decided {
		return nil, apperrors.Wrap(apperrors.ErrConflict, "application %s is already decided", id)
	}

	app, err = c.applications.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	c.logger.Info("vendor application decided",
		zap.String("application_id", id.String()),
		zap.String("status", string(status)),
		zap.String("admin_id", caller.ID.String()),
	)
	if err := c.fanout.OnVendorDecision(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}
