// helpdesk/controllers/caller.go
package controllers

import (
	"context"

	"helpdesk/helpdesk/services/projector"
	"helpdesk/helpdesk/sources/psql/models"
	"helpdesk/helpdesk/types"
	"helpdesk/helpdesk/utils/apperrors"
)

// verifyCaller loads the server-side user record and checks it against the
// token's role claim. A missing record or a role drift both mean the client
// is holding a stale session and must refresh, which is a different failure
// from "genuinely not your resource".
func verifyCaller(ctx context.Context, users UserStore, caller types.Caller) (*models.User, error) {
	user, err := users.GetUserByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.Wrap(apperrors.ErrStaleRole, "no server record for caller %s", caller.ID)
	}
	if err := projector.VerifyRole(caller, user.Role); err != nil {
		return nil, err
	}
	return user, nil
}

// rejectImpersonation guards every write path: view-as is read-only.
func rejectImpersonation(caller types.Caller) error {
	if caller.Impersonating() {
		return apperrors.Wrap(apperrors.ErrForbidden, "view_as mode is read-only")
	}
	return nil
}
