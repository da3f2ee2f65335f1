// helpdesk/utils/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation rejects malformed input before any mutation happens.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound covers operations on sessions, notifications or
	// applications that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is a genuine ownership/permission denial.
	ErrForbidden = errors.New("forbidden")
	// ErrStaleRole means the caller's role claim no longer matches the
	// server-side record. Clients must refresh their session, not retry.
	ErrStaleRole = errors.New("stale role claim")
	// ErrConflict covers double decisions on terminal workflows.
	ErrConflict = errors.New("conflict")
)

// ErrorBody is the JSON error payload returned by every route.
type ErrorBody struct {
	Error          string `json:"error"`
	Code           string `json:"code"`
	RefreshSession bool   `json:"refresh_session,omitempty"`
}

func Wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// HTTPStatus maps an error to its response status. Unknown errors are 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStaleRole), errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the wire code for an error, matched again by the sync client.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrStaleRole):
		return "STALE_ROLE"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	default:
		return "INTERNAL"
	}
}

// Body builds the JSON payload for an error. RefreshSession is set only for
// stale role claims so the UI can distinguish "log in again" from "not yours".
func Body(err error) ErrorBody {
	return ErrorBody{
		Error:          err.Error(),
		Code:           Code(err),
		RefreshSession: errors.Is(err, ErrStaleRole),
	}
}

// FromCode reverses Code; the sync client uses it to rebuild sentinel
// errors out of wire payloads.
func FromCode(code, message string) error {
	var sentinel error
	switch code {
	case "VALIDATION_ERROR":
		sentinel = ErrValidation
	case "NOT_FOUND":
		sentinel = ErrNotFound
	case "STALE_ROLE":
		sentinel = ErrStaleRole
	case "FORBIDDEN":
		sentinel = ErrForbidden
	case "CONFLICT":
		sentinel = ErrConflict
	default:
		return errors.New(message)
	}
	if message == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, message)
}
