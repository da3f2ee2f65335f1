// helpdesk/routes/routes.go
package routes

import (
	"encoding/json"
	"net/http"

	"helpdesk/helpdesk/middlewares"
	"helpdesk/helpdesk/types"
	"helpdesk/helpdesk/utils/apperrors"
)

// generic wrapper to reduce boilerplate; errors carry their own status via
// the apperrors taxonomy and are rendered as the standard JSON error body.
func handleJSON(handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(res)
	}
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperrors.HTTPStatus(err))
	json.NewEncoder(w).Encode(apperrors.Body(err))
}

func callerFrom(r *http.Request) (types.Caller, error) {
	caller, ok := middlewares.CallerFrom(r.Context())
	if !ok {
		return types.Caller{}, apperrors.Wrap(apperrors.ErrForbidden, "no authenticated caller")
	}
	return caller, nil
}
