// helpdesk/routes/auth.go
package routes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"helpdesk/helpdesk/controllers"
	"helpdesk/helpdesk/types"
	"helpdesk/helpdesk/utils/apperrors"
)

func AuthRoutes(ctrl *controllers.AuthController) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", handleJSON(func(r *http.Request) (any, int, error) {
		var req types.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, 0, apperrors.Wrap(apperrors.ErrValidation, "invalid request body: %v", err)
		}
		token, err := ctrl.Login(r.Context(), req.Username)
		if err != nil {
			return nil, 0, err
		}
		return map[string]string{"token": token}, http.StatusOK, nil
	}))
	return r
}
