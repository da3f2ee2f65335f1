// helpdesk/routes/user.go
package routes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"helpdesk/helpdesk/config"
	"helpdesk/helpdesk/controllers"
	"helpdesk/helpdesk/middlewares"
	"helpdesk/helpdesk/types"
	"helpdesk/helpdesk/utils/apperrors"
)

func UserRoutes(ctrl *controllers.UserController, cfg config.Config) chi.Router {
	r := chi.NewRouter()

	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Get("/me", handleJSON(func(r *http.Request) (any, int, error) {
			caller, err := callerFrom(r)
			if err != nil {
				return nil, 0, err
			}
			user, err := ctrl.GetUser(r.Context(), caller.ID)
			if err != nil {
				return nil, 0, err
			}
			return user, http.StatusOK, nil
		}))

		gr.Get("/fetch/{user_id}", handleJSON(func(r *http.Request) (any, int, error) {
			id, err := uuid.Parse(chi.URLParam(r, "user_id"))
			if err != nil {
				return nil, 0, apperrors.Wrap(apperrors.ErrValidation, "bad user id")
			}
			user, err := ctrl.GetUser(r.Context(), id)
			if err != nil {
				return nil, 0, err
			}
			return user, http.StatusOK, nil
		}))
	})

	r.Post("/create", handleJSON(func(r *http.Request) (any, int, error) {
		var req types.CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, 0, apperrors.Wrap(apperrors.ErrValidation, "invalid request body: %v", err)
		}
		user, err := ctrl.CreateUser(r.Context(), req)
		if err != nil {
			return nil, 0, err
		}
		return user, http.StatusOK, nil
	}))

	return r
}
