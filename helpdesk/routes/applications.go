// helpdesk/routes/applications.go
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

func ApplicationRoutes(ctrl *controllers.ApplicationController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
			caller, err := callerFrom(r)
			if err != nil {
				return nil, 0, err
			}
			var req types.SubmitApplicationRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return nil, 0, apperrors.Wrap(apperrors.ErrValidation, "invalid request body: %v", err)
			}
			app, err := ctrl.Submit(r.Context(), caller, req.BusinessName)
			if err != nil {
				return nil, 0, err
			}
			return app, http.StatusCreated, nil
		}))

		gr.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
			caller, err := callerFrom(r)
			if err != nil {
				return nil, 0, err
			}
			apps, err := ctrl.List(r.Context(), caller)
			if err != nil {
				return nil, 0, err
			}
			return apps, http.StatusOK, nil
		}))

		// PATCH /applications/{id} : approve or reject, 409 once decided
		gr.Patch("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
			caller, err := callerFrom(r)
			if err != nil {
				return nil, 0, err
			}
			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				return nil, 0, apperrors.Wrap(apperrors.ErrValidation, "bad application id")
			}
			var req types.DecisionRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return nil, 0, apperrors.Wrap(apperrors.ErrValidation, "invalid request body: %v", err)
			}
			app, err := ctrl.Decide(r.Context(), caller, id, req.Decision, req.Reason)
			if err != nil {
				return nil, 0, err
			}
			return app, http.StatusOK, nil
		}))
	})
	return r
}
