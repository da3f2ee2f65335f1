// helpdesk/routes/notifications.go
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"helpdesk/helpdesk/config"
	"helpdesk/helpdesk/controllers"
	"helpdesk/helpdesk/middlewares"
	"helpdesk/helpdesk/utils/apperrors"
)

func NotificationRoutes(ctrl *controllers.NotificationController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
			caller, err := callerFrom(r)
			if err != nil {
				return nil, 0, err
			}
			notifs, err := ctrl.List(r.Context(), caller)
			if err != nil {
				return nil, 0, err
			}
			return notifs, http.StatusOK, nil
		}))

		gr.Get("/unread-count", handleJSON(func(r *http.Request) (any, int, error) {
			caller, err := callerFrom(r)
			if err != nil {
				return nil, 0, err
			}
			count, err := ctrl.UnreadCount(r.Context(), caller)
			if err != nil {
				return nil, 0, err
			}
			return map[string]int{"unread": count}, http.StatusOK, nil
		}))

		gr.Put("/{id}/read", handleJSON(func(r *http.Request) (any, int, error) {
			caller, err := callerFrom(r)
			if err != nil {
				return nil, 0, err
			}
			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				return nil, 0, apperrors.Wrap(apperrors.ErrValidation, "bad notification id")
			}
			if err := ctrl.MarkRead(r.Context(), caller, id); err != nil {
				return nil, 0, err
			}
			return map[string]string{"status": "ok"}, http.StatusOK, nil
		}))

		gr.Delete("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
			caller, err := callerFrom(r)
			if err != nil {
				return nil, 0, err
			}
			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				return nil, 0, apperrors.Wrap(apperrors.ErrValidation, "bad notification id")
			}
			if err := ctrl.Delete(r.Context(), caller, id); err != nil {
				return nil, 0, err
			}
			return map[string]string{"status": "deleted"}, http.StatusOK, nil
		}))
	})
	return r
}
