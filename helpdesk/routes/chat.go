// helpdesk/routes/chat.go
package routes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"helpdesk/helpdesk/config"
	"helpdesk/helpdesk/controllers"
	"helpdesk/helpdesk/middlewares"
	"helpdesk/helpdesk/sources/psql/models"
	"helpdesk/helpdesk/types"
	"helpdesk/helpdesk/utils/apperrors"
)

func ChatRoutes(ctrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		// GET /chat/session?category= : get-or-create caller's session.
		// Admins pass participant_id to initiate contact.
		gr.Get("/session", handleJSON(func(r *http.Request) (any, int, error) {
			caller, err := callerFrom(r)
			if err != nil {
				return nil, 0, err
			}
			category := models.Category(r.URL.Query().Get("category"))
			var participantID *uuid.UUID
			if raw := r.URL.Query().Get("participant_id"); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					return nil, 0, apperrors.Wrap(apperrors.ErrValidation, "bad participant_id %q", raw)
				}
				participantID = &id
			}
			session, err := ctrl.GetOrCreateSession(r.Context(), caller, category, participantID)
			if err != nil {
				return nil, 0, err
			}
			return session, http.StatusOK, nil
		}))

		// POST /chat/session/{session_id}/message : append to the log
		gr.Post("/session/{session_id}/message", handleJSON(func(r *http.Request) (any, int, error) {
			caller, err := callerFrom(r)
			if err != nil {
				return nil, 0, err
			}
			sessionID, err := uuid.Parse(chi.URLParam(r, "session_id"))
			if err != nil {
				return nil, 0, apperrors.Wrap(apperrors.ErrValidation, "bad session id")
			}
			var req types.SendMessageRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return nil, 0, apperrors.Wrap(apperrors.ErrValidation, "invalid request body: %v", err)
			}
			msg, err := ctrl.SendMessage(r.Context(), caller, sessionID, req.Text)
			if err != nil {
				return nil, 0, err
			}
			return msg, http.StatusCreated, nil
		}))

		gr.Get("/session/{session_id}/messages", handleJSON(func(r *http.Request) (any, int, error) {
			caller, err := callerFrom(r)
			if err != nil {
				return nil, 0, err
			}
			sessionID, err := uuid.Parse(chi.URLParam(r, "session_id"))
			if err != nil {
				return nil, 0, apperrors.Wrap(apperrors.ErrValidation, "bad session id")
			}
			msgs, err := ctrl.GetMessages(r.Context(), caller, sessionID)
			if err != nil {
				return nil, 0, err
			}
			return msgs, http.StatusOK, nil
		}))

		// GET /chat/admin/sessions?category=&search= : support inbox
		gr.Get("/admin/sessions", handleJSON(func(r *http.Request) (any, int, error) {
			caller, err := callerFrom(r)
			if err != nil {
				return nil, 0, err
			}
			category := models.Category(r.URL.Query().Get("category"))
			search := r.URL.Query().Get("search")
			sessions, err := ctrl.ListAdminSessions(r.Context(), caller, category, search)
			if err != nil {
				return nil, 0, err
			}
			return sessions, http.StatusOK, nil
		}))

		// PUT /chat/session/{session_id}/close : workflow close, not delete
		gr.Put("/session/{session_id}/close", handleJSON(func(r *http.Request) (any, int, error) {
			caller, err := callerFrom(r)
			if err != nil {
				return nil, 0, err
			}
			sessionID, err := uuid.Parse(chi.URLParam(r, "session_id"))
			if err != nil {
				return nil, 0, apperrors.Wrap(apperrors.ErrValidation, "bad session id")
			}
			if err := ctrl.CloseSession(r.Context(), caller, sessionID); err != nil {
				return nil, 0, err
			}
			return map[string]string{"status": "closed"}, http.StatusOK, nil
		}))
	})
	return r
}
