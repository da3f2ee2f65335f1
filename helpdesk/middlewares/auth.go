// helpdesk/middlewares/auth.go
package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"helpdesk/helpdesk/config"
	"helpdesk/helpdesk/sources/psql/models"
	"helpdesk/helpdesk/types"
)

type contextKey string

const CallerKey contextKey = "caller"

// CallerFrom extracts the authenticated caller placed by AuthMiddleware.
func CallerFrom(ctx context.Context) (types.Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(types.Caller)
	return caller, ok
}

// AuthMiddleware validates the bearer token and builds the Caller. The role
// claim here is only the client's assertion; controllers re-check it against
// the server-side user record. A view_as query parameter is honored for
// admin tokens only and marks the request as read-only impersonation.
func AuthMiddleware(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			parts := strings.Split(auth, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			tokenStr := parts[1]
			token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			userIDStr, ok := claims["user_id"].(string)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			userID, err := uuid.Parse(userIDStr)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			roleStr, ok := claims["role"].(string)
			if !ok || !models.Role(roleStr).Valid() {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			caller := types.Caller{ID: userID, Role: models.Role(roleStr)}
			if viewAs := r.URL.Query().Get("view_as"); viewAs != "" && caller.Role == models.RoleAdmin {
				if id, err := uuid.Parse(viewAs); err == nil {
					caller.ViewAs = &id
				}
			}

			ctx := context.WithValue(r.Context(), CallerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
