package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// AdminSession identifies an authenticated operator session.
type AdminSession struct {
	SessionID string
}

// AdminSessionValidator validates bearer tokens issued at admin login.
type AdminSessionValidator interface {
	ValidateSessionToken(token string) (*AdminSession, error)
}

type contextKeyAdminSession struct{}

// GetAdminSession retrieves the validated admin session from the
// context, or nil outside RequireAdminSession.
func GetAdminSession(ctx context.Context) *AdminSession {
	if s, ok := ctx.Value(contextKeyAdminSession{}).(*AdminSession); ok {
		return s
	}
	return nil
}

// RequireAdminSession rejects requests without a valid admin bearer
// token and stores the session in the context for handlers.
func RequireAdminSession(validator AdminSessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			session, err := validator.ValidateSessionToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "admin session rejected",
					"request_id", GetRequestID(r.Context()),
					"error", err.Error(),
				)
				unauthorized(w, "invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyAdminSession{}, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
