package middleware

import (
	"context"
	"net/http"

	"github.com/kozaktomas/face-gate/internal/constants"
)

type contextKey string

const sessionContextKey contextKey = "session"

// RequireFaceVerified is middleware that only admits requests whose session
// has passed the face gate. Used for the enrollment management endpoints.
func RequireFaceVerified(sm *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sm.GetSessionFromRequest(r)
			if session == nil {
				http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
				return
			}
			if v, ok := session.Get(constants.SessionKeyFaceVerified); !ok || v != "true" {
				http.Error(w, `{"error": "face verification required"}`, http.StatusUnauthorized)
				return
			}

			// Add session to context
			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext retrieves the session from the request context
func GetSessionFromContext(ctx context.Context) *Session {
	session, ok := ctx.Value(sessionContextKey).(*Session)
	if !ok {
		return nil
	}
	return session
}

// SetSessionInContext adds a session to the context.
// This is primarily for testing - use RequireFaceVerified middleware in production.
func SetSessionInContext(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}
