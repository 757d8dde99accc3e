package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jphacks/tk-b-2510/internal/models"
	"github.com/jphacks/tk-b-2510/internal/services"
)

type contextKey string

const (
	UserContextKey    contextKey = "user"
	SessionContextKey contextKey = "session"
)

// SessionCookieName is the cookie carrying the session token for browsers
const SessionCookieName = "session_token"

// GetUserFromContext retrieves the authenticated user from request context
func GetUserFromContext(ctx context.Context) *models.User {
	if user, ok := ctx.Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// GetSessionFromContext retrieves the session from request context
func GetSessionFromContext(ctx context.Context) *models.Session {
	if session, ok := ctx.Value(SessionContextKey).(*models.Session); ok {
		return session
	}
	return nil
}

// ExtractToken pulls the session token from the Authorization header or,
// failing that, the session cookie
func ExtractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// SessionAuth creates middleware that resolves the session token to a user
func SessionAuth(authService *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				respondUnauthorized(w, "Authentication required.")
				return
			}

			session, user, err := authService.GetSession(r.Context(), token)
			if err != nil {
				switch err {
				case models.ErrSessionNotFound, models.ErrSessionExpired, models.ErrSessionInactive:
					respondUnauthorized(w, "Session expired or invalid.")
				default:
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Internal server error."})
				}
				return
			}

			// Update last activity (async, don't wait)
			go authService.TouchSession(context.Background(), session.ID)

			ctx := context.WithValue(r.Context(), SessionContextKey, session)
			ctx = context.WithValue(ctx, UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalSessionAuth resolves the session when a token is present but lets
// anonymous requests through. Used by the WebSocket endpoint so clients can
// connect before logging in.
func OptionalSessionAuth(authService *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, user, err := authService.GetSession(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, session)
			ctx = context.WithValue(ctx, UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: message})
}
