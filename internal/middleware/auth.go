package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/AnshRaj112/travelnest-backend/internal/models"
	"github.com/AnshRaj112/travelnest-backend/internal/services"
)

type contextKey string

const claimsKey contextKey = "session"

// TokenValidator checks a bearer token and returns its claims.
type TokenValidator interface {
	Validate(token string) (*services.SessionClaims, error)
}

// WithClaims stores validated session claims on ctx.
func WithClaims(ctx context.Context, claims *services.SessionClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims put there by RequireUser or RequireAdmin.
func ClaimsFromContext(ctx context.Context) (*services.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*services.SessionClaims)
	return claims, ok && claims != nil
}

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

// WebSocketToken lets a browser WebSocket handshake, which cannot carry an
// Authorization header, pass the session token as ?token=.
func WebSocketToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" && websocket.IsWebSocketUpgrade(r) {
			if token := r.URL.Query().Get("token"); token != "" {
				r.Header.Set("Authorization", "Bearer "+token)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func requireRole(tokens TokenValidator, role, denied string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			claims, err := tokens.Validate(token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			if claims.Role != role {
				writeJSONError(w, http.StatusUnauthorized, denied)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireUser admits requests carrying a valid customer session.
func RequireUser(tokens TokenValidator) func(http.Handler) http.Handler {
	return requireRole(tokens, models.RoleUser, "User session required")
}

// RequireAdmin admits requests carrying a valid admin session.
func RequireAdmin(tokens TokenValidator) func(http.Handler) http.Handler {
	return requireRole(tokens, models.RoleAdmin, "Admin access required")
}
