package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/careslot/careslot/internal/scheduling"
)

type contextKey string

const callerKey contextKey = "caller"

// UserStore is the slice of the repository the middleware needs to turn
// a verified token into a live caller.
type UserStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*scheduling.User, error)
}

// Middleware authenticates requests and gates them by role.
type Middleware struct {
	issuer *TokenIssuer
	users  UserStore
}

func NewMiddleware(issuer *TokenIssuer, users UserStore) *Middleware {
	return &Middleware{issuer: issuer, users: users}
}

// Authenticate verifies the bearer token, re-loads the user row so
// deleted or deactivated accounts are rejected even with a valid token,
// and stashes the caller in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthorized(w, "access token is required")
			return
		}

		userID, err := m.issuer.Verify(token)
		if err != nil {
			unauthorized(w, "invalid or expired token")
			return
		}

		user, err := m.users.GetUserByID(r.Context(), userID)
		if err != nil {
			unauthorized(w, "user not found")
			return
		}
		if !user.IsActive {
			unauthorized(w, "account is deactivated")
			return
		}

		caller := scheduling.Caller{UserID: user.ID, Role: user.Role}
		ctx := context.WithValue(r.Context(), callerKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole allows only the listed roles past. It assumes Authenticate
// already ran.
func (m *Middleware) RequireRole(roles ...scheduling.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFromContext(r.Context())
			if !ok {
				unauthorized(w, "authentication required")
				return
			}

			for _, role := range roles {
				if caller.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			forbidden(w, "insufficient permissions for this action")
		})
	}
}

// CallerFromContext retrieves the authenticated caller set by Authenticate.
func CallerFromContext(ctx context.Context) (scheduling.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(scheduling.Caller)
	return caller, ok
}

// ContextWithCaller attaches a caller the way Authenticate does.
func ContextWithCaller(ctx context.Context, caller scheduling.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

func unauthorized(w http.ResponseWriter, message string) {
	writeStatus(w, http.StatusUnauthorized, message)
}

func forbidden(w http.ResponseWriter, message string) {
	writeStatus(w, http.StatusForbidden, message)
}

func writeStatus(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"message": message,
	})
}
