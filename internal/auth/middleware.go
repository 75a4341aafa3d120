package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/cinevault/api/internal/httputil"
	"github.com/cinevault/api/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	// UserContextKey holds the resolved *user.User for the request
	UserContextKey ContextKey = "current_user"
)

// MiddlewareUserStore is the lookup the middleware needs to resolve a
// credential's subject to an account.
type MiddlewareUserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenService
	users        MiddlewareUserStore
}

func NewMiddleware(tokenService TokenService, users MiddlewareUserStore) *Middleware {
	return &Middleware{tokenService: tokenService, users: users}
}

// RequireAuth validates the bearer credential and attaches the resolved user
// to the request context. Failures are terminal for the request: missing or
// malformed headers and bad tokens are 401s, while a valid credential whose
// subject no longer exists is a 404 (the token itself checked out).
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}
		token := parts[1]

		claims, err := m.tokenService.VerifyToken(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid user ID in token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		resolved, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				// Cryptographically valid token referencing a deleted account
				httputil.RespondErrorWithCode(w, "account not found", httputil.CodeUnknownSubject, http.StatusNotFound)
				return
			}
			httputil.RespondErrorWithCode(w, "failed to resolve user", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, resolved)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects requests whose resolved user lacks the required role.
// Must run after RequireAuth; it never touches storage.
func (m *Middleware) RequireRole(role user.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current, ok := CurrentUser(r.Context())
			if !ok {
				httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
				return
			}

			if current.Role != role {
				httputil.RespondErrorWithCode(w, "unauthorized access", httputil.CodeForbidden, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser extracts the resolved user from the request context
func CurrentUser(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(UserContextKey).(*user.User)
	return u, ok
}
