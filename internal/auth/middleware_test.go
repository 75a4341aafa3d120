package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinevault/api/internal/user"
)

// fakeUserStore serves users from a map
type fakeUserStore struct {
	users map[uuid.UUID]*user.User
}

func newFakeUserStore(users ...*user.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[uuid.UUID]*user.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func memberUser() *user.User {
	return &user.User{ID: uuid.New(), Name: "Jane", Email: "jane@example.com", Role: user.RoleMember, IsVerified: true}
}

func adminUser() *user.User {
	return &user.User{ID: uuid.New(), Name: "Boss", Email: "boss@example.com", Role: user.RoleAdmin, IsVerified: true}
}

func newTestMiddleware(t *testing.T, store MiddlewareUserStore) (*Middleware, TokenService) {
	t.Helper()

	tokens, err := NewPasetoService(testPasetoKey())
	require.NoError(t, err)

	return NewMiddleware(tokens, store), tokens
}

// echoUserHandler writes the resolved user's id so tests can check context attachment
func echoUserHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current, ok := CurrentUser(r.Context())
		require.True(t, ok)
		w.Write([]byte(current.ID.String()))
	})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	mw, _ := newTestMiddleware(t, newFakeUserStore())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()

	mw.RequireAuth(echoUserHandler(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing_auth", errorCode(t, rec))
}

func TestRequireAuth_MalformedScheme(t *testing.T) {
	mw, _ := newTestMiddleware(t, newFakeUserStore())

	for _, header := range []string{"Basic abc123", "Bearer", "Bearer ", "token-without-scheme"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()

		mw.RequireAuth(echoUserHandler(t)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	mw, _ := newTestMiddleware(t, newFakeUserStore())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec := httptest.NewRecorder()

	mw.RequireAuth(echoUserHandler(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", errorCode(t, rec))
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	u := memberUser()
	mw, tokens := newTestMiddleware(t, newFakeUserStore(u))

	token, err := tokens.CreateToken(u.ID, -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw.RequireAuth(echoUserHandler(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token_expired", errorCode(t, rec))
}

func TestRequireAuth_UnknownSubject(t *testing.T) {
	// Valid, unexpired credential whose account no longer exists
	mw, tokens := newTestMiddleware(t, newFakeUserStore())

	token, err := tokens.CreateToken(uuid.New(), time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw.RequireAuth(echoUserHandler(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown_subject", errorCode(t, rec))
}

func TestRequireAuth_ResolvesEncodedUser(t *testing.T) {
	u := memberUser()
	mw, tokens := newTestMiddleware(t, newFakeUserStore(u, adminUser()))

	token, err := tokens.CreateToken(u.ID, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw.RequireAuth(echoUserHandler(t)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, u.ID.String(), rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	member := memberUser()
	admin := adminUser()
	mw, tokens := newTestMiddleware(t, newFakeUserStore(member, admin))

	handler := mw.RequireAuth(mw.RequireRole(user.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	tests := []struct {
		name       string
		userID     uuid.UUID
		wantStatus int
	}{
		{"member is forbidden", member.ID, http.StatusForbidden},
		{"admin passes through", admin.ID, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tokens.CreateToken(tt.userID, time.Hour)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	mw, _ := newTestMiddleware(t, newFakeUserStore())

	// Gate mounted without RequireAuth sees no user in context
	handler := mw.RequireRole(user.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
