package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cinevault/api/internal/logging"
	"github.com/cinevault/api/internal/user"
)

// memUserStore implements UserStore over maps
type memUserStore struct {
	byID    map[uuid.UUID]*user.User
	byEmail map[string]*user.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		byID:    make(map[uuid.UUID]*user.User),
		byEmail: make(map[string]*user.User),
	}
}

func (s *memUserStore) Create(_ context.Context, name, email, passwordHash string) (*user.User, error) {
	if _, exists := s.byEmail[email]; exists {
		return nil, user.ErrDuplicateEmail
	}
	u := &user.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         user.RoleMember,
		IsVerified:   false,
		CreatedAt:    time.Now(),
	}
	s.byID[u.ID] = u
	s.byEmail[u.Email] = u
	return u, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (s *memUserStore) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (s *memUserStore) MarkVerified(_ context.Context, userID uuid.UUID) error {
	u, ok := s.byID[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.IsVerified = true
	return nil
}

type sentEmail struct {
	to   string
	code string
}

// emailRecorder captures deliveries on a channel because the service sends
// them from a goroutine.
type emailRecorder struct {
	sent chan sentEmail
}

func newEmailRecorder() *emailRecorder {
	return &emailRecorder{sent: make(chan sentEmail, 8)}
}

func (r *emailRecorder) SendVerificationCode(_ context.Context, toEmail, code string) error {
	r.sent <- sentEmail{to: toEmail, code: code}
	return nil
}

func (r *emailRecorder) waitForEmail(t *testing.T) sentEmail {
	t.Helper()
	select {
	case e := <-r.sent:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for verification email")
		return sentEmail{}
	}
}

func (r *emailRecorder) assertNoEmail(t *testing.T) {
	t.Helper()
	select {
	case e := <-r.sent:
		t.Fatalf("unexpected email sent to %s", e.to)
	case <-time.After(50 * time.Millisecond):
	}
}

func newTestService(t *testing.T) (*Service, *memUserStore, *emailRecorder) {
	t.Helper()

	tokens, err := NewPasetoService(testPasetoKey())
	require.NoError(t, err)

	store := newMemUserStore()
	recorder := newEmailRecorder()
	codes := NewCodeManager(newMemCodeRepository(), 6, bcrypt.MinCost)
	logger := logging.NewLogger(true)

	svc := NewService(store, codes, tokens, recorder, logger, time.Hour, bcrypt.MinCost)
	return svc, store, recorder
}

func signupTestUser(t *testing.T, svc *Service) *user.User {
	t.Helper()

	u, err := svc.Signup(context.Background(), "Jane", "jane@example.com", "password123")
	require.NoError(t, err)
	return u
}

func TestSignup_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		wantErr  error
	}{
		{"missing name", "", "jane@example.com", "password123", ErrNameRequired},
		{"missing email", "Jane", "", "password123", ErrEmailRequired},
		{"bad email format", "Jane", "not-an-email", "password123", ErrInvalidEmailFormat},
		{"missing password", "Jane", "jane@example.com", "", ErrPasswordRequired},
		{"short password", "Jane", "jane@example.com", "1234567", ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.userName, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSignup_CreatesUnverifiedMember(t *testing.T) {
	svc, _, recorder := newTestService(t)

	u := signupTestUser(t, svc)

	assert.Equal(t, user.RoleMember, u.Role)
	assert.False(t, u.IsVerified)

	email := recorder.waitForEmail(t)
	assert.Equal(t, "jane@example.com", email.to)
	assert.Len(t, email.code, 6)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	signupTestUser(t, svc)

	_, err := svc.Signup(context.Background(), "Other Jane", "jane@example.com", "password456")
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestSignin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	u := signupTestUser(t, svc)

	session, err := svc.Signin(ctx, "jane@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, int64(3600), session.ExpiresIn)
	assert.Equal(t, u.ID, session.User.ID)
	assert.NotEmpty(t, session.Token)
}

func TestSignin_WrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	signupTestUser(t, svc)

	_, err := svc.Signin(context.Background(), "jane@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignin_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	// Indistinguishable from a wrong password
	_, err := svc.Signin(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyEmail(t *testing.T) {
	svc, store, recorder := newTestService(t)
	ctx := context.Background()

	u := signupTestUser(t, svc)
	code := recorder.waitForEmail(t).code

	session, err := svc.VerifyEmail(ctx, u.ID, code)
	require.NoError(t, err)
	assert.True(t, session.User.IsVerified)

	stored, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
}

func TestVerifyEmail_WrongCode(t *testing.T) {
	svc, _, recorder := newTestService(t)
	ctx := context.Background()

	u := signupTestUser(t, svc)
	code := recorder.waitForEmail(t).code

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	_, err := svc.VerifyEmail(ctx, u.ID, wrong)
	assert.ErrorIs(t, err, ErrCodeMismatch)

	// The code survives a wrong guess
	_, err = svc.VerifyEmail(ctx, u.ID, code)
	require.NoError(t, err)
}

func TestVerifyEmail_AlreadyVerified(t *testing.T) {
	svc, _, recorder := newTestService(t)
	ctx := context.Background()

	u := signupTestUser(t, svc)
	code := recorder.waitForEmail(t).code

	_, err := svc.VerifyEmail(ctx, u.ID, code)
	require.NoError(t, err)

	_, err = svc.VerifyEmail(ctx, u.ID, code)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestVerifyEmail_UnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.VerifyEmail(context.Background(), uuid.New(), "123456")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestVerifyEmail_CodeConsumedOnSuccess(t *testing.T) {
	svc, store, recorder := newTestService(t)
	ctx := context.Background()

	u := signupTestUser(t, svc)
	code := recorder.waitForEmail(t).code

	_, err := svc.VerifyEmail(ctx, u.ID, code)
	require.NoError(t, err)

	// Reset verification so only the code state is observed
	stored, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	stored.IsVerified = false

	_, err = svc.VerifyEmail(ctx, u.ID, code)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestResendVerification(t *testing.T) {
	svc, _, recorder := newTestService(t)
	ctx := context.Background()

	u := signupTestUser(t, svc)
	first := recorder.waitForEmail(t).code

	require.NoError(t, svc.ResendVerification(ctx, "jane@example.com"))
	second := recorder.waitForEmail(t).code

	if first != second {
		// The reissued code supersedes the original
		_, err := svc.VerifyEmail(ctx, u.ID, first)
		assert.ErrorIs(t, err, ErrCodeMismatch)
	}

	_, err := svc.VerifyEmail(ctx, u.ID, second)
	require.NoError(t, err)
}

func TestResendVerification_UnknownEmailIsSilent(t *testing.T) {
	svc, _, recorder := newTestService(t)

	require.NoError(t, svc.ResendVerification(context.Background(), "nobody@example.com"))
	recorder.assertNoEmail(t)
}

func TestResendVerification_VerifiedAccountIsSilent(t *testing.T) {
	svc, _, recorder := newTestService(t)
	ctx := context.Background()

	u := signupTestUser(t, svc)
	code := recorder.waitForEmail(t).code

	_, err := svc.VerifyEmail(ctx, u.ID, code)
	require.NoError(t, err)

	require.NoError(t, svc.ResendVerification(ctx, "jane@example.com"))
	recorder.assertNoEmail(t)
}

func TestSessionTokenResolvesUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	u := signupTestUser(t, svc)

	session, err := svc.Signin(context.Background(), "jane@example.com", "password123")
	require.NoError(t, err)

	tokens, err := NewPasetoService(testPasetoKey())
	require.NoError(t, err)

	claims, err := tokens.VerifyToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
}
