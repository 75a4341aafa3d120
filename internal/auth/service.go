package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cinevault/api/internal/logging"
	"github.com/cinevault/api/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNameRequired       = errors.New("name is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrAlreadyVerified    = errors.New("email already verified")
)

// Session is a freshly minted credential plus the profile it belongs to.
type Session struct {
	Token     string     `json:"token"`
	TokenType string     `json:"token_type"`
	ExpiresIn int64      `json:"expires_in"`
	User      *user.User `json:"user"`
}

// Service handles signup, signin and email verification
type Service struct {
	users           UserStore
	codes           *CodeManager
	tokens          TokenService
	email           EmailSender
	logger          *logging.Logger
	sessionDuration time.Duration
	bcryptCost      int
}

func NewService(
	users UserStore,
	codes *CodeManager,
	tokens TokenService,
	email EmailSender,
	logger *logging.Logger,
	sessionDuration time.Duration,
	bcryptCost int,
) *Service {
	return &Service{
		users:           users,
		codes:           codes,
		tokens:          tokens,
		email:           email,
		logger:          logger,
		sessionDuration: sessionDuration,
		bcryptCost:      bcryptCost,
	}
}

// Signup creates an unverified account and issues a verification code,
// delivered by email in the background.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*user.User, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if len(password) < 8 {
		return nil, ErrPasswordTooShort
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, name, email, string(passwordHash))
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	code, err := s.codes.Issue(ctx, newUser.ID)
	if err != nil {
		// The account exists; the user can request a new code via resend.
		s.logger.Warn("failed to issue verification code after signup", "user_id", newUser.ID, "error", err)
		return newUser, nil
	}

	s.deliverCode(newUser.Email, code)

	return newUser, nil
}

// Signin authenticates a user and mints a session credential. The original
// client signs users in before verification and branches on is_verified, so
// no verification check happens here.
func (s *Service) Signin(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.mintSession(existing)
}

// VerifyEmail validates the submitted code for the user, marks the account
// verified and mints a fresh credential for it.
func (s *Service) VerifyEmail(ctx context.Context, userID uuid.UUID, code string) (*Session, error) {
	existing, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if existing.IsVerified {
		return nil, ErrAlreadyVerified
	}

	if err := s.codes.Validate(ctx, userID, code); err != nil {
		return nil, err
	}

	if err := s.users.MarkVerified(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to mark user as verified: %w", err)
	}
	existing.IsVerified = true

	return s.mintSession(existing)
}

// ResendVerification issues a fresh code for an unverified account.
// Always returns nil to prevent email enumeration attacks.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		s.logger.Warn("failed to get user for resend verification", "error", err)
		return nil
	}

	if existing.IsVerified {
		// Don't reveal that the email is already verified
		return nil
	}

	code, err := s.codes.Issue(ctx, existing.ID)
	if err != nil {
		s.logger.Warn("failed to reissue verification code", "user_id", existing.ID, "error", err)
		return nil
	}

	s.deliverCode(existing.Email, code)

	return nil
}

// mintSession creates a signed credential for the user
func (s *Service) mintSession(u *user.User) (*Session, error) {
	token, err := s.tokens.CreateToken(u.ID, s.sessionDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &Session{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(s.sessionDuration.Seconds()),
		User:      u,
	}, nil
}

// deliverCode sends the code by email in a goroutine (non-blocking).
// A fresh context avoids cancellation when the request finishes first.
func (s *Service) deliverCode(email, code string) {
	go func() {
		if err := s.email.SendVerificationCode(context.Background(), email, code); err != nil {
			s.logger.Warn("failed to send verification email", "email", email, "error", err)
		}
	}()
}
