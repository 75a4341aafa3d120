package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cinevault/api/internal/user"
)

// TokenService defines the interface for session credential creation and
// verification. Implementations include PasetoService (PASETO v4.local) and
// JWTService (HS256).
type TokenService interface {
	CreateToken(userID uuid.UUID, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// TokenClaims are the claims embedded in a session credential. Only the user
// identifier and the validity window are carried; role and verification state
// always come from the user store so account changes take effect immediately.
type TokenClaims struct {
	UserID    string    `json:"user_id"` // UUID stored as string in token
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// UserStore is the slice of the user repository the auth components need.
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	MarkVerified(ctx context.Context, userID uuid.UUID) error
}

// EmailSender delivers verification codes out-of-band. The auth service never
// transmits a code itself.
type EmailSender interface {
	SendVerificationCode(ctx context.Context, toEmail, code string) error
}
