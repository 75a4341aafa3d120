package auth

import (
	"context"

	"github.com/google/uuid"
)

// CodeRepository defines the interface for verification code storage.
// Implementations must guarantee that a record older than the configured TTL
// is unreadable via Get, whether or not a sweep has removed it yet.
type CodeRepository interface {
	// Replace atomically removes any existing code for the user and stores
	// the new hash. Two concurrent calls must not leave two live records.
	Replace(ctx context.Context, userID uuid.UUID, tokenHash string) error
	// Get returns the stored hash, or ErrCodeNotFound if no live code exists.
	Get(ctx context.Context, userID uuid.UUID) (string, error)
	// Delete removes the user's code (single-use consumption).
	Delete(ctx context.Context, userID uuid.UUID) error
	// DeleteExpired reaps records past the TTL. Stores with native expiry may
	// make this a no-op.
	DeleteExpired(ctx context.Context) error
}
