package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/cinevault/api/internal/database"
)

// BunCodeRepository stores verification code hashes in SQL. Expiry is a
// query-time cutoff on created_at; DeleteExpired only bounds table growth.
type BunCodeRepository struct {
	db  *bun.DB
	ttl time.Duration
}

func NewBunCodeRepository(db *bun.DB, ttl time.Duration) *BunCodeRepository {
	return &BunCodeRepository{db: db, ttl: ttl}
}

// Replace deletes any prior row for the user and inserts the new hash inside
// a single transaction, so concurrent issues cannot leave two live rows (the
// unique index on user_id backs this up).
func (r *BunCodeRepository) Replace(ctx context.Context, userID uuid.UUID, tokenHash string) error {
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*database.EmailVerificationToken)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return err
		}

		record := &database.EmailVerificationToken{
			UserID:    userID,
			TokenHash: tokenHash,
			CreatedAt: time.Now(),
		}
		_, err = tx.NewInsert().
			Model(record).
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to replace verification code: %w", err)
	}

	return nil
}

// Get returns the stored hash for the user, treating rows past the TTL as
// absent even if the sweep has not removed them yet.
func (r *BunCodeRepository) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	cutoff := time.Now().Add(-r.ttl)

	record := new(database.EmailVerificationToken)
	err := r.db.NewSelect().
		Model(record).
		Where("user_id = ?", userID).
		Where("created_at > ?", cutoff).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrCodeNotFound
		}
		return "", fmt.Errorf("failed to get verification code: %w", err)
	}

	return record.TokenHash, nil
}

// Delete removes the user's code record
func (r *BunCodeRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*database.EmailVerificationToken)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete verification code: %w", err)
	}

	return nil
}

// DeleteExpired removes records older than the TTL.
// Run periodically (the API wires it to a cron job).
func (r *BunCodeRepository) DeleteExpired(ctx context.Context) error {
	cutoff := time.Now().Add(-r.ttl)

	_, err := r.db.NewDelete().
		Model((*database.EmailVerificationToken)(nil)).
		Where("created_at <= ?", cutoff).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete expired verification codes: %w", err)
	}

	return nil
}
