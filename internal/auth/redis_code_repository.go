package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCodeRepository stores verification code hashes in Redis with native
// key TTL. The single key per user makes Replace an atomic overwrite.
type RedisCodeRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCodeRepository(client *redis.Client, ttl time.Duration) *RedisCodeRepository {
	return &RedisCodeRepository{client: client, ttl: ttl}
}

// codeKey generates the Redis key for a user's verification code
func codeKey(userID uuid.UUID) string {
	return fmt.Sprintf("verify_code:%s", userID.String())
}

// Replace overwrites the user's code key and resets its TTL
func (r *RedisCodeRepository) Replace(ctx context.Context, userID uuid.UUID, tokenHash string) error {
	if err := r.client.Set(ctx, codeKey(userID), tokenHash, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	return nil
}

// Get returns the stored hash; Redis expiry makes stale codes absent
func (r *RedisCodeRepository) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	hash, err := r.client.Get(ctx, codeKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCodeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get verification code: %w", err)
	}

	return hash, nil
}

// Delete removes the user's code key
func (r *RedisCodeRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := r.client.Del(ctx, codeKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete verification code: %w", err)
	}

	return nil
}

// DeleteExpired is not needed for Redis as TTL handles expiration automatically
func (r *RedisCodeRepository) DeleteExpired(ctx context.Context) error {
	return nil
}
