package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultLimit    = 10
	defaultWindow   = 15 * time.Minute
	defaultCooldown = 2 * time.Minute
)

// Limiter is a fixed-window rate limiter backed by Redis, used to slow down
// the abuse-prone auth endpoints. It is advisory: callers treat limiter
// errors as soft and keep serving.
type Limiter struct {
	client   *redis.Client
	limit    int
	window   time.Duration
	cooldown time.Duration
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{
		client:   client,
		limit:    defaultLimit,
		window:   defaultWindow,
		cooldown: defaultCooldown,
	}
}

func ipKey(purpose, ip string) string {
	return fmt.Sprintf("ratelimit:%s:%s", purpose, ip)
}

func cooldownKey(email string) string {
	return fmt.Sprintf("cooldown:email:%s", email)
}

// CheckIPRateLimit reports whether the IP has exhausted its window for the
// given purpose (e.g. "signin", "verify").
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := l.client.Get(ctx, ipKey(purpose, ip)).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to check IP rate limit: %w", err)
	}

	return count >= l.limit, nil
}

// RecordIPRequest counts a request against the IP's window
func (l *Limiter) RecordIPRequest(ctx context.Context, ip, purpose string) error {
	key := ipKey(purpose, ip)

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record IP request: %w", err)
	}
	_ = incr

	return nil
}

// CheckEmailCooldown reports whether the email was targeted too recently
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	exists, err := l.client.Exists(ctx, cooldownKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check email cooldown: %w", err)
	}

	return exists > 0, nil
}

// SetEmailCooldown starts the cooldown window for the email
func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	if err := l.client.Set(ctx, cooldownKey(email), "1", l.cooldown).Err(); err != nil {
		return fmt.Errorf("failed to set email cooldown: %w", err)
	}

	return nil
}
