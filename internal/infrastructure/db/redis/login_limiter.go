package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter tracks failed login attempts per username in Redis.
// Key format: login_fail:<username>, a counter expiring after the lock window.
// Once the counter reaches maxAttempts, the username is considered locked
// until the key expires.
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int
	lockWindow  time.Duration
}

// NewLoginLimiter creates a LoginLimiter wrapping the given Redis client.
func NewLoginLimiter(client *redis.Client, maxAttempts int, lockWindow time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if lockWindow <= 0 {
		lockWindow = 15 * time.Minute
	}
	return &LoginLimiter{client: client, maxAttempts: maxAttempts, lockWindow: lockWindow}
}

// IsLocked reports whether username has exhausted its failure budget.
func (l *LoginLimiter) IsLocked(ctx context.Context, username string) (bool, error) {
	n, err := l.client.Get(ctx, l.key(username)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lockout check: %w", err)
	}
	return n >= l.maxAttempts, nil
}

// RegisterFailure counts one failed attempt and reports whether this attempt
// crossed the lockout threshold. The expiry is refreshed on every failure so
// the lock window slides with continued abuse.
func (l *LoginLimiter) RegisterFailure(ctx context.Context, username string) (bool, error) {
	key := l.key(username)

	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("register login failure: %w", err)
	}
	if err := l.client.Expire(ctx, key, l.lockWindow).Err(); err != nil {
		return false, fmt.Errorf("register login failure: %w", err)
	}
	return n == int64(l.maxAttempts), nil
}

// Reset clears the failure counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, username string) error {
	return l.client.Del(ctx, l.key(username)).Err()
}

func (l *LoginLimiter) key(username string) string {
	return fmt.Sprintf("login_fail:%s", username)
}
