package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout = 5 * time.Second
	defaultAddr    = "localhost:6379"

	// clientName is reported by CLIENT LIST, which helps when the lockout
	// keys need inspecting on a shared Redis.
	clientName = "account-system"
)

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// Connect initialises the Redis client used for login lockout counters and
// validates connectivity with a ping. Address and timeout fall back to
// service defaults when not provided.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	addr := cfg.Addr
	if addr == "" {
		addr = defaultAddr
	}

	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		DB:         cfg.DB,
		ClientName: clientName,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}
