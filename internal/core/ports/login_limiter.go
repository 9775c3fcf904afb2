package ports

import (
	"context"
	"time"
)

// LoginEvent records one successful authentication for a username.
type LoginEvent struct {
	Username string
	At       time.Time
}

// LoginRecorder accepts successful-login events for asynchronous persistence.
type LoginRecorder interface {
	Record(event LoginEvent)
}

// LoginLimiter tracks failed login attempts per username and reports whether
// the username is temporarily locked out.
type LoginLimiter interface {
	// IsLocked reports whether username has exceeded the failure budget.
	IsLocked(ctx context.Context, username string) (bool, error)
	// RegisterFailure counts one failed attempt and reports whether it
	// triggered a lockout.
	RegisterFailure(ctx context.Context, username string) (bool, error)
	// Reset clears the failure counter after a successful login.
	Reset(ctx context.Context, username string) error
}
