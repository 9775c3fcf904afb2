package ports

import (
	"context"
	"time"

	"github.com/jobly/account-system/internal/core/domain"
)

// ListAccountsFilter carries all query parameters for listing accounts.
type ListAccountsFilter struct {
	Search    string // optional: partial match on username, first or last name
	Email     string // optional: exact match
	AdminOnly bool   // optional: restrict to admin accounts
	Page      int    // 1-based
	Limit     int    // max rows per page (capped at 100 by service)
}

// AccountPatch carries the mutable fields of a partial update. Nil pointers
// mean "leave unchanged". Password, when set, is plaintext and must be hashed
// by the service before it reaches the repository.
type AccountPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
}

// AccountRepository defines persistence operations for accounts. All methods
// are atomic at single-record granularity; no multi-record transactions are
// required by the core.
type AccountRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	// Insert creates a new account. Returns domain.ErrUsernameTaken when the
	// username is already present.
	Insert(ctx context.Context, account *domain.Account) (*domain.Account, error)
	// Update applies the non-nil fields of patch. Patch.Password must already
	// be a digest at this layer.
	Update(ctx context.Context, username string, patch AccountPatch) (*domain.Account, error)
	Delete(ctx context.Context, username string) error
	// List returns a page of accounts matching filter and the total count.
	List(ctx context.Context, filter ListAccountsFilter) ([]*domain.Account, int64, error)
	// TouchLastLogin stamps the last successful authentication time.
	TouchLastLogin(ctx context.Context, username string, at time.Time) error
}
