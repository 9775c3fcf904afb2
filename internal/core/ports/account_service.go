package ports

import (
	"context"

	"github.com/jobly/account-system/internal/core/auth"
	"github.com/jobly/account-system/internal/core/domain"
)

// RegisterInput carries the fields required to create an account. Password is
// plaintext here; it never reaches the repository in that form.
type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
	IsAdmin   bool
}

// AccountService orchestrates the account lifecycle: registration, login,
// lookup, update, and deletion, with authorization applied before any
// mutation.
type AccountService interface {
	Register(ctx context.Context, input RegisterInput) (string, *domain.Account, error)
	Login(ctx context.Context, username, password string) (string, *domain.Account, error)
	Get(ctx context.Context, username string) (*domain.Account, error)
	List(ctx context.Context, filter ListAccountsFilter) ([]*domain.Account, int64, error)
	Update(ctx context.Context, username string, patch AccountPatch, actor auth.AuthContext) (*domain.Account, error)
	Delete(ctx context.Context, username string, actor auth.AuthContext) error
}
