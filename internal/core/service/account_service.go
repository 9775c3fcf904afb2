package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jobly/account-system/internal/core/auth"
	"github.com/jobly/account-system/internal/core/domain"
	"github.com/jobly/account-system/internal/core/ports"
	"github.com/jobly/account-system/internal/pkg/metrics"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// AccountService implements the account lifecycle. All failures from the
// hasher, token service, and repository are translated into the domain error
// taxonomy before they reach a caller; nothing here is fatal to the process.
type AccountService struct {
	repo     ports.AccountRepository
	hasher   *auth.Hasher
	tokens   *auth.TokenService
	limiter  ports.LoginLimiter  // optional
	recorder ports.LoginRecorder // optional
	logger   zerolog.Logger
}

func NewAccountService(repo ports.AccountRepository, hasher *auth.Hasher, tokens *auth.TokenService, logger zerolog.Logger) *AccountService {
	return &AccountService{repo: repo, hasher: hasher, tokens: tokens, logger: logger}
}

// WithLoginLimiter enables failed-attempt lockouts backed by the given limiter.
func (s *AccountService) WithLoginLimiter(limiter ports.LoginLimiter) *AccountService {
	s.limiter = limiter
	return s
}

// WithLoginRecorder enables asynchronous last-login stamping.
func (s *AccountService) WithLoginRecorder(recorder ports.LoginRecorder) *AccountService {
	s.recorder = recorder
	return s
}

// Register creates a new account and returns a freshly issued token for it.
// This is the only operation that creates an account and mints a token in the
// same call.
func (s *AccountService) Register(ctx context.Context, input ports.RegisterInput) (string, *domain.Account, error) {
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Password == "" || input.Email == "" {
		return "", nil, domain.ErrValidation
	}

	start := time.Now()
	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return "", nil, err
	}
	metrics.PasswordHashDuration.Observe(time.Since(start).Seconds())

	now := time.Now().UTC()
	account := &domain.Account{
		Username:     input.Username,
		PasswordHash: digest,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		IsAdmin:      input.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Insert(ctx, account)
	if err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return "", nil, domain.ErrUsernameTaken
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return "", nil, err
	}

	token, err := s.tokens.Issue(created.Username, created.IsAdmin)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return "", nil, err
	}

	s.recordLogin(created.Username, now)
	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	s.logger.Info().Str("username", created.Username).Msg("account registered")

	return token, created.Redacted(), nil
}

// Login verifies the submitted credentials and returns a token. Unknown
// usernames and wrong passwords fail identically so callers cannot probe for
// account existence; the bcrypt comparison still runs against a dummy digest
// when the account is absent to keep timing uniform.
func (s *AccountService) Login(ctx context.Context, username, password string) (string, *domain.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		locked, err := s.limiter.IsLocked(ctx, username)
		if err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("login limiter unavailable")
		} else if locked {
			metrics.LoginsTotal.WithLabelValues("locked").Inc()
			return "", nil, domain.ErrInvalidCredentials
		}
	}

	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.hasher.Verify(password, dummyDigest)
			return "", nil, s.failLogin(ctx, username)
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return "", nil, err
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return "", nil, s.failLogin(ctx, username)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, username); err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("login limiter reset failed")
		}
	}

	token, err := s.tokens.Issue(account.Username, account.IsAdmin)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return "", nil, err
	}

	now := time.Now().UTC()
	account.LastLoginAt = now
	s.recordLogin(account.Username, now)
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info().Str("username", account.Username).Msg("login succeeded")

	return token, account.Redacted(), nil
}

// Get returns the account with the password hash redacted. Reads are public
// in this design; the redaction is the hard contract.
func (s *AccountService) Get(ctx context.Context, username string) (*domain.Account, error) {
	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return account.Redacted(), nil
}

// List returns a page of redacted accounts matching filter and the total count.
func (s *AccountService) List(ctx context.Context, filter ports.ListAccountsFilter) ([]*domain.Account, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}

	accounts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	redacted := make([]*domain.Account, len(accounts))
	for i, a := range accounts {
		redacted[i] = a.Redacted()
	}
	return redacted, total, nil
}

// Update applies a partial update after the self-or-admin gate allows it. A
// new password is rehashed before persistence; plaintext never reaches the
// repository.
func (s *AccountService) Update(ctx context.Context, username string, patch ports.AccountPatch, actor auth.AuthContext) (*domain.Account, error) {
	if err := auth.RequireSelfOrAdmin(actor, username); err != nil {
		metrics.ForbiddenTotal.WithLabelValues("self_or_admin").Inc()
		return nil, err
	}

	if patch.Password != nil {
		if *patch.Password == "" {
			return nil, domain.ErrValidation
		}
		digest, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, err
		}
		patch.Password = &digest
	}

	updated, err := s.repo.Update(ctx, username, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("username", username).Str("actor", actor.Username).Msg("account updated")
	return updated.Redacted(), nil
}

// Delete permanently removes the account after the self-or-admin gate allows
// it. A second delete of the same username reports domain.ErrAccountNotFound.
func (s *AccountService) Delete(ctx context.Context, username string, actor auth.AuthContext) error {
	if err := auth.RequireSelfOrAdmin(actor, username); err != nil {
		metrics.ForbiddenTotal.WithLabelValues("self_or_admin").Inc()
		return err
	}

	if err := s.repo.Delete(ctx, username); err != nil {
		return err
	}
	s.logger.Info().Str("username", username).Str("actor", actor.Username).Msg("account deleted")
	return nil
}

func (s *AccountService) failLogin(ctx context.Context, username string) error {
	if s.limiter != nil {
		lockedNow, err := s.limiter.RegisterFailure(ctx, username)
		if err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("login limiter update failed")
		} else if lockedNow {
			metrics.LockoutsTotal.Inc()
			s.logger.Warn().Str("username", username).Msg("login lockout triggered")
		}
	}
	metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
	return domain.ErrInvalidCredentials
}

func (s *AccountService) recordLogin(username string, at time.Time) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ports.LoginEvent{Username: username, At: at})
}

// dummyDigest is a bcrypt digest of an unguessable random string, compared
// against when the username does not exist so that missing and present
// accounts take similar time to reject.
const dummyDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
