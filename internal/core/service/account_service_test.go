package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jobly/account-system/internal/core/auth"
	"github.com/jobly/account-system/internal/core/domain"
	"github.com/jobly/account-system/internal/core/ports"
)

type stubAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[username]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) Insert(_ context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[account.Username]; exists {
		return nil, domain.ErrUsernameTaken
	}
	copy := cloneAccount(account)
	if copy.ID == "" {
		copy.ID = account.Username
	}
	r.accounts[copy.Username] = cloneAccount(copy)
	return cloneAccount(copy), nil
}

func (r *stubAccountRepo) Update(_ context.Context, username string, patch ports.AccountPatch) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[username]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if patch.FirstName != nil {
		a.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		a.LastName = *patch.LastName
	}
	if patch.Email != nil {
		a.Email = *patch.Email
	}
	if patch.Password != nil {
		a.PasswordHash = *patch.Password
	}
	a.UpdatedAt = time.Now().UTC()
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) Delete(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[username]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(r.accounts, username)
	return nil
}

func (r *stubAccountRepo) List(_ context.Context, filter ports.ListAccountsFilter) ([]*domain.Account, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Account
	for _, a := range r.accounts {
		if filter.Search != "" && !strings.Contains(a.Username, filter.Search) {
			continue
		}
		if filter.AdminOnly && !a.IsAdmin {
			continue
		}
		out = append(out, cloneAccount(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, int64(len(out)), nil
}

func (r *stubAccountRepo) TouchLastLogin(_ context.Context, username string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[username]; ok {
		a.LastLoginAt = at
	}
	return nil
}

type stubLimiter struct {
	locked   bool
	failures int
	resets   int
}

func (l *stubLimiter) IsLocked(_ context.Context, _ string) (bool, error) {
	return l.locked, nil
}

func (l *stubLimiter) RegisterFailure(_ context.Context, _ string) (bool, error) {
	l.failures++
	return false, nil
}

func (l *stubLimiter) Reset(_ context.Context, _ string) error {
	l.resets++
	return nil
}

type stubRecorder struct {
	mu     sync.Mutex
	events []ports.LoginEvent
}

func (r *stubRecorder) Record(event ports.LoginEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func newTestService(repo *stubAccountRepo) *AccountService {
	hasher := auth.NewHasher(bcrypt.MinCost)
	tokens := auth.NewTokenService("secret", time.Hour)
	return NewAccountService(repo, hasher, tokens, zerolog.Nop())
}

func register(t *testing.T, svc *AccountService, username, password string, admin bool) *domain.Account {
	t.Helper()
	_, account, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: username,
		Password: password,
		Email:    username + "@example.com",
		IsAdmin:  admin,
	})
	if err != nil {
		t.Fatalf("register %s failed: %v", username, err)
	}
	return account
}

func TestAccountService_Register_Success(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo)

	token, account, err := svc.Register(context.Background(), ports.RegisterInput{
		Username:  "u1",
		Password:  "pw1",
		FirstName: "First",
		Email:     "u1@example.com",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}
	if account.PasswordHash != "" {
		t.Fatalf("password hash leaked from Register")
	}

	stored := repo.accounts["u1"]
	if stored.PasswordHash == "" || stored.PasswordHash == "pw1" {
		t.Fatalf("stored password not hashed: %q", stored.PasswordHash)
	}

	// The returned token must verify against the same token service.
	claims, err := auth.NewTokenService("secret", time.Hour).Verify(token)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if claims.Username != "u1" || claims.IsAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAccountService_Register_Validation(t *testing.T) {
	svc := newTestService(newStubAccountRepo())

	cases := []ports.RegisterInput{
		{Password: "pw", Email: "a@example.com"},
		{Username: "u1", Email: "a@example.com"},
		{Username: "u1", Password: "pw"},
		{Username: "   ", Password: "pw", Email: "a@example.com"},
	}
	for i, input := range cases {
		if _, _, err := svc.Register(context.Background(), input); err != domain.ErrValidation {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestAccountService_Register_Duplicate(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo)

	register(t, svc, "u1", "pw1", false)
	_, _, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "u1",
		Password: "pw2",
		Email:    "other@example.com",
	})
	if err != domain.ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAccountService_Login_Success(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo)
	recorder := &stubRecorder{}
	limiter := &stubLimiter{}
	svc.WithLoginRecorder(recorder).WithLoginLimiter(limiter)

	register(t, svc, "u1", "pw1", false)

	token, account, err := svc.Login(context.Background(), "u1", "pw1")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}
	if account.PasswordHash != "" {
		t.Fatalf("password hash leaked from Login")
	}
	if account.LastLoginAt.IsZero() {
		t.Fatalf("expected last login timestamp on response")
	}
	if limiter.resets != 1 {
		t.Fatalf("expected limiter reset once, got %d", limiter.resets)
	}
	// Register and login both record login events.
	if n := len(recorder.events); n != 2 {
		t.Fatalf("expected 2 recorded logins, got %d", n)
	}
}

func TestAccountService_Login_UniformFailure(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo)

	register(t, svc, "u1", "pw1", false)

	_, _, wrongPassword := svc.Login(context.Background(), "u1", "bad")
	_, _, unknownUser := svc.Login(context.Background(), "ghost", "bad")

	if wrongPassword != domain.ErrInvalidCredentials {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPassword)
	}
	if unknownUser != domain.ErrInvalidCredentials {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", unknownUser)
	}
	if wrongPassword != unknownUser {
		t.Fatalf("failure modes must be indistinguishable: %v vs %v", wrongPassword, unknownUser)
	}
}

func TestAccountService_Login_Locked(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo)
	limiter := &stubLimiter{locked: true}
	svc.WithLoginLimiter(limiter)

	register(t, svc, "u1", "pw1", false)

	// Correct password, but the username is locked out.
	if _, _, err := svc.Login(context.Background(), "u1", "pw1"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials while locked, got %v", err)
	}
}

func TestAccountService_Login_CountsFailures(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo)
	limiter := &stubLimiter{}
	svc.WithLoginLimiter(limiter)

	register(t, svc, "u1", "pw1", false)

	_, _, _ = svc.Login(context.Background(), "u1", "bad")
	_, _, _ = svc.Login(context.Background(), "ghost", "bad")

	if limiter.failures != 2 {
		t.Fatalf("expected 2 registered failures, got %d", limiter.failures)
	}
}

func TestAccountService_Get_Redacts(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo)

	register(t, svc, "u1", "pw1", false)

	account, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if account.PasswordHash != "" {
		t.Fatalf("password hash leaked from Get")
	}

	if _, err := svc.Get(context.Background(), "ghost"); err != domain.ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountService_Update_Authorization(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo)

	register(t, svc, "u1", "pw1", false)
	first := "X"

	// Another non-admin may not touch u1.
	_, err := svc.Update(context.Background(), "u1", ports.AccountPatch{FirstName: &first}, auth.AuthContext{Username: "u2"})
	if err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// The owner may.
	updated, err := svc.Update(context.Background(), "u1", ports.AccountPatch{FirstName: &first}, auth.AuthContext{Username: "u1"})
	if err != nil {
		t.Fatalf("self update failed: %v", err)
	}
	if updated.FirstName != "X" {
		t.Fatalf("update not applied: %+v", updated)
	}

	got, _ := svc.Get(context.Background(), "u1")
	if got.FirstName != "X" {
		t.Fatalf("update not persisted: %+v", got)
	}

	// So may an admin.
	last := "Y"
	if _, err := svc.Update(context.Background(), "u1", ports.AccountPatch{LastName: &last}, auth.AuthContext{Username: "root", IsAdmin: true}); err != nil {
		t.Fatalf("admin update failed: %v", err)
	}
}

func TestAccountService_Update_RehashesPassword(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo)

	register(t, svc, "u1", "pw1", false)
	oldHash := repo.accounts["u1"].PasswordHash

	newPassword := "pw2"
	if _, err := svc.Update(context.Background(), "u1", ports.AccountPatch{Password: &newPassword}, auth.AuthContext{Username: "u1"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	newHash := repo.accounts["u1"].PasswordHash
	if newHash == oldHash {
		t.Fatalf("password hash unchanged")
	}
	if newHash == "pw2" {
		t.Fatalf("plaintext reached the repository")
	}

	// The new password logs in; the old one no longer does.
	if _, _, err := svc.Login(context.Background(), "u1", "pw2"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "u1", "pw1"); err != domain.ErrInvalidCredentials {
		t.Fatalf("old password still accepted: %v", err)
	}
}

func TestAccountService_Update_EmptyPassword(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo)

	register(t, svc, "u1", "pw1", false)
	empty := ""
	if _, err := svc.Update(context.Background(), "u1", ports.AccountPatch{Password: &empty}, auth.AuthContext{Username: "u1"}); err != domain.ErrValidation {
		t.Fatalf("expected ErrValidation for empty password, got %v", err)
	}
}

func TestAccountService_Update_GateBeforeStore(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo)

	// Target absent AND caller unauthorized: the gate decides first, so the
	// caller learns nothing about existence.
	first := "X"
	_, err := svc.Update(context.Background(), "ghost", ports.AccountPatch{FirstName: &first}, auth.AuthContext{Username: "u2"})
	if err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden before store lookup, got %v", err)
	}
}

func TestAccountService_Delete(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo)

	register(t, svc, "u1", "pw1", false)

	if err := svc.Delete(context.Background(), "u1", auth.AuthContext{Username: "u2"}); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), "u1", auth.AuthContext{Username: "u1"}); err != nil {
		t.Fatalf("self delete failed: %v", err)
	}
	// Idempotence: the second delete reports NotFound, never a crash.
	if err := svc.Delete(context.Background(), "u1", auth.AuthContext{Username: "root", IsAdmin: true}); err != domain.ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound on second delete, got %v", err)
	}
}

func TestAccountService_List(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo)

	register(t, svc, "alice", "pw", false)
	register(t, svc, "bob", "pw", true)

	accounts, total, err := svc.List(context.Background(), ports.ListAccountsFilter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 2 || len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d (total %d)", len(accounts), total)
	}
	for _, a := range accounts {
		if a.PasswordHash != "" {
			t.Fatalf("password hash leaked from List")
		}
	}

	admins, _, err := svc.List(context.Background(), ports.ListAccountsFilter{AdminOnly: true})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(admins) != 1 || admins[0].Username != "bob" {
		t.Fatalf("unexpected admin filter result: %+v", admins)
	}
}
