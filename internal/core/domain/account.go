package domain

import "time"

// Account models one registered identity in the system.
//
// PasswordHash is excluded from JSON serialization permanently; the only
// component allowed to read it is the account service during credential
// verification.
type Account struct {
	ID           string    `json:"id,omitempty"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Email        string    `json:"email,omitempty"`
	IsAdmin      bool      `json:"is_admin"`
	LastLoginAt  time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Redacted returns a copy safe to hand to callers: the password hash is
// cleared so it cannot leak through reflection-based encoders either.
func (a *Account) Redacted() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	clone.PasswordHash = ""
	return &clone
}
