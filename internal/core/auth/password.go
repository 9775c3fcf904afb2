package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher performs one-way hashing and verification of plaintext passwords.
// Cost is the bcrypt work factor; higher values make brute forcing more
// expensive at the price of CPU time per call.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost. Values outside the
// bcrypt range fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash derives a salted digest from plaintext. The output differs between
// calls for the same input because the salt is random.
func (h *Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A mismatch is not an
// error; it simply returns false.
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
