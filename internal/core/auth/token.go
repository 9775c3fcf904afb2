package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jobly/account-system/internal/core/domain"
)

// Claims is the payload embedded in every issued token.
type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed identity tokens. The signing secret
// is injected at construction so it can be scoped per deployment or test run;
// it is never read from ambient process state.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. If ttl <= 0, issued tokens carry no
// expiry and remain valid until the secret changes.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given identity using HS256.
func (s *TokenService) Issue(username string, isAdmin bool) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Username: username,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify checks signature integrity and expiry and returns the embedded
// claims. Tampered, malformed, and expired tokens all fail with the same
// domain.ErrInvalidToken so callers cannot distinguish the cases.
func (s *TokenService) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
