package auth

import "github.com/jobly/account-system/internal/core/domain"

// AuthContext is the request-scoped identity derived from a verified token.
// The zero value is the anonymous context.
type AuthContext struct {
	Username string
	IsAdmin  bool
}

// Anonymous reports whether no verified identity is attached.
func (c AuthContext) Anonymous() bool {
	return c.Username == ""
}

// Authenticate recovers the identity carried by raw. A missing, malformed,
// expired, or forged token yields the anonymous context rather than an error;
// downstream gates decide whether anonymous access is acceptable.
func Authenticate(tokens *TokenService, raw string) AuthContext {
	if raw == "" {
		return AuthContext{}
	}
	claims, err := tokens.Verify(raw)
	if err != nil {
		return AuthContext{}
	}
	return AuthContext{Username: claims.Username, IsAdmin: claims.IsAdmin}
}

// RequireAdmin allows only admin identities.
func RequireAdmin(ctx AuthContext) error {
	if !ctx.IsAdmin {
		return domain.ErrForbidden
	}
	return nil
}

// RequireSelfOrAdmin allows the account owner or an admin to act on
// targetUsername. This is the gate that prevents privilege escalation: a
// non-admin caller may only touch their own account.
func RequireSelfOrAdmin(ctx AuthContext, targetUsername string) error {
	if ctx.IsAdmin {
		return nil
	}
	if !ctx.Anonymous() && ctx.Username == targetUsername {
		return nil
	}
	return domain.ErrForbidden
}
