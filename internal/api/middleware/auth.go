package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jobly/account-system/internal/core/auth"
	"github.com/jobly/account-system/internal/pkg/metrics"
)

// authContextKey is where the verified identity is stored on the echo context.
const authContextKey = "auth_context"

// Authenticate recovers the caller's identity from the Authorization header
// and injects it into the request context. A missing, malformed, or invalid
// bearer token yields the anonymous context instead of a 401: whether
// anonymous access is acceptable is decided by the downstream gates, not here.
func Authenticate(tokens *auth.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				metrics.TokenVerificationsTotal.WithLabelValues("absent").Inc()
				c.Set(authContextKey, auth.AuthContext{})
				return next(c)
			}

			ctx := auth.Authenticate(tokens, raw)
			if ctx.Anonymous() {
				metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
			} else {
				metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()
			}

			c.Set(authContextKey, ctx)
			return next(c)
		}
	}
}

// AuthFromContext returns the identity injected by Authenticate. The zero
// value (anonymous) is returned when the middleware did not run.
func AuthFromContext(c echo.Context) auth.AuthContext {
	ctx, _ := c.Get(authContextKey).(auth.AuthContext)
	return ctx
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
