package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jobly/account-system/internal/core/auth"
	"github.com/jobly/account-system/internal/pkg/metrics"
)

// RequireAdmin rejects any request whose verified identity is not an admin.
// Must be mounted after Authenticate.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := AuthFromContext(c)
			if err := auth.RequireAdmin(ctx); err != nil {
				metrics.ForbiddenTotal.WithLabelValues("admin").Inc()
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
