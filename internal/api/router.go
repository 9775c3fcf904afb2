package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jobly/account-system/internal/api/handler"
	"github.com/jobly/account-system/internal/api/middleware"
	"github.com/jobly/account-system/internal/core/auth"
	"github.com/jobly/account-system/internal/core/ports"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(accounts ports.AccountService, tokens *auth.TokenService, db *mongo.Database, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("account"))
	e.Use(middleware.Authenticate(tokens))

	// --- Handlers ---
	accountHandler := handler.NewAccountHandler(accounts)
	authHandler := handler.NewAuthHandler(accounts)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)

	// --- Account routes ---
	// Registration and single-account reads are public; mutations are gated
	// inside the service by the self-or-admin check using the identity
	// injected above. Listing all accounts is admin only.
	e.POST("/users", accountHandler.Register)
	e.GET("/users", accountHandler.List, middleware.RequireAdmin())
	e.GET("/users/:username", accountHandler.Get)
	e.PATCH("/users/:username", accountHandler.Update)
	e.DELETE("/users/:username", accountHandler.Delete)

	// --- Observability (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
