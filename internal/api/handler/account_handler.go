package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jobly/account-system/internal/api/middleware"
	"github.com/jobly/account-system/internal/core/auth"
	"github.com/jobly/account-system/internal/core/ports"
)

// AccountHandler handles HTTP requests for account operations. Domain errors
// returned from here are mapped to status codes by the central error handler.
type AccountHandler struct {
	service ports.AccountService
}

func NewAccountHandler(service ports.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// Register handles POST /users.
//
// @Summary      Register a new account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account registration details"
// @Success      201   {object}  tokenResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /users [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	// Only an existing admin may mint another admin.
	if req.IsAdmin {
		if err := auth.RequireAdmin(middleware.AuthFromContext(c)); err != nil {
			return err
		}
	}

	token, account, err := h.service.Register(c.Request().Context(), ports.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		IsAdmin:   req.IsAdmin,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, tokenResponse{Token: token, User: toAccountResponse(account)})
}

// List handles GET /users.
//
// @Summary      List accounts
// @Tags         accounts
// @Produce      json
// @Param        search  query     string  false  "Partial match on username or name"
// @Param        page    query     int     false  "Page number (1-based)"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Success      200     {object}  listAccountsResponse
// @Router       /users [get]
func (h *AccountHandler) List(c echo.Context) error {
	filter := ports.ListAccountsFilter{
		Search:    c.QueryParam("search"),
		Email:     c.QueryParam("email"),
		AdminOnly: c.QueryParam("is_admin") == "true",
	}
	filter.Page, _ = strconv.Atoi(c.QueryParam("page"))
	filter.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	accounts, total, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	users := make([]accountResponse, len(accounts))
	for i, a := range accounts {
		users[i] = *toAccountResponse(a)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = len(users)
	}
	totalPages := 0
	if filter.Limit > 0 {
		totalPages = int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	}

	return c.JSON(http.StatusOK, listAccountsResponse{
		Users: users,
		Pagination: paginationResponse{
			Total:      total,
			Page:       filter.Page,
			Limit:      filter.Limit,
			TotalPages: totalPages,
		},
	})
}

// Get handles GET /users/:username. Reads are public; the password hash is
// redacted before the account ever reaches this layer.
//
// @Summary      Get an account by username
// @Tags         accounts
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  accountResponse
// @Failure      404       {object}  errorResponse
// @Router       /users/{username} [get]
func (h *AccountHandler) Get(c echo.Context) error {
	account, err := h.service.Get(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// Update handles PATCH /users/:username.
//
// @Summary      Update an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string                true  "Username"
// @Param        body      body      updateAccountRequest  true  "Fields to update"
// @Success      200       {object}  accountResponse
// @Failure      403       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Failure      422       {object}  errorResponse
// @Router       /users/{username} [patch]
func (h *AccountHandler) Update(c echo.Context) error {
	var req updateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	account, err := h.service.Update(c.Request().Context(), c.Param("username"), ports.AccountPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	}, middleware.AuthFromContext(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// Delete handles DELETE /users/:username. Deletion is permanent once the
// self-or-admin gate allows it.
//
// @Summary      Delete an account
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  deleteResponse
// @Failure      403       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /users/{username} [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	username := c.Param("username")
	if err := h.service.Delete(c.Request().Context(), username, middleware.AuthFromContext(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deleteResponse{Message: "user deleted"})
}
