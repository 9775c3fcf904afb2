package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type registerRequest struct {
	Username  string `json:"username"   validate:"required,min=1,max=55"`
	Password  string `json:"password"   validate:"required,min=5,max=55"`
	FirstName string `json:"first_name" validate:"max=30"`
	LastName  string `json:"last_name"  validate:"max=30"`
	Email     string `json:"email"      validate:"required,email"`
	IsAdmin   bool   `json:"is_admin"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// updateAccountRequest carries a partial update. Pointer fields distinguish
// "absent" from "set to empty"; username is immutable and has no field here.
type updateAccountRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=30"`
	LastName  *string `json:"last_name"  validate:"omitempty,max=30"`
	Email     *string `json:"email"      validate:"omitempty,email"`
	Password  *string `json:"password"   validate:"omitempty,min=5,max=55"`
}

// --- Response types ---
// Response-only types owned by the transport layer, deliberately separate
// from domain types so the JSON contract is not coupled to internal changes.
// None of them has a password field.

type accountResponse struct {
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	Email       string     `json:"email,omitempty"`
	IsAdmin     bool       `json:"is_admin"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type tokenResponse struct {
	Token string           `json:"token"`
	User  *accountResponse `json:"user,omitempty"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type listAccountsResponse struct {
	Users      []accountResponse  `json:"users"`
	Pagination paginationResponse `json:"pagination"`
}

type deleteResponse struct {
	Message string `json:"message"`
}
