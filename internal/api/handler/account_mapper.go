package handler

import (
	"github.com/jobly/account-system/internal/core/domain"
)

func toAccountResponse(a *domain.Account) *accountResponse {
	if a == nil {
		return nil
	}
	resp := &accountResponse{
		Username:  a.Username,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		IsAdmin:   a.IsAdmin,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if !a.LastLoginAt.IsZero() {
		t := a.LastLoginAt
		resp.LastLoginAt = &t
	}
	return resp
}
