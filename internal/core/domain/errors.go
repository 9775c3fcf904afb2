package domain

import "errors"

var ErrAccountNotFound = errors.New("account not found")
var ErrUsernameTaken = errors.New("username already taken")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrInvalidToken = errors.New("invalid token")
var ErrForbidden = errors.New("access forbidden")
var ErrValidation = errors.New("invalid fields")
