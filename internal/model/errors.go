package model

import "errors"

var (
	// Credential and session errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailUnconfirmed   = errors.New("email not confirmed")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidToken       = errors.New("invalid token")

	// User store errors
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already registered")
)
