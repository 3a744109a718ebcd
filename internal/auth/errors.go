package auth

import "errors"

var (
	// ErrUserNotFound and ErrInvalidCredentials are distinct for callers
	// inside the service; the HTTP layer surfaces both identically so a
	// client cannot probe which emails exist.
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	ErrTokenNotFound        = errors.New("auth: token expired or was not created")
	ErrOrganizationNotFound = errors.New("auth: organization not found")
	ErrUserAlreadyExists    = errors.New("auth: user already exists")
)
