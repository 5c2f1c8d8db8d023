package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidRole        = errors.New("invalid role")

	ErrTokenMalformed     = errors.New("token is malformed")
	ErrTokenExpired       = errors.New("token is expired")
	ErrTokenMissingClaims = errors.New("token is missing required claims")
	ErrSecretMissing      = errors.New("signing secret is not configured")
)
