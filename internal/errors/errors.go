package errors

import (
	"errors"
)

// Closed set of error kinds signalled by the auth service. Handlers map
// these to HTTP status codes; anything outside the set is an internal error.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked due to multiple failed login attempts")
	ErrEmailAlreadyInUse  = errors.New("email already in use")
	ErrWeakPassword       = errors.New("password does not meet strength requirements")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrSessionNotFound    = errors.New("refresh token not found")
	ErrSessionRevoked     = errors.New("refresh token revoked")
	ErrSessionExpired     = errors.New("refresh token expired")
	ErrForbidden          = errors.New("insufficient permissions")
)
