package service

import "errors"

// Client-facing failure classes. ErrInvalidCredentials deliberately
// covers both "no such account" and "wrong password", and
// ErrInvalidRefreshToken covers malformed, forged and expired tokens as
// well as tokens whose account no longer exists. Collapsing these keeps
// account enumeration off the table; the true reason is only ever
// logged server-side.
var (
	ErrDuplicateEmail      = errors.New("email already in use")
	ErrDuplicateUsername   = errors.New("username already taken")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserNotFound        = errors.New("user not found")
)
