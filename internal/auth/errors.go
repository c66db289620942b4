package auth

import "errors"

var (
	// login only; never says whether the username exists
	ErrInvalidCredentials = errors.New("invalid credentials")
	// missing, invalid or expired bearer token
	ErrUnauthenticated = errors.New("unauthenticated")
	// authenticated, but not allowed to touch the target resource
	ErrForbidden = errors.New("forbidden")

	ErrExpired          = errors.New("token expired")
	ErrMalformed        = errors.New("token malformed")
	ErrInvalidSignature = errors.New("token signature invalid")
)
