package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown identifier and wrong secret;
	// login failures never reveal which half was wrong.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrInvalidToken indicates the session token failed validation.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrPermissionDenied is the root of every authorization denial.
	ErrPermissionDenied = errors.New("auth: permission denied")

	ErrInvalidInput = errors.New("auth: invalid input")
)
