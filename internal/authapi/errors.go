package authapi

import "errors"

// Login failures. Malformed responses wrap both ErrAuthFailure and
// ErrInvalidResponseFormat.
var (
	ErrAuthFailure           = errors.New("authentication failed")
	ErrInvalidResponseFormat = errors.New("invalid response format")
	ErrNetworkFailure        = errors.New("auth service unreachable")
)
