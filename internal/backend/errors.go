package backend

import "errors"

var (
	// ErrSessionExpired is returned when the back office answers 401.
	ErrSessionExpired = errors.New("session expired")
	// ErrUnavailable wraps transport level failures.
	ErrUnavailable = errors.New("back office unavailable")
)
