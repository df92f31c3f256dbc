package sqlite

import "errors"

// Common errors returned by storage operations
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrStorageClosed   = errors.New("storage is closed")
	ErrEncryptionError = errors.New("encryption error")
)
