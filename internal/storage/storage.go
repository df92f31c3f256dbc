// Package storage provides the storage interface and implementations.
package storage

import (
	"time"

	"github.com/mandalnilabja/roboadmin/internal/storage/models"
	"github.com/mandalnilabja/roboadmin/internal/storage/sqlite"
)

// Re-export types from models package for convenience
type SessionRecord = models.SessionRecord

// Re-export errors from sqlite package
var (
	ErrInvalidInput    = sqlite.ErrInvalidInput
	ErrStorageClosed   = sqlite.ErrStorageClosed
	ErrEncryptionError = sqlite.ErrEncryptionError
)

// Storage defines the interface for persistent data storage
type Storage interface {
	// Session operations
	SaveSession(rec *models.SessionRecord) error
	DeleteSession(id string) error
	ListSessions() ([]*models.SessionRecord, error)
	DeleteExpiredSessions(before time.Time) (int64, error)

	// Maintenance operations
	Close() error
}

// NewSQLiteStorage creates a new SQLite storage instance
// This is the main factory function for creating storage
func NewSQLiteStorage(dbPath string) (Storage, error) {
	return sqlite.New(dbPath)
}
