// Package sqlite provides SQLite-based storage implementation.
package sqlite

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/mandalnilabja/roboadmin/internal/storage/encryption"
	_ "modernc.org/sqlite"
)

// Storage implements the storage.Storage interface using SQLite
type Storage struct {
	db        *sql.DB
	encryptor encryption.Encryptor
	mu        sync.RWMutex
	closed    bool
}

// New opens (or creates) the database at dbPath.
func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	enc, err := encryption.New()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	s, err := NewWithDB(db, enc)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an open database handle and ensures the schema exists.
func NewWithDB(db *sql.DB, enc encryption.Encryptor) (*Storage, error) {
	s := &Storage{
		db:        db,
		encryptor: enc,
	}
	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return s, nil
}

// createSchema creates the database schema
func (s *Storage) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		token       TEXT NOT NULL,
		user_id     TEXT NOT NULL DEFAULT '',
		broker      TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL,
		expires_at  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.migrate()
}

// migrate brings tables created by older releases up to the current schema.
func (s *Storage) migrate() error {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('sessions') WHERE name = 'broker'").Scan(&n)
	if err != nil {
		return fmt.Errorf("inspect sessions table: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.db.Exec("ALTER TABLE sessions ADD COLUMN broker TEXT NOT NULL DEFAULT ''"); err != nil {
		return fmt.Errorf("add broker column: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
