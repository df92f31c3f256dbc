package sqlite

import (
	"fmt"
	"time"

	"github.com/mandalnilabja/roboadmin/internal/storage/models"
)

// SaveSession inserts or replaces a session. The token is encrypted first.
func (s *Storage) SaveSession(rec *models.SessionRecord) error {
	if rec == nil || rec.ID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	sealed, err := s.encryptor.Encrypt(rec.Token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncryptionError, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO sessions (id, token, user_id, broker, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			user_id = excluded.user_id,
			broker = excluded.broker,
			expires_at = excluded.expires_at
	`, rec.ID, sealed, rec.UserID, rec.Broker, rec.CreatedAt.UnixMilli(), rec.ExpiresAt.UnixMilli())
	return err
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (s *Storage) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	return err
}

// ListSessions returns every stored session with its token decrypted.
// Rows that no longer decrypt (for example after a key change) are skipped.
func (s *Storage) ListSessions() ([]*models.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	rows, err := s.db.Query(`
		SELECT id, token, user_id, broker, created_at, expires_at
		FROM sessions
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.SessionRecord
	for rows.Next() {
		var (
			rec                  models.SessionRecord
			sealed               string
			createdAt, expiresAt int64
		)
		if err := rows.Scan(&rec.ID, &sealed, &rec.UserID, &rec.Broker, &createdAt, &expiresAt); err != nil {
			return nil, err
		}

		token, err := s.encryptor.Decrypt(sealed)
		if err != nil {
			continue
		}
		rec.Token = token
		rec.CreatedAt = time.UnixMilli(createdAt)
		rec.ExpiresAt = time.UnixMilli(expiresAt)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// DeleteExpiredSessions removes sessions that expired before the given time.
func (s *Storage) DeleteExpiredSessions(before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStorageClosed
	}

	res, err := s.db.Exec("DELETE FROM sessions WHERE expires_at < ?", before.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
