package sqlite

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mandalnilabja/roboadmin/internal/storage/encryption"
	"github.com/mandalnilabja/roboadmin/internal/storage/models"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()

	t.Setenv(encryption.KeyEnv, "sqlite-test-key")
	storage, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func newRecord(id string, ttl time.Duration) *models.SessionRecord {
	now := time.Now()
	return &models.SessionRecord{
		ID:        id,
		Token:     "token-" + id,
		UserID:    "user-" + id,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestSessionCRUD(t *testing.T) {
	storage := setupTestDB(t)

	rec := newRecord("s1", time.Hour)
	if err := storage.SaveSession(rec); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	list, err := storage.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 session, got %d", len(list))
	}
	got := list[0]
	if got.Token != rec.Token {
		t.Errorf("expected token %q, got %q", rec.Token, got.Token)
	}
	if got.UserID != rec.UserID {
		t.Errorf("expected user %q, got %q", rec.UserID, got.UserID)
	}
	if got.ExpiresAt.UnixMilli() != rec.ExpiresAt.UnixMilli() {
		t.Errorf("expected expiry %v, got %v", rec.ExpiresAt, got.ExpiresAt)
	}
	if got.Broker != "" {
		t.Errorf("expected no broker, got %q", got.Broker)
	}

	// Upsert replaces the token and broker
	rec.Token = "rotated"
	rec.Broker = "finam_broker"
	if err := storage.SaveSession(rec); err != nil {
		t.Fatalf("SaveSession (update) failed: %v", err)
	}
	list, _ = storage.ListSessions()
	if len(list) != 1 || list[0].Token != "rotated" || list[0].Broker != "finam_broker" {
		t.Errorf("expected single rotated session, got %+v", list)
	}

	if err := storage.DeleteSession("s1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	list, _ = storage.ListSessions()
	if len(list) != 0 {
		t.Errorf("expected no sessions after delete, got %d", len(list))
	}

	if err := storage.DeleteSession("missing"); err != nil {
		t.Errorf("deleting a missing session should succeed, got %v", err)
	}
}

func TestTokenEncryptedAtRest(t *testing.T) {
	storage := setupTestDB(t)

	rec := newRecord("s1", time.Hour)
	if err := storage.SaveSession(rec); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	var stored string
	if err := storage.db.QueryRow("SELECT token FROM sessions WHERE id = ?", "s1").Scan(&stored); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if stored == rec.Token {
		t.Error("token should not be stored in plaintext")
	}
}

func TestListSkipsUndecryptableRows(t *testing.T) {
	storage := setupTestDB(t)

	if err := storage.SaveSession(newRecord("good", time.Hour)); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	if _, err := storage.db.Exec(
		"INSERT INTO sessions (id, token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?, ?)",
		"bad", "not-ciphertext", "", time.Now().UnixMilli(), time.Now().Add(time.Hour).UnixMilli(),
	); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	list, err := storage.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "good" {
		t.Errorf("expected only the decryptable session, got %+v", list)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	storage := setupTestDB(t)

	_ = storage.SaveSession(newRecord("live", time.Hour))
	_ = storage.SaveSession(newRecord("dead1", -time.Hour))
	_ = storage.SaveSession(newRecord("dead2", -time.Minute))

	n, err := storage.DeleteExpiredSessions(time.Now())
	if err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}

	list, _ := storage.ListSessions()
	if len(list) != 1 || list[0].ID != "live" {
		t.Errorf("expected only the live session, got %+v", list)
	}
}

func TestSaveSessionInvalidInput(t *testing.T) {
	storage := setupTestDB(t)

	if err := storage.SaveSession(nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil, got %v", err)
	}
	if err := storage.SaveSession(&models.SessionRecord{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty id, got %v", err)
	}
}

func TestClosedStorage(t *testing.T) {
	storage := setupTestDB(t)
	if err := storage.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := storage.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}

	if err := storage.SaveSession(newRecord("s", time.Hour)); !errors.Is(err, ErrStorageClosed) {
		t.Errorf("SaveSession: expected ErrStorageClosed, got %v", err)
	}
	if err := storage.DeleteSession("s"); !errors.Is(err, ErrStorageClosed) {
		t.Errorf("DeleteSession: expected ErrStorageClosed, got %v", err)
	}
	if _, err := storage.ListSessions(); !errors.Is(err, ErrStorageClosed) {
		t.Errorf("ListSessions: expected ErrStorageClosed, got %v", err)
	}
	if _, err := storage.DeleteExpiredSessions(time.Now()); !errors.Is(err, ErrStorageClosed) {
		t.Errorf("DeleteExpiredSessions: expected ErrStorageClosed, got %v", err)
	}
}

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	key, _ := encryption.DeriveKey([]byte("mock"))
	enc, _ := encryption.NewWithKey(key)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sessions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("pragma_table_info").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	storage, err := NewWithDB(db, enc)
	if err != nil {
		t.Fatalf("NewWithDB failed: %v", err)
	}
	return storage, mock
}

func TestListSessionsQueryError(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectQuery("SELECT id, token, user_id, broker, created_at, expires_at").
		WillReturnError(errors.New("database is locked"))

	if _, err := storage.ListSessions(); err == nil {
		t.Error("expected query error to propagate")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListSessionsScanError(t *testing.T) {
	storage, mock := newMockStorage(t)

	rows := sqlmock.NewRows([]string{"id", "token", "user_id", "broker", "created_at", "expires_at"}).
		AddRow("s1", "x", "u", "", "not-a-number", int64(0))
	mock.ExpectQuery("SELECT id, token, user_id, broker, created_at, expires_at").WillReturnRows(rows)

	if _, err := storage.ListSessions(); err == nil {
		t.Error("expected scan error")
	}
}

func TestNewWithDBSchemaError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("read-only file system"))

	key, _ := encryption.DeriveKey([]byte("mock"))
	enc, _ := encryption.NewWithKey(key)
	if _, err := NewWithDB(db, enc); err == nil {
		t.Error("expected schema error")
	}
}

func TestMigrateAddsBrokerColumn(t *testing.T) {
	t.Setenv(encryption.KeyEnv, "sqlite-test-key")
	path := filepath.Join(t.TempDir(), "old.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE sessions (
		id TEXT PRIMARY KEY,
		token TEXT NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	)`); err != nil {
		t.Fatalf("create old table failed: %v", err)
	}
	db.Close()

	storage, err := New(path)
	if err != nil {
		t.Fatalf("New on an old database failed: %v", err)
	}
	t.Cleanup(func() { storage.Close() })

	rec := newRecord("s1", time.Hour)
	rec.Broker = "tradernet_ff"
	if err := storage.SaveSession(rec); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	list, err := storage.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(list) != 1 || list[0].Broker != "tradernet_ff" {
		t.Errorf("expected migrated broker column, got %+v", list)
	}
}

func TestMigrateError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("pragma_table_info").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec("ALTER TABLE sessions ADD COLUMN broker").WillReturnError(errors.New("disk I/O error"))

	key, _ := encryption.DeriveKey([]byte("mock"))
	enc, _ := encryption.NewWithKey(key)
	if _, err := NewWithDB(db, enc); err == nil {
		t.Error("expected migration error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
