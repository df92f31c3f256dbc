package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mandalnilabja/roboadmin/internal/storage/models"
)

// Persister stores authenticated sessions across restarts.
type Persister interface {
	SaveSession(rec *models.SessionRecord) error
	DeleteSession(id string) error
	ListSessions() ([]*models.SessionRecord, error)
	DeleteExpiredSessions(before time.Time) (int64, error)
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// TTL is how long a session cookie stays valid after creation.
	TTL time.Duration

	// CleanupInterval controls how often expired sessions are swept.
	// Defaults to one minute.
	CleanupInterval time.Duration

	// Persister enables rehydration. When nil the registry is ready at once.
	Persister Persister

	Logger *slog.Logger
}

type entry struct {
	store     *Store
	createdAt time.Time
	expiresAt time.Time
}

// Registry maps session cookie IDs to their stores.
type Registry struct {
	entries   map[string]*entry
	mu        sync.RWMutex
	ttl       time.Duration
	persister Persister
	logger    *slog.Logger
	ready     atomic.Bool

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewRegistry creates a registry and starts its background cleanup.
// Call Close to stop it.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.TTL <= 0 {
		opts.TTL = 12 * time.Hour
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r := &Registry{
		entries:   make(map[string]*entry),
		ttl:       opts.TTL,
		persister: opts.Persister,
		logger:    opts.Logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	if r.persister == nil {
		r.ready.Store(true)
	}

	go r.cleanup(opts.CleanupInterval)
	return r
}

// Ready reports whether rehydration has completed. Until then every lookup
// must be treated as unauthenticated.
func (r *Registry) Ready() bool {
	return r.ready.Load()
}

// TTL returns the lifetime given to new sessions.
func (r *Registry) TTL() time.Duration {
	return r.ttl
}

// Create registers a new empty session and returns its ID.
func (r *Registry) Create() (string, *Store, error) {
	id, err := newSessionID()
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	e := &entry{
		store:     NewStore(),
		createdAt: now,
		expiresAt: now.Add(r.ttl),
	}

	r.mu.Lock()
	r.entries[id] = e
	r.mu.Unlock()

	return id, e.store, nil
}

// Get returns the store for id, or nil if it is unknown or expired.
func (r *Registry) Get(id string) *Store {
	if id == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e := r.entries[id]
	if e == nil || time.Now().After(e.expiresAt) {
		return nil
	}
	return e.store
}

// ExpiresAt returns the expiry time of a live session.
func (r *Registry) ExpiresAt(id string) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e := r.entries[id]
	if e == nil {
		return time.Time{}, false
	}
	return e.expiresAt, true
}

// Len returns the number of tracked sessions, expired ones included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Delete forgets a session and removes it from persistent storage.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()

	if r.persister == nil {
		return nil
	}
	if err := r.persister.DeleteSession(id); err != nil {
		return fmt.Errorf("delete persisted session: %w", err)
	}
	return nil
}

// Persist writes the current state of a session through to storage.
// Unauthenticated sessions are removed instead of stored.
func (r *Registry) Persist(id string) error {
	if r.persister == nil {
		return nil
	}

	r.mu.RLock()
	e := r.entries[id]
	r.mu.RUnlock()
	if e == nil {
		return nil
	}

	snap := e.store.CurrentSession()
	if !snap.IsAuthenticated {
		if err := r.persister.DeleteSession(id); err != nil {
			return fmt.Errorf("delete persisted session: %w", err)
		}
		return nil
	}

	rec := &models.SessionRecord{
		ID:        id,
		Token:     snap.Token,
		UserID:    snap.UserID,
		Broker:    e.store.Broker(),
		CreatedAt: e.createdAt,
		ExpiresAt: e.expiresAt,
	}
	if err := r.persister.SaveSession(rec); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Expire marks a session as rejected by the backend: the store is cleared
// with the expiry flag set and the persisted copy is dropped.
func (r *Registry) Expire(id string) error {
	if store := r.Get(id); store != nil {
		store.Expire()
	}
	if r.persister == nil {
		return nil
	}
	if err := r.persister.DeleteSession(id); err != nil {
		return fmt.Errorf("delete persisted session: %w", err)
	}
	return nil
}

// Rehydrate restores persisted sessions. Expired records and records with a
// blank token are skipped. The registry is marked ready even when loading
// fails, so an unreadable store degrades to "everyone logs in again".
func (r *Registry) Rehydrate(ctx context.Context) (int, error) {
	defer r.ready.Store(true)

	if r.persister == nil {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	records, err := r.persister.ListSessions()
	if err != nil {
		return 0, fmt.Errorf("rehydrate sessions: %w", err)
	}

	restored := 0
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		if rec.IsExpired() || strings.TrimSpace(rec.Token) == "" {
			continue
		}
		store := NewStore()
		store.SetSession(rec.Token, rec.UserID)
		store.SetBroker(rec.Broker)
		r.entries[rec.ID] = &entry{
			store:     store,
			createdAt: rec.CreatedAt,
			expiresAt: rec.ExpiresAt,
		}
		restored++
	}
	return restored, nil
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
		<-r.done
	})
}

// cleanup removes expired sessions on every tick until Close is called.
func (r *Registry) cleanup(interval time.Duration) {
	defer close(r.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sweep(time.Now())
		}
	}
}

func (r *Registry) sweep(now time.Time) {
	r.mu.Lock()
	for id, e := range r.entries {
		if now.After(e.expiresAt) {
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	if r.persister == nil {
		return
	}
	if n, err := r.persister.DeleteExpiredSessions(now); err != nil {
		r.logger.Warn("session cleanup failed", "error", err)
	} else if n > 0 {
		r.logger.Debug("expired sessions removed", "count", n)
	}
}
