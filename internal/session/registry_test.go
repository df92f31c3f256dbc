package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mandalnilabja/roboadmin/internal/storage/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memPersister struct {
	mu      sync.Mutex
	records map[string]*models.SessionRecord
	listErr error
}

func newMemPersister() *memPersister {
	return &memPersister{records: make(map[string]*models.SessionRecord)}
}

func (p *memPersister) SaveSession(rec *models.SessionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := *rec
	p.records[rec.ID] = &cp
	return nil
}

func (p *memPersister) DeleteSession(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.records, id)
	return nil
}

func (p *memPersister) ListSessions() ([]*models.SessionRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listErr != nil {
		return nil, p.listErr
	}
	out := make([]*models.SessionRecord, 0, len(p.records))
	for _, rec := range p.records {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (p *memPersister) DeleteExpiredSessions(before time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var n int64
	for id, rec := range p.records {
		if rec.ExpiresAt.Before(before) {
			delete(p.records, id)
			n++
		}
	}
	return n, nil
}

func (p *memPersister) has(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.records[id]
	return ok
}

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry(RegistryOptions{TTL: time.Hour})
	defer r.Close()

	assert.True(t, r.Ready(), "registry without persister starts ready")

	id, store, err := r.Create()
	require.NoError(t, err)
	assert.Len(t, id, idLength)
	assert.Same(t, store, r.Get(id))
	assert.Nil(t, r.Get("missing"))
	assert.Nil(t, r.Get(""))
}

func TestRegistryIDsAreUnique(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	defer r.Close()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, _, err := r.Create()
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate session id")
		seen[id] = true
	}
}

func TestRegistryExpiredEntryIsInvisible(t *testing.T) {
	r := NewRegistry(RegistryOptions{TTL: time.Millisecond})
	defer r.Close()

	id, _, err := r.Create()
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	assert.Nil(t, r.Get(id))
}

func TestRegistrySweep(t *testing.T) {
	p := newMemPersister()
	r := NewRegistry(RegistryOptions{TTL: time.Hour, Persister: p})
	defer r.Close()

	id, store, err := r.Create()
	require.NoError(t, err)
	store.SetSession("abc123", "u1")
	require.NoError(t, r.Persist(id))

	r.sweep(time.Now().Add(2 * time.Hour))

	assert.Equal(t, 0, r.Len())
	assert.False(t, p.has(id))
}

func TestRegistryPersistWritesOnlyAuthenticated(t *testing.T) {
	p := newMemPersister()
	r := NewRegistry(RegistryOptions{TTL: time.Hour, Persister: p})
	defer r.Close()

	id, store, err := r.Create()
	require.NoError(t, err)

	require.NoError(t, r.Persist(id))
	assert.False(t, p.has(id))

	store.SetSession("abc123", "u1")
	store.SetBroker("tradernet_ff")
	require.NoError(t, r.Persist(id))
	require.True(t, p.has(id))
	assert.Equal(t, "abc123", p.records[id].Token)
	assert.Equal(t, "tradernet_ff", p.records[id].Broker)

	store.ClearSession()
	require.NoError(t, r.Persist(id))
	assert.False(t, p.has(id))
}

func TestRegistryExpire(t *testing.T) {
	p := newMemPersister()
	r := NewRegistry(RegistryOptions{TTL: time.Hour, Persister: p})
	defer r.Close()

	id, store, err := r.Create()
	require.NoError(t, err)
	store.SetSession("abc123", "u1")
	require.NoError(t, r.Persist(id))

	require.NoError(t, r.Expire(id))

	assert.False(t, store.CurrentSession().IsAuthenticated)
	assert.True(t, store.Expired())
	assert.False(t, p.has(id))
}

func TestRegistryDelete(t *testing.T) {
	p := newMemPersister()
	r := NewRegistry(RegistryOptions{Persister: p})
	defer r.Close()

	id, store, err := r.Create()
	require.NoError(t, err)
	store.SetSession("abc123", "u1")
	require.NoError(t, r.Persist(id))

	require.NoError(t, r.Delete(id))
	assert.Nil(t, r.Get(id))
	assert.False(t, p.has(id))
}

func TestRegistryRehydrate(t *testing.T) {
	p := newMemPersister()
	now := time.Now()
	p.records["valid"] = &models.SessionRecord{ID: "valid", Token: "tok", UserID: "u1", Broker: "finam_broker", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	p.records["stale"] = &models.SessionRecord{ID: "stale", Token: "tok", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	p.records["blank"] = &models.SessionRecord{ID: "blank", Token: "   ", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	r := NewRegistry(RegistryOptions{TTL: time.Hour, Persister: p})
	defer r.Close()

	assert.False(t, r.Ready(), "registry with persister waits for rehydration")

	n, err := r.Rehydrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, r.Ready())

	store := r.Get("valid")
	require.NotNil(t, store)
	assert.Equal(t, Session{Token: "tok", UserID: "u1", IsAuthenticated: true}, store.CurrentSession())
	assert.Equal(t, "finam_broker", store.Broker())
	assert.Nil(t, r.Get("stale"))
	assert.Nil(t, r.Get("blank"))
}

func TestRegistryRehydrateFailureStillBecomesReady(t *testing.T) {
	p := newMemPersister()
	p.listErr = errors.New("disk on fire")

	r := NewRegistry(RegistryOptions{Persister: p})
	defer r.Close()

	_, err := r.Rehydrate(context.Background())
	require.Error(t, err)
	assert.True(t, r.Ready())
	assert.Equal(t, 0, r.Len())
}

func TestRegistryCloseIsIdempotent(t *testing.T) {
	r := NewRegistry(RegistryOptions{CleanupInterval: time.Millisecond})
	r.Close()
	r.Close()
}
