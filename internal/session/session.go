// Package session holds the authentication state of each admin browser
// session and the registry that maps session cookies to it.
package session

import (
	"context"
	"strings"
	"sync"
)

// Session is a point-in-time view of one browser's authentication state.
// IsAuthenticated is true only when Token is non-blank.
type Session struct {
	Token           string
	UserID          string
	IsAuthenticated bool
}

// Store is the source of truth for a single browser session. It is safe for
// concurrent use; readers always get a copy.
//
// The selected broker is a display preference of the browser, not part of
// its authentication state, so it survives SetSession, ClearSession and
// Expire.
type Store struct {
	mu      sync.RWMutex
	current Session
	expired bool
	broker  string
}

// NewStore returns an empty, unauthenticated store.
func NewStore() *Store {
	return &Store{}
}

// SetSession records a login result. A token made only of whitespace is
// treated as absent and leaves the store unauthenticated.
func (s *Store) SetSession(token, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	authenticated := nonBlank(token)
	if !authenticated {
		token = ""
	}
	s.current = Session{
		Token:           token,
		UserID:          userID,
		IsAuthenticated: authenticated,
	}
	s.expired = false
}

// ClearSession resets the store to the empty state.
func (s *Store) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Session{}
	s.expired = false
}

// Expire clears the session and remembers that it ended because the backend
// rejected the token, so the login page can say so.
func (s *Store) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Session{}
	s.expired = true
}

// Expired reports whether the last transition was an expiry.
func (s *Store) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expired
}

// CurrentSession returns a snapshot of the stored session.
func (s *Store) CurrentSession() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetBroker records the broker whose accounts the admin is working with.
func (s *Store) SetBroker(broker string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broker = broker
}

// Broker returns the selected broker, or "" when none was chosen.
func (s *Store) Broker() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.broker
}

func nonBlank(token string) bool {
	return strings.TrimSpace(token) != ""
}

type contextKey struct{}

type bound struct {
	id    string
	store *Store
}

// WithStore attaches the session ID and its store to ctx.
func WithStore(ctx context.Context, id string, store *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, bound{id: id, store: store})
}

// FromContext returns the session bound to ctx. The store is nil when the
// request carries no known session.
func FromContext(ctx context.Context) (string, *Store) {
	if b, ok := ctx.Value(contextKey{}).(bound); ok {
		return b.id, b.store
	}
	return "", nil
}
