// Package failure keeps the most recent unhandled failure so the public
// error page can show it.
package failure

import (
	"sync"
	"time"
)

// Failure describes one recovered panic or fatal handler error.
type Failure struct {
	Message    string
	Detail     string
	RequestID  string
	Path       string
	OccurredAt time.Time
}

// Recorder holds the last captured failure. The zero value is ready to use.
type Recorder struct {
	mu   sync.RWMutex
	last *Failure
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record replaces the last failure. OccurredAt defaults to now.
func (r *Recorder) Record(f Failure) {
	if f.OccurredAt.IsZero() {
		f.OccurredAt = time.Now()
	}
	r.mu.Lock()
	r.last = &f
	r.mu.Unlock()
}

// Last returns a copy of the most recent failure.
func (r *Recorder) Last() (Failure, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return Failure{}, false
	}
	return *r.last, true
}

// Reset forgets the last failure.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.last = nil
	r.mu.Unlock()
}
