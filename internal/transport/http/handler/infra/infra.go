// Package infra serves operational endpoints: health and metrics.
package infra

import (
	"net/http"
	"time"

	"github.com/mandalnilabja/roboadmin/internal/backend"
	"github.com/mandalnilabja/roboadmin/internal/metrics"
	"github.com/mandalnilabja/roboadmin/internal/session"
)

// Handlers holds the dependencies for infrastructure HTTP handlers.
type Handlers struct {
	Sessions  *session.Registry
	Cache     *backend.Cache
	Metrics   *metrics.Metrics
	StartTime time.Time
}

// New creates a new instance of infrastructure handlers.
func New(sessions *session.Registry, cache *backend.Cache, m *metrics.Metrics, startTime time.Time) *Handlers {
	return &Handlers{
		Sessions:  sessions,
		Cache:     cache,
		Metrics:   m,
		StartTime: startTime,
	}
}

// MetricsHandler serves prometheus metrics, or 404 when metrics are off.
func (h *Handlers) MetricsHandler() http.Handler {
	if h.Metrics == nil {
		return http.NotFoundHandler()
	}
	return h.Metrics.Handler()
}
