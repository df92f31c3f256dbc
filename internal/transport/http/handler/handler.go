// Package handler composes the HTTP handler packages.
package handler

import (
	"time"

	"github.com/mandalnilabja/roboadmin/internal/backend"
	"github.com/mandalnilabja/roboadmin/internal/metrics"
	"github.com/mandalnilabja/roboadmin/internal/session"
	"github.com/mandalnilabja/roboadmin/internal/transport/http/handler/infra"
	"github.com/mandalnilabja/roboadmin/internal/transport/http/handler/proxy"
	"github.com/mandalnilabja/roboadmin/internal/transport/http/handler/webui"
)

// Repo composes all domain-specific handlers.
type Repo struct {
	WebUI *webui.Handlers
	Proxy *proxy.Handlers
	Infra *infra.Handlers
}

// NewRepo creates a new instance of the composed handler repository.
func NewRepo(web *webui.Handlers, client *backend.Client, cache *backend.Cache, sessions *session.Registry, m *metrics.Metrics) *Repo {
	startTime := time.Now()
	return &Repo{
		WebUI: web,
		Proxy: proxy.New(client, web.Logger),
		Infra: infra.New(sessions, cache, m, startTime),
	}
}
