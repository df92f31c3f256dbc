// Package webui serves the server-rendered admin pages: login, the admin
// shell, the error page and static assets.
package webui

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/mandalnilabja/roboadmin/internal/authapi"
	"github.com/mandalnilabja/roboadmin/internal/failure"
	"github.com/mandalnilabja/roboadmin/internal/gate"
	"github.com/mandalnilabja/roboadmin/internal/metrics"
	"github.com/mandalnilabja/roboadmin/internal/session"
	"github.com/mandalnilabja/roboadmin/web"
)

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, creds authapi.Credentials) (authapi.Result, error)
	Logout(ctx context.Context, token string) error
}

// Options configures Handlers.
type Options struct {
	Auth           Authenticator
	Sessions       *session.Registry
	Failures       *failure.Recorder
	Metrics        *metrics.Metrics
	Gate           gate.Gate
	CookieName     string
	SecondaryField string
	Logger         *slog.Logger
}

// Handlers holds the dependencies for web UI HTTP handlers.
type Handlers struct {
	Auth           Authenticator
	Sessions       *session.Registry
	Failures       *failure.Recorder
	Metrics        *metrics.Metrics
	Gate           gate.Gate
	CookieName     string
	SecondaryField string
	Logger         *slog.Logger

	templates *template.Template
	logins    singleflight.Group
}

// New parses the embedded templates and returns the web UI handlers.
func New(opts Options) (*Handlers, error) {
	tmpl, err := template.ParseFS(web.FS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Failures == nil {
		opts.Failures = failure.NewRecorder()
	}

	return &Handlers{
		Auth:           opts.Auth,
		Sessions:       opts.Sessions,
		Failures:       opts.Failures,
		Metrics:        opts.Metrics,
		Gate:           opts.Gate,
		CookieName:     opts.CookieName,
		SecondaryField: opts.SecondaryField,
		Logger:         opts.Logger,
		templates:      tmpl,
	}, nil
}

// render executes a template into a buffer first so a template error never
// leaves a half-written page.
func (h *Handlers) render(w http.ResponseWriter, name string, status int, data any) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.Logger.Error("render template", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handlers) loginPath() string {
	if h.Gate.LoginPath == "" {
		return gate.DefaultLoginPath
	}
	return h.Gate.LoginPath
}

func (h *Handlers) landingPath() string {
	if h.Gate.LandingPath == "" {
		return gate.DefaultLandingPath
	}
	return h.Gate.LandingPath
}
