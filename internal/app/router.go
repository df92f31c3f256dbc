package app

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mandalnilabja/roboadmin/internal/failure"
	"github.com/mandalnilabja/roboadmin/internal/metrics"
	"github.com/mandalnilabja/roboadmin/internal/session"
	"github.com/mandalnilabja/roboadmin/internal/transport/http/handler"
	"github.com/mandalnilabja/roboadmin/internal/transport/http/middleware"
	"github.com/mandalnilabja/roboadmin/internal/transport/http/middleware/auth"
	"github.com/mandalnilabja/roboadmin/internal/transport/http/middleware/ratelimit"
)

// RouterOptions configures the HTTP router behavior.
type RouterOptions struct {
	Logger     *slog.Logger
	Sessions   *session.Registry
	Enforcer   *auth.Enforcer
	Failures   *failure.Recorder
	Metrics    *metrics.Metrics
	CookieName string

	// LoginLimiter throttles POST /login per client IP when LoginRateLimit
	// is positive.
	LoginLimiter   *ratelimit.Limiter
	LoginRateLimit int

	// CORSOrigins may call the API cross-origin with the session cookie.
	CORSOrigins []string
}

// NewRouter creates and configures the HTTP router with all application routes.
// Returns an http.Handler with middleware applied.
func NewRouter(repo *handler.Repo, opts *RouterOptions) http.Handler {
	r := mux.NewRouter()
	e := opts.Enforcer

	// "/" never renders, it always resolves to login or the landing page
	r.Handle("/", e.Root()).Methods(http.MethodGet, http.MethodHead)

	// Signed-out pages
	r.Handle("/login", e.PublicOnly(http.HandlerFunc(repo.WebUI.LoginPage))).Methods(http.MethodGet)
	var login http.Handler = http.HandlerFunc(repo.WebUI.Login)
	if opts.LoginLimiter != nil && opts.LoginRateLimit > 0 {
		login = ratelimit.ByClientIP(opts.LoginLimiter, opts.LoginRateLimit, http.HandlerFunc(repo.WebUI.Throttled))(login)
	}
	r.Handle("/login", e.PublicOnly(login)).Methods(http.MethodPost)
	r.HandleFunc("/logout", repo.WebUI.Logout).Methods(http.MethodPost)

	// Admin shell
	r.Handle("/admin", e.RequireSession(http.HandlerFunc(repo.WebUI.Admin))).Methods(http.MethodGet)
	r.Handle("/admin/broker", e.RequireSession(http.HandlerFunc(repo.WebUI.SelectBroker))).Methods(http.MethodPost)
	r.Handle("/admin/{section}", e.RequireSession(http.HandlerFunc(repo.WebUI.Section))).Methods(http.MethodGet)

	// Back office API
	r.PathPrefix("/api/").Handler(e.RequireSessionAPI(http.HandlerFunc(repo.Proxy.Forward)))

	// Public
	r.HandleFunc("/error", repo.WebUI.ErrorPage).Methods(http.MethodGet)
	r.HandleFunc("/healthz", repo.Infra.HealthCheck).Methods(http.MethodGet)
	r.Handle("/metrics", repo.Infra.MetricsHandler()).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(repo.WebUI.Static()).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(repo.WebUI.NotFound)

	// Apply middleware chain (order: inner to outer). Wrapping the router
	// rather than r.Use keeps NotFoundHandler inside the chain.
	var h http.Handler = r
	h = auth.LoadSession(opts.Sessions, opts.CookieName)(h)
	h = middleware.Recover(opts.Failures, opts.Logger, opts.Metrics.ObservePanic)(h)
	h = middleware.RequestLogger(opts.Logger)(h)
	h = middleware.RequestID(h)
	h = middleware.CORS(opts.CORSOrigins)(h)

	return h
}
