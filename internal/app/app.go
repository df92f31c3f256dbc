// Package app wires configuration, session storage, the back office clients
// and the HTTP layer into a runnable server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/mandalnilabja/roboadmin/internal/authapi"
	"github.com/mandalnilabja/roboadmin/internal/backend"
	"github.com/mandalnilabja/roboadmin/internal/config"
	"github.com/mandalnilabja/roboadmin/internal/failure"
	"github.com/mandalnilabja/roboadmin/internal/gate"
	"github.com/mandalnilabja/roboadmin/internal/metrics"
	"github.com/mandalnilabja/roboadmin/internal/session"
	"github.com/mandalnilabja/roboadmin/internal/storage"
	"github.com/mandalnilabja/roboadmin/internal/transport/http/handler"
	"github.com/mandalnilabja/roboadmin/internal/transport/http/handler/webui"
	"github.com/mandalnilabja/roboadmin/internal/transport/http/middleware/auth"
	"github.com/mandalnilabja/roboadmin/internal/transport/http/middleware/ratelimit"
)

const limiterPruneInterval = 10 * time.Minute

// Options configures an App.
type Options struct {
	Config *config.Config
	Logger *slog.Logger

	// Storage replaces the sqlite database opened from the data dir. It is
	// only used when sessions are persisted.
	Storage storage.Storage

	// Transport replaces http.DefaultTransport for back office calls.
	Transport http.RoundTripper
}

// App is a fully wired admin server.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	storage  storage.Storage
	sessions *session.Registry
	cache    *backend.Cache
	metrics  *metrics.Metrics
	failures *failure.Recorder
	limiter  *ratelimit.Limiter
	handler  http.Handler
}

// New builds the application. Call Close when done.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("app: config is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics.New(),
		failures: failure.NewRecorder(),
		limiter:  ratelimit.New(),
	}

	var persister session.Persister
	if cfg.PersistSessions {
		store := opts.Storage
		if store == nil {
			var err error
			if store, err = openStorage(); err != nil {
				return nil, err
			}
		}
		a.storage = store
		persister = store
	}

	a.sessions = session.NewRegistry(session.RegistryOptions{
		TTL:       cfg.SessionTTL,
		Persister: persister,
		Logger:    logger,
	})

	if err := a.wire(opts.Transport); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func openStorage() (storage.Storage, error) {
	if err := config.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	store, err := storage.NewSQLiteStorage(config.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open session storage: %w", err)
	}
	return store, nil
}

func (a *App) wire(rt http.RoundTripper) error {
	cfg := a.cfg

	cache, err := backend.NewCache(cfg.CacheTTL, cfg.CachePaths)
	if err != nil {
		return err
	}
	a.cache = cache

	client, err := backend.New(backend.Config{
		BaseURL:   cfg.BackendURL,
		Timeout:   cfg.RequestTimeout,
		Expirer:   a.sessions,
		OnExpire:  a.metrics.ObserveExpiration,
		Cache:     cache,
		Logger:    a.logger,
		Transport: rt,
	})
	if err != nil {
		return err
	}

	authCfg := authapi.Config{
		BaseURL:        cfg.BackendURL,
		LoginPath:      cfg.LoginPath,
		LogoutPath:     cfg.LogoutPath,
		SecondaryField: cfg.SecondaryField,
		Timeout:        cfg.RequestTimeout,
	}
	if rt != nil {
		authCfg.HTTPClient = &http.Client{Transport: rt, Timeout: cfg.RequestTimeout}
	}

	g := gate.New()
	web, err := webui.New(webui.Options{
		Auth:           authapi.New(authCfg),
		Sessions:       a.sessions,
		Failures:       a.failures,
		Metrics:        a.metrics,
		Gate:           g,
		CookieName:     cfg.CookieName,
		SecondaryField: cfg.SecondaryField,
		Logger:         a.logger,
	})
	if err != nil {
		return err
	}

	repo := handler.NewRepo(web, client, cache, a.sessions, a.metrics)
	a.handler = NewRouter(repo, &RouterOptions{
		Logger:     a.logger,
		Sessions:   a.sessions,
		Enforcer:   &auth.Enforcer{Gate: g, Sessions: a.sessions, Metrics: a.metrics},
		Failures:   a.failures,
		Metrics:    a.metrics,
		CookieName: cfg.CookieName,

		LoginLimiter:   a.limiter,
		LoginRateLimit: cfg.LoginRateLimit,
		CORSOrigins:    cfg.CORSOrigins,
	})
	return nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Sessions returns the session registry.
func (a *App) Sessions() *session.Registry {
	return a.sessions
}

// Rehydrate restores persisted sessions. Failures are logged and the server
// carries on with an empty registry, so admins simply sign in again.
func (a *App) Rehydrate(ctx context.Context) {
	if a.storage != nil {
		n, err := a.storage.DeleteExpiredSessions(time.Now())
		if err != nil {
			a.logger.Warn("failed to prune expired sessions", "error", err)
		} else if n > 0 {
			a.logger.Info("pruned expired sessions", "count", n)
		}
	}

	restored, err := a.sessions.Rehydrate(ctx)
	if err != nil {
		a.logger.Warn("session rehydration failed, admins must sign in again", "error", err)
		return
	}
	if a.storage != nil {
		a.logger.Info("sessions rehydrated", "restored", restored)
	}
}

// Run rehydrates sessions and then serves on the configured port until ctx
// is cancelled. No connection is accepted before rehydration finishes.
func (a *App) Run(ctx context.Context) error {
	a.Rehydrate(ctx)
	go a.pruneLimiter(ctx)
	return NewServer(a.cfg.ServerPort, a.handler, a.logger).Start(ctx)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	a.Rehydrate(ctx)
	go a.pruneLimiter(ctx)
	return NewServer(ln.Addr().String(), a.handler, a.logger).Serve(ctx, ln)
}

// pruneLimiter drops idle login throttle buckets until ctx is done.
func (a *App) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.limiter.Prune(limiterPruneInterval)
		}
	}
}

// Close stops background work and releases storage.
func (a *App) Close() error {
	var result *multierror.Error

	if a.sessions != nil {
		a.sessions.Close()
	}
	a.cache.Close()
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close storage: %w", err))
		}
	}
	return result.ErrorOrNil()
}
