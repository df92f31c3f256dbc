package auth

import (
	"net/http"

	"github.com/mandalnilabja/roboadmin/internal/gate"
	"github.com/mandalnilabja/roboadmin/internal/metrics"
	"github.com/mandalnilabja/roboadmin/internal/session"
	"github.com/mandalnilabja/roboadmin/internal/transport/http/handler/shared"
)

// Guard names used as metric labels.
const (
	GuardPublicOnly     = "public_only"
	GuardRequireSession = "require_session"
	GuardRoot           = "root"
)

// Enforcer applies gate decisions to HTTP requests. It expects LoadSession
// to have run first.
type Enforcer struct {
	Gate     gate.Gate
	Sessions *session.Registry
	Metrics  *metrics.Metrics
}

// State derives the gate state for r.
func (e *Enforcer) State(r *http.Request) gate.State {
	var snap session.Session
	if _, store := session.FromContext(r.Context()); store != nil {
		snap = store.CurrentSession()
	}
	return gate.StateOf(snap, e.Sessions.Ready())
}

// PublicOnly wraps pages for signed-out visitors.
func (e *Enforcer) PublicOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := e.Gate.PublicOnly(e.State(r))
		e.observe(GuardPublicOnly, d)
		if d.IsRedirect() {
			http.Redirect(w, r, d.Target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession wraps pages that need a session. A session the back office
// rejected is sent to login with an expiry notice.
func (e *Enforcer) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := e.Gate.RequireSession(e.State(r))
		e.observe(GuardRequireSession, d)
		if d.IsRedirect() {
			http.Redirect(w, r, e.withExpiryNotice(r, d.Target), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSessionAPI is RequireSession for JSON endpoints: a redirect decision
// becomes a 401 since API callers cannot follow it to an HTML page.
func (e *Enforcer) RequireSessionAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := e.Gate.RequireSession(e.State(r))
		e.observe(GuardRequireSession, d)
		if d.IsRedirect() {
			shared.WriteJSONError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Root handles "/" which always redirects.
func (e *Enforcer) Root() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := e.Gate.Root(e.State(r))
		e.observe(GuardRoot, d)
		http.Redirect(w, r, e.withExpiryNotice(r, d.Target), http.StatusFound)
	})
}

func (e *Enforcer) withExpiryNotice(r *http.Request, target string) string {
	login := e.Gate.LoginPath
	if login == "" {
		login = gate.DefaultLoginPath
	}
	if target != login {
		return target
	}
	if _, store := session.FromContext(r.Context()); store != nil && store.Expired() {
		return target + "?expired=1"
	}
	return target
}

func (e *Enforcer) observe(guard string, d gate.Decision) {
	e.Metrics.ObserveDecision(guard, d.Action.String())
}
