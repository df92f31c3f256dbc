package webui

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mandalnilabja/roboadmin/internal/authapi"
	"github.com/mandalnilabja/roboadmin/internal/transport/http/middleware/auth"
)

// Login failure codes carried in the ?error= query parameter.
const (
	loginErrMissing = "missing"
	loginErrAuth    = "auth"
	loginErrNetwork = "network"
	loginErrServer  = "server"
	loginErrLimited = "throttled"
)

var loginErrorMessages = map[string]string{
	loginErrMissing: "Enter your username and password.",
	loginErrAuth:    "Invalid username or password.",
	loginErrNetwork: "The authentication service could not be reached. Please try again.",
	loginErrServer:  "Sign in failed. Please try again.",
	loginErrLimited: "Too many sign-in attempts. Wait a minute and try again.",
}

const expiredNotice = "Your session has expired. Please sign in again."

type loginPage struct {
	Title          string
	Error          string
	Notice         string
	SecondaryField string
}

type loginOutcome struct {
	id      string
	expires time.Time
}

// LoginPage serves the login form (GET /login).
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := loginPage{
		Title:          "Sign In",
		Error:          loginErrorMessages[q.Get("error")],
		SecondaryField: h.SecondaryField,
	}
	if q.Get("expired") == "1" {
		data.Notice = expiredNotice
	}
	h.render(w, "login.html", http.StatusOK, data)
}

// Login handles POST /login. The session is created only after the Auth API
// accepted the credentials, so a failed attempt never touches session state.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	creds := authapi.Credentials{
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		Password:  r.PostFormValue("password"),
		Secondary: strings.TrimSpace(r.PostFormValue("secondary")),
	}
	if creds.Username == "" || creds.Password == "" {
		h.failLogin(w, r, loginErrMissing)
		return
	}

	previous := auth.SessionID(r, h.CookieName)
	broker := ""
	if store := h.Sessions.Get(previous); store != nil {
		broker = store.Broker()
	}

	var (
		out loginOutcome
		err error
	)
	if previous == "" {
		out, err = h.signIn(r.Context(), creds, broker)
	} else {
		// Duplicate submissions from one browser share a single Auth API call.
		var v any
		v, err, _ = h.logins.Do(loginKey(previous, creds), func() (any, error) {
			return h.signIn(context.WithoutCancel(r.Context()), creds, broker)
		})
		if err == nil {
			out = v.(loginOutcome)
		}
	}
	if err != nil {
		code := loginErrServer
		switch {
		case authapi.IsNetworkFailure(err):
			code = loginErrNetwork
			h.Logger.Warn("auth service unreachable", "error", err)
		case authapi.IsAuthFailure(err):
			code = loginErrAuth
			h.Logger.Info("login rejected", "username", creds.Username, "error", err)
		default:
			h.Logger.Error("login failed", "username", creds.Username, "error", err)
		}
		h.failLogin(w, r, code)
		return
	}

	if previous != "" && previous != out.id {
		if err := h.Sessions.Delete(previous); err != nil {
			h.Logger.Warn("drop previous session", "error", err)
		}
	}

	h.Metrics.ObserveLogin("success")
	auth.SetSessionCookie(w, r, h.CookieName, out.id, out.expires)
	http.Redirect(w, r, h.landingPath(), http.StatusFound)
}

// loginKey only matches submissions carrying the same cookie and the same
// credentials, so a coalesced result never reaches a caller whose password
// was not checked.
func loginKey(sessionID string, creds authapi.Credentials) string {
	sum := sha256.Sum256([]byte(creds.Username + "\x00" + creds.Password + "\x00" + creds.Secondary))
	return sessionID + "\x00" + hex.EncodeToString(sum[:])
}

// signIn carries the broker chosen in the previous session over to the new one.
func (h *Handlers) signIn(ctx context.Context, creds authapi.Credentials, broker string) (loginOutcome, error) {
	result, err := h.Auth.Login(ctx, creds)
	if err != nil {
		return loginOutcome{}, err
	}

	id, store, err := h.Sessions.Create()
	if err != nil {
		return loginOutcome{}, err
	}
	store.SetSession(result.Token, result.UserID)
	store.SetBroker(broker)
	if err := h.Sessions.Persist(id); err != nil {
		h.Logger.Warn("session not persisted", "error", err)
	}

	expires, _ := h.Sessions.ExpiresAt(id)
	h.Logger.Info("admin signed in", "user_id", result.UserID, "response_shape", result.Shape.String())
	return loginOutcome{id: id, expires: expires}, nil
}

// Throttled answers a login submission rejected by the rate limiter.
func (h *Handlers) Throttled(w http.ResponseWriter, r *http.Request) {
	h.Logger.Warn("login throttled", "remote_addr", r.RemoteAddr)
	h.failLogin(w, r, loginErrLimited)
}

func (h *Handlers) failLogin(w http.ResponseWriter, r *http.Request, code string) {
	h.Metrics.ObserveLogin(code)
	http.Redirect(w, r, h.loginPath()+"?error="+url.QueryEscape(code), http.StatusFound)
}

// Logout handles POST /logout. The token is revoked on a best effort basis;
// the local session is always cleared.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	id := auth.SessionID(r, h.CookieName)
	if store := h.Sessions.Get(id); store != nil {
		if snap := store.CurrentSession(); snap.IsAuthenticated && h.Auth != nil {
			if err := h.Auth.Logout(r.Context(), snap.Token); err != nil {
				h.Logger.Warn("token revocation failed", "error", err)
			}
		}
		store.ClearSession()
	}
	if id != "" {
		if err := h.Sessions.Delete(id); err != nil {
			h.Logger.Warn("delete session", "error", err)
		}
	}

	auth.ClearSessionCookie(w, h.CookieName)
	http.Redirect(w, r, h.loginPath(), http.StatusFound)
}
