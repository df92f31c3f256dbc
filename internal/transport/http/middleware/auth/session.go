// Package auth binds browser sessions to requests and enforces the session
// gate on routes.
package auth

import (
	"net/http"
	"time"

	"github.com/mandalnilabja/roboadmin/internal/session"
)

// DefaultCookieName is the session cookie used when none is configured.
const DefaultCookieName = "roboadmin_session"

// LoadSession resolves the session cookie to its store and binds both to the
// request context. Unknown or expired cookies leave the context empty.
func LoadSession(sessions *session.Registry, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := SessionID(r, cookieName)
			if store := sessions.Get(id); store != nil {
				r = r.WithContext(session.WithStore(r.Context(), id, store))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionID returns the session cookie value, or "" when absent.
func SessionID(r *http.Request, cookieName string) string {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SetSessionCookie creates and sets a session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, r *http.Request, cookieName, id string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		Expires:  expires,
	})
}

// ClearSessionCookie clears the session cookie.
func ClearSessionCookie(w http.ResponseWriter, cookieName string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
