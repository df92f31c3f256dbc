package backend

import (
	"log/slog"
	"net/http"

	"github.com/mandalnilabja/roboadmin/internal/session"
)

// bearerTransport adds the session token to outgoing requests and ends the
// session when the back office answers 401.
type bearerTransport struct {
	base     http.RoundTripper
	expirer  Expirer
	onExpire func()
	logger   *slog.Logger
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id, store := session.FromContext(req.Context())

	if token := bearerToken(req.Context()); token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && store != nil {
		t.expire(id, store, req.URL.Path)
	}
	return resp, nil
}

func (t *bearerTransport) expire(id string, store *session.Store, path string) {
	t.logger.Warn("back office rejected session token",
		"path", path,
		"user_id", store.CurrentSession().UserID,
	)

	store.Expire()
	if t.expirer != nil {
		if err := t.expirer.Expire(id); err != nil {
			t.logger.Error("failed to expire session", "error", err)
		}
	}

	if t.onExpire != nil {
		t.onExpire()
	}
}
