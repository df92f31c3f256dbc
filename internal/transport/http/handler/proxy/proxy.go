// Package proxy forwards /api calls from the admin UI to the back office.
package proxy

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mandalnilabja/roboadmin/internal/backend"
	"github.com/mandalnilabja/roboadmin/internal/transport/http/handler/shared"
)

// Prefix is the route prefix stripped before forwarding.
const Prefix = "/api"

// maxRequestBytes caps request bodies sent upstream.
const maxRequestBytes = 4 << 20

// Handlers holds the dependencies for proxy HTTP handlers.
type Handlers struct {
	Backend *backend.Client
	Logger  *slog.Logger
}

// New creates a new instance of proxy handlers.
func New(client *backend.Client, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{Backend: client, Logger: logger}
}

// Forward proxies /api/<path> to <backend_url>/<path> with the session's
// bearer token.
func (h *Handlers) Forward(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, Prefix)
	if path == "" || path == "/" {
		shared.WriteJSONError(w, "backend path required", http.StatusBadRequest)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		writeBodyError(w, err)
		return
	}

	resp, err := h.Backend.Do(r.Context(), r.Method, path, r.URL.RawQuery, bytes.NewReader(payload), r.Header)
	switch {
	case errors.Is(err, backend.ErrSessionExpired):
		shared.WriteJSONError(w, "session expired", http.StatusUnauthorized)
		return
	case errors.Is(err, backend.ErrUnavailable):
		h.Logger.Warn("back office unavailable", "path", path, "error", err)
		shared.WriteJSONError(w, "back office unavailable", http.StatusBadGateway)
		return
	case err != nil:
		h.Logger.Error("proxy request failed", "path", path, "error", err)
		shared.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if resp.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

func writeBodyError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		shared.WriteJSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	shared.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
}
