package proxy

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandalnilabja/roboadmin/internal/backend"
	"github.com/mandalnilabja/roboadmin/internal/session"
)

func newHandlers(t *testing.T, upstream http.HandlerFunc) *Handlers {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := backend.New(backend.Config{BaseURL: srv.URL + "/main", Logger: logger})
	require.NoError(t, err)
	return New(client, logger)
}

func withSession(r *http.Request, token string) (*http.Request, *session.Store) {
	store := session.NewStore()
	store.SetSession(token, "u1")
	return r.WithContext(session.WithStore(context.Background(), "sid", store)), store
}

func TestForward(t *testing.T) {
	var gotPath, gotAuth, gotBody string
	h := newHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/roboadvising/create_strategy/", strings.NewReader(`{"name":"growth"}`))
	req, _ = withSession(req, "abc123")
	rec := httptest.NewRecorder()
	h.Forward(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, `{"id":7}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "/main/roboadvising/create_strategy/", gotPath)
	assert.Equal(t, "Bearer abc123", gotAuth)
	assert.Equal(t, `{"name":"growth"}`, gotBody)
}

func TestForwardUnauthorized(t *testing.T) {
	h := newHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	req, store := withSession(httptest.NewRequest(http.MethodGet, "/api/roboadvising/get_all_strategy/", nil), "stale")
	rec := httptest.NewRecorder()
	h.Forward(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "session expired")
	assert.True(t, store.Expired())
}

func TestForwardUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := backend.New(backend.Config{BaseURL: url})
	require.NoError(t, err)
	h := New(client, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := httptest.NewRecorder()
	h.Forward(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestForwardRequiresPath(t *testing.T) {
	h := newHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called")
	})

	rec := httptest.NewRecorder()
	h.Forward(rec, httptest.NewRequest(http.MethodGet, "/api/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForwardBodyTooLarge(t *testing.T) {
	h := newHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called")
	})

	body := strings.NewReader(strings.Repeat("a", maxRequestBytes+1))
	req, _ := withSession(httptest.NewRequest(http.MethodPost, "/api/roboadvising/create_strategy/", body), "abc123")
	rec := httptest.NewRecorder()
	h.Forward(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "request body too large")
}

func TestForwardBodyAtLimit(t *testing.T) {
	var got int
	h := newHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = len(b)
		w.WriteHeader(http.StatusNoContent)
	})

	body := strings.NewReader(strings.Repeat("a", maxRequestBytes))
	req, _ := withSession(httptest.NewRequest(http.MethodPost, "/api/roboadvising/create_strategy/", body), "abc123")
	rec := httptest.NewRecorder()
	h.Forward(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, maxRequestBytes, got)
}
