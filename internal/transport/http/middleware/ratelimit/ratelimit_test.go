package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllow(t *testing.T) {
	now := time.Unix(1000, 0)
	l := New()
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4", 3) {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.Allow("1.2.3.4", 3) {
		t.Error("fourth request should be limited")
	}
	if !l.Allow("5.6.7.8", 3) {
		t.Error("other clients have their own bucket")
	}

	// One token refills every 20s at 3/minute.
	now = now.Add(20 * time.Second)
	if !l.Allow("1.2.3.4", 3) {
		t.Error("expected a refilled token")
	}
}

func TestAllowUnlimited(t *testing.T) {
	l := New()
	for i := 0; i < 100; i++ {
		if !l.Allow("k", 0) {
			t.Fatal("zero limit must never block")
		}
	}
}

func TestPrune(t *testing.T) {
	now := time.Unix(1000, 0)
	l := New()
	l.now = func() time.Time { return now }

	l.Allow("old", 1)
	now = now.Add(time.Hour)
	l.Allow("fresh", 1)
	l.Prune(10 * time.Minute)

	if _, ok := l.buckets.Load("old"); ok {
		t.Error("expected idle bucket to be pruned")
	}
	if _, ok := l.buckets.Load("fresh"); !ok {
		t.Error("expected fresh bucket to remain")
	}
}

func TestByClientIP(t *testing.T) {
	limited := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	handler := ByClientIP(New(), 1, limited)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := send("10.0.0.1:5000"); rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	rec := send("10.0.0.1:5001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected %d, got %d", http.StatusTooManyRequests, rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Error("expected Retry-After header")
	}
	if rec := send("10.0.0.2:5000"); rec.Code != http.StatusOK {
		t.Errorf("expected other client to pass, got %d", rec.Code)
	}
}
