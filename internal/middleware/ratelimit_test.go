package middleware

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl := NewRateLimiter(6, 2, quietLogger())
	rejected := 0
	rl.OnReject = func() { rejected++ }
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/help/chat", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "10" {
			t.Errorf("expected Retry-After 10, got %q", rec.Header().Get("Retry-After"))
		}
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected [200 200 429], got %v", codes)
	}
	if rejected != 1 {
		t.Errorf("expected OnReject once, got %d", rejected)
	}

	// A different client has its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/api/help/chat", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected second client to pass, got %d", rec.Code)
	}
}

func TestRateLimiter_KeysByUserFirst(t *testing.T) {
	rl := NewRateLimiter(60, 1, quietLogger())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := rl.clientKey(req); got != "ip:10.0.0.1" {
		t.Errorf("expected remote ip key, got %q", got)
	}

	rl.TrustProxy = true
	if got := rl.clientKey(req); got != "ip:203.0.113.9" {
		t.Errorf("expected forwarded ip key behind trusted proxy, got %q", got)
	}

	req = req.WithContext(WithUserID(req.Context(), 7))
	if got := rl.clientKey(req); got != "user:7" {
		t.Errorf("expected user key, got %q", got)
	}
}

func TestRateLimiter_IgnoresSpoofedForwardedFor(t *testing.T) {
	rl := NewRateLimiter(1, 1, quietLogger())
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	allowed := 0
	for i := range 50 {
		req := httptest.NewRequest(http.MethodPost, "/api/help/chat", nil)
		req.RemoteAddr = "198.51.100.4:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}

	if allowed != 1 {
		t.Errorf("expected 1 request through, got %d", allowed)
	}
	if len(rl.visitors) != 1 {
		t.Errorf("expected one shared bucket, got %d", len(rl.visitors))
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(60, 1, quietLogger())
	rl.now = func() time.Time { return now }

	rl.allow("a")
	now = now.Add(30 * time.Minute)
	rl.allow("b")

	if n := rl.Cleanup(10 * time.Minute); n != 1 {
		t.Fatalf("expected 1 idle visitor dropped, got %d", n)
	}
	if _, ok := rl.visitors["b"]; !ok {
		t.Error("expected recent visitor to survive cleanup")
	}
}
