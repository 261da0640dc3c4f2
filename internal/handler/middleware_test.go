package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestSecurityHeaders_SetsAllHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/technicians/x/images", nil)
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler).ServeHTTP(rec, req)

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
		"X-XSS-Protection":       "0",
	}
	for name, want := range headers {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("%s: want %q, got %q", name, want, got)
		}
	}
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "frame-ancestors 'none'") {
		t.Errorf("CSP missing frame-ancestors: %q", csp)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected pass-through 200, got %d", rec.Code)
	}
}

func newTestLimiter(t *testing.T, n int) *RateLimiter {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewRateLimiter(ctx, n)
}

func hit(h http.Handler, remote, xff string) int {
	req := httptest.NewRequest("POST", "/api/technicians/x/images", nil)
	req.RemoteAddr = remote
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	h := newTestLimiter(t, 3).Middleware(okHandler)

	for i := 0; i < 3; i++ {
		if code := hit(h, "192.168.1.1:12345", ""); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, code)
		}
	}
	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimiter_DifferentIPsAreIndependent(t *testing.T) {
	h := newTestLimiter(t, 1).Middleware(okHandler)

	hit(h, "10.0.0.1:1234", "")
	if code := hit(h, "10.0.0.2:1234", ""); code != http.StatusOK {
		t.Errorf("different IP should not be limited, got %d", code)
	}
}

func TestRateLimiter_XForwardedFor_RightmostTrusted(t *testing.T) {
	h := newTestLimiter(t, 1).Middleware(okHandler)

	hit(h, "10.0.0.99:1234", "203.0.113.50")
	if code := hit(h, "10.0.0.99:1234", "1.2.3.4, 203.0.113.50"); code != http.StatusTooManyRequests {
		t.Errorf("spoofed leftmost entry must not reset the window, got %d", code)
	}
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	rl := newTestLimiter(t, 1)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Middleware(okHandler)

	hit(h, "10.0.0.1:1", "")
	if code := hit(h, "10.0.0.1:1", ""); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 inside the window, got %d", code)
	}

	now = now.Add(61 * time.Second)
	if code := hit(h, "10.0.0.1:1", ""); code != http.StatusOK {
		t.Errorf("expected 200 after the window, got %d", code)
	}
}

func TestRateLimiter_PruneForgetsIdleClients(t *testing.T) {
	rl := newTestLimiter(t, 5)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Middleware(okHandler)

	hit(h, "10.0.0.1:1", "")
	hit(h, "10.0.0.2:1", "")
	if n := rl.prune(); n != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", n)
	}

	now = now.Add(2 * time.Minute)
	if n := rl.prune(); n != 0 {
		t.Errorf("expected idle clients forgotten, got %d", n)
	}
}
