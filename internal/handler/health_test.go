package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type mockDB struct {
	pingFunc func(ctx context.Context) error
}

func (m *mockDB) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

func TestHealth_OK(t *testing.T) {
	h := New(&mockDB{}, "http://localhost:3000")
	h.AddCheck("staging", func(ctx context.Context) error { return nil })
	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status=ok, got %q", resp.Status)
	}
	for _, name := range []string{"database", "staging"} {
		if resp.Checks[name] != "ok" {
			t.Errorf("expected %s=ok, got %q", name, resp.Checks[name])
		}
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	h := New(&mockDB{
		pingFunc: func(ctx context.Context) error {
			return errors.New("dial tcp 127.0.0.1:5432: connection refused")
		},
	}, "http://localhost:3000")
	h.AddCheck("staging", func(ctx context.Context) error { return nil })

	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("expected status=unhealthy, got %q", resp.Status)
	}
	if !strings.Contains(resp.Checks["database"], "connection refused") {
		t.Errorf("expected ping error under database, got %q", resp.Checks["database"])
	}
	if resp.Checks["staging"] != "ok" {
		t.Errorf("staging should still be reported ok, got %q", resp.Checks["staging"])
	}
}

func TestHealth_StagingNotWritable(t *testing.T) {
	h := New(&mockDB{}, "http://localhost:3000")
	h.AddCheck("staging", func(ctx context.Context) error {
		return errors.New("staging: not writable: permission denied")
	})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest("GET", "/api/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Checks["database"] != "ok" {
		t.Errorf("expected database=ok, got %q", resp.Checks["database"])
	}
	if resp.Checks["staging"] == "ok" {
		t.Error("expected staging failure to be reported")
	}
}

func TestHealth_CheckGetsDeadline(t *testing.T) {
	h := New(&mockDB{}, "http://localhost:3000")
	var hadDeadline bool
	h.AddCheck("staging", func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return nil
	})

	h.Health(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/health", nil))

	if !hadDeadline {
		t.Error("expected checks to run with a deadline")
	}
}
