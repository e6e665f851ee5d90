package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stanzacms/stanza/internal/middleware"
	"github.com/stanzacms/stanza/internal/model"
	"github.com/stanzacms/stanza/internal/testutil"
	"github.com/stanzacms/stanza/internal/version"
)

func TestHealthPublic(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	h := NewHealthHandler(db, version.Info{})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
	// Anonymous callers never see check details.
	if _, ok := body["checks"]; ok {
		t.Error("anonymous health response leaks checks")
	}
}

func TestHealthAuthenticated(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	h := NewHealthHandler(db, version.Info{Version: "1.2.3"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req = req.WithContext(context.WithValue(req.Context(),
		middleware.ContextKeyAPIKey, model.APIKey{Name: "probe"}))
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Checks["database"].Status != "healthy" {
		t.Errorf("database check = %+v, want healthy", body.Checks["database"])
	}
	if body.System == nil {
		t.Error("system info missing for authenticated caller")
	}
}

func TestHealthDegraded(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	cleanup() // close the database to force a failing check
	h := NewHealthHandler(db, version.Info{})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestLive(t *testing.T) {
	h := NewHealthHandler(nil, version.Info{})
	rec := httptest.NewRecorder()
	h.Live(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestReady(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	h := NewHealthHandler(db, version.Info{})

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
