package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stanzacms/stanza/internal/model"
	"github.com/stanzacms/stanza/internal/service"
)

func TestStatusIsPublic(t *testing.T) {
	router, _, _ := newTestAPI(t)

	rec := doRequest(t, router, http.MethodGet, "/status", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var status StatusResponse
	decodeData(t, rec, &status)
	if status.Status != "ok" {
		t.Errorf("status field = %q, want ok", status.Status)
	}
}

func TestAuthInfo(t *testing.T) {
	router, _, key := newTestAPI(t)

	rec := doRequest(t, router, http.MethodGet, "/auth", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want 401", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/auth", key, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated: status = %d", rec.Code)
	}
	var info AuthInfoResponse
	decodeData(t, rec, &info)
	if len(info.Permissions) != len(model.AllPermissions()) {
		t.Errorf("permissions = %v, want all", info.Permissions)
	}
	if info.KeyPrefix != key[:8] {
		t.Errorf("key_prefix = %q, want %q", info.KeyPrefix, key[:8])
	}
}

func TestListEvents(t *testing.T) {
	router, db, key := newTestAPI(t)

	events := service.NewEventService(db)
	if err := events.LogInfo(context.Background(), "system", "service started"); err != nil {
		t.Fatalf("LogInfo: %v", err)
	}

	rec := doRequest(t, router, http.MethodGet, "/events", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want 401", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/events", key, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var listed []EventResponse
	decodeData(t, rec, &listed)
	if len(listed) != 1 || listed[0].Message != "service started" {
		t.Errorf("events = %+v, want one startup event", listed)
	}
}
