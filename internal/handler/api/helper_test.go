package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stanzacms/stanza/internal/model"
	"github.com/stanzacms/stanza/internal/store"
	"github.com/stanzacms/stanza/internal/testutil"
)

// newTestAPI builds the full v1 router over a fresh database and returns it
// together with a raw API key holding every permission.
func newTestAPI(t *testing.T) (chi.Router, *sql.DB, string) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	router := Routes(db, RateConfig{
		PerKeyRPS:   1000,
		PerKeyBurst: 1000,
		GlobalRPS:   1000,
		GlobalBurst: 1000,
	})
	return router, db, seedAPIKey(t, db, model.AllPermissions())
}

// seedAPIKey inserts an admin user and an API key with the given permissions.
func seedAPIKey(t *testing.T, db *sql.DB, permissions []string) string {
	t.Helper()
	q := store.New(db)
	ctx := context.Background()

	rawKey, prefix, err := model.GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}

	user, err := q.CreateUser(ctx, store.CreateUserParams{
		Email:        prefix + "@example.com",
		PasswordHash: "x",
		Role:         model.RoleAdmin,
		Name:         "API Owner",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	perms, _ := json.Marshal(permissions)
	if _, err := q.CreateAPIKey(ctx, store.CreateAPIKeyParams{
		Name:        "test key",
		KeyHash:     model.HashAPIKey(rawKey),
		KeyPrefix:   prefix,
		Permissions: string(perms),
		CreatedBy:   user.ID,
		CreatedAt:   time.Now(),
	}); err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}
	return rawKey
}

// seedReadOnlyKey inserts an API key carrying no write permissions.
func seedReadOnlyKey(t *testing.T, db *sql.DB) string {
	t.Helper()
	return seedAPIKey(t, db, nil)
}

// doRequest performs a request against the router, JSON-encoding body when
// present and attaching the key as a Bearer token when non-empty.
func doRequest(t *testing.T, router chi.Router, method, path, key string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// decodeData unmarshals the "data" element of a response envelope into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not JSON: %v\nbody: %s", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		t.Fatalf("decoding data: %v\nbody: %s", err, rec.Body.String())
	}
}

// decodeError unmarshals an error response body.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var envelope ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("error response is not JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return envelope.Error
}
