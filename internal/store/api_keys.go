// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/stanzacms/stanza/internal/model"
)

const apiKeyColumns = `id, name, key_hash, key_prefix, permissions,
	last_used_at, expires_at, is_active, created_by, created_at`

func scanAPIKey(row interface{ Scan(...any) error }) (model.APIKey, error) {
	var k model.APIKey
	err := row.Scan(
		&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Permissions,
		&k.LastUsedAt, &k.ExpiresAt, &k.IsActive, &k.CreatedBy, &k.CreatedAt,
	)
	return k, err
}

// CreateAPIKeyParams holds the fields for CreateAPIKey.
type CreateAPIKeyParams struct {
	Name        string
	KeyHash     string
	KeyPrefix   string
	Permissions string
	ExpiresAt   sql.NullTime
	CreatedBy   int64
	CreatedAt   time.Time
}

// CreateAPIKey inserts an API key and returns the stored row.
func (q *Queries) CreateAPIKey(ctx context.Context, arg CreateAPIKeyParams) (model.APIKey, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO api_keys (
			name, key_hash, key_prefix, permissions, expires_at,
			is_active, created_by, created_at
		) VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		RETURNING `+apiKeyColumns,
		arg.Name, arg.KeyHash, arg.KeyPrefix, arg.Permissions,
		arg.ExpiresAt, arg.CreatedBy, arg.CreatedAt,
	)
	return scanAPIKey(row)
}

// GetAPIKeyByHash fetches an API key by its SHA-256 hash.
func (q *Queries) GetAPIKeyByHash(ctx context.Context, keyHash string) (model.APIKey, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = ?`, keyHash)
	return scanAPIKey(row)
}

// UpdateAPIKeyLastUsedParams holds the fields for UpdateAPIKeyLastUsed.
type UpdateAPIKeyLastUsedParams struct {
	ID         int64
	LastUsedAt sql.NullTime
}

// UpdateAPIKeyLastUsed records when the key last authenticated a request.
func (q *Queries) UpdateAPIKeyLastUsed(ctx context.Context, arg UpdateAPIKeyLastUsedParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = ? WHERE id = ?`,
		arg.LastUsedAt, arg.ID)
	return err
}

// CountAPIKeys returns the total number of API keys.
func (q *Queries) CountAPIKeys(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM api_keys`).Scan(&n)
	return n, err
}

// DeleteAPIKey removes an API key by id.
func (q *Queries) DeleteAPIKey(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	return err
}
