// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stanzacms/stanza/internal/auth"
	"github.com/stanzacms/stanza/internal/model"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
	DefaultAdminName     = "Administrator"
)

// Seed creates the initial admin user and a full-access API key. The raw key
// is logged once; only its hash is stored.
func Seed(ctx context.Context, db *sql.DB, adminEmail string) error {
	queries := New(db)

	if adminEmail == "" {
		adminEmail = DefaultAdminEmail
	}

	_, err := queries.GetUserByEmail(ctx, adminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		Name:         DefaultAdminName,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user",
		"id", user.ID,
		"email", user.Email,
		"password", DefaultAdminPassword,
	)

	rawKey, prefix, err := model.GenerateAPIKey()
	if err != nil {
		return fmt.Errorf("generating API key: %w", err)
	}
	permissions, err := json.Marshal(model.AllPermissions())
	if err != nil {
		return fmt.Errorf("encoding permissions: %w", err)
	}
	if _, err := queries.CreateAPIKey(ctx, CreateAPIKeyParams{
		Name:        "Initial admin key",
		KeyHash:     model.HashAPIKey(rawKey),
		KeyPrefix:   prefix,
		Permissions: string(permissions),
		CreatedBy:   user.ID,
		CreatedAt:   now,
	}); err != nil {
		return fmt.Errorf("creating API key: %w", err)
	}

	slog.Info("created initial API key, store it now: it is not shown again",
		"key", rawKey,
	)

	return nil
}
