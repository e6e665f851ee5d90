// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"time"
)

// API permissions
const (
	PermissionPagesWrite = "pages:write"
	PermissionLinksWrite = "links:write"
	PermissionPostsWrite = "posts:write"
	PermissionUsersWrite = "users:write"
)

// AllPermissions returns all available API permissions.
func AllPermissions() []string {
	return []string{
		PermissionPagesWrite,
		PermissionLinksWrite,
		PermissionPostsWrite,
		PermissionUsersWrite,
	}
}

// APIKey represents an API authentication key.
type APIKey struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	KeyHash     string       `json:"-"` // Never expose hash in JSON
	KeyPrefix   string       `json:"key_prefix"`
	Permissions string       `json:"-"` // JSON array stored as string
	LastUsedAt  sql.NullTime `json:"last_used_at,omitempty"`
	ExpiresAt   sql.NullTime `json:"expires_at,omitempty"`
	IsActive    bool         `json:"is_active"`
	CreatedBy   int64        `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
}

// GenerateAPIKey generates a new random API key.
// Returns the raw key (to show the caller once) and the key prefix.
func GenerateAPIKey() (rawKey string, prefix string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", err
	}

	rawKey = base64.URLEncoding.EncodeToString(bytes)
	prefix = rawKey[:8]

	return rawKey, prefix, nil
}

// HashAPIKey creates a SHA-256 hash of the API key for storage.
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// GetPermissions parses the JSON permissions string into a slice.
func (k *APIKey) GetPermissions() []string {
	var perms []string
	if k.Permissions == "" || k.Permissions == "[]" {
		return perms
	}
	_ = json.Unmarshal([]byte(k.Permissions), &perms)
	return perms
}

// HasPermission reports whether the key carries the given permission.
func (k *APIKey) HasPermission(permission string) bool {
	for _, p := range k.GetPermissions() {
		if p == permission {
			return true
		}
	}
	return false
}
