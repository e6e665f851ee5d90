// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Link represents a navigation entry. A Link either mirrors a Page (PageID
// set, fields kept in sync by the navigation sync engine) or is a
// free-standing external URL entry with independently managed fields.
type Link struct {
	ID        int64         `json:"id"`
	Label     string        `json:"label"`
	Slug      string        `json:"slug"`
	URL       string        `json:"url,omitempty"`
	PageID    sql.NullInt64 `json:"page_id,omitempty"`
	Location  string        `json:"location"`
	Status    string        `json:"status"`
	Position  int64         `json:"order"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// IsMirror returns true if the link mirrors a page.
func (l *Link) IsMirror() bool {
	return l.PageID.Valid
}

// IsExternal returns true if the link points at an external URL.
func (l *Link) IsExternal() bool {
	return !l.PageID.Valid && l.URL != ""
}
