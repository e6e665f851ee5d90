// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the
// application including Page, Link, Post and User structures.
package model

import (
	"database/sql"
	"time"
)

// Page statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusPrivate   = "private"
)

// Link locations
const (
	LocationNavbar   = "navbar"
	LocationHeader   = "header"
	LocationFooter   = "footer"
	LocationSidebar  = "sidebar"
	LocationUnsorted = "unsorted"
)

// TitleMaxLen is the maximum length of a page title or link label.
const TitleMaxLen = 200

// ValidStatuses contains all valid content statuses.
var ValidStatuses = []string{StatusDraft, StatusPublished, StatusPrivate}

// ValidLocations contains all valid link locations.
var ValidLocations = []string{
	LocationNavbar, LocationHeader, LocationFooter, LocationSidebar, LocationUnsorted,
}

// IsValidStatus reports whether s is one of the closed status values.
func IsValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished || s == StatusPrivate
}

// IsValidLocation reports whether s is one of the closed location values.
func IsValidLocation(s string) bool {
	switch s {
	case LocationNavbar, LocationHeader, LocationFooter, LocationSidebar, LocationUnsorted:
		return true
	}
	return false
}

// Page represents a hierarchical content page. Its slug is path-qualified:
// the parent's slug, a "/", then the slugified title. The slug is derived on
// every save and never supplied by callers.
type Page struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	Content         string        `json:"content"`
	ParentID        sql.NullInt64 `json:"parent_id,omitempty"`
	Status          string        `json:"status"`
	LinkLocation    string        `json:"link_location"`
	ShowInPosition  bool          `json:"show_in_position"`
	Position        int64         `json:"order"`
	MetaTitle       string        `json:"meta_title,omitempty"`
	MetaDescription string        `json:"meta_description,omitempty"`
	MetaKeywords    string        `json:"meta_keywords,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// IsPublished returns true if the page is published.
func (p *Page) IsPublished() bool {
	return p.Status == StatusPublished
}

// IsDraft returns true if the page is a draft.
func (p *Page) IsDraft() bool {
	return p.Status == StatusDraft
}

// HasParent returns true if the page sits below another page.
func (p *Page) HasParent() bool {
	return p.ParentID.Valid
}
