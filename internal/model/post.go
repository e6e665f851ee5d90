// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Post represents a flat (non-hierarchical) content item with authorship and
// view counting. Identity is an opaque token generated at creation so that
// external callers cannot infer creation order or count. Unlike a Page, a
// Post's slug is derived once from its first title and never recomputed.
type Post struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Content         string    `json:"content"`
	Excerpt         string    `json:"excerpt,omitempty"`
	AuthorID        int64     `json:"author_id"`
	Status          string    `json:"status"`
	Views           int64     `json:"views"`
	MetaTitle       string    `json:"meta_title,omitempty"`
	MetaDescription string    `json:"meta_description,omitempty"`
	MetaKeywords    string    `json:"meta_keywords,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsPublished returns true if the post is published.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}
