// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/stanzacms/stanza/internal/model"
)

const pageColumns = `id, title, slug, content, parent_id, status, link_location,
	show_in_position, position, meta_title, meta_description, meta_keywords,
	created_at, updated_at`

func scanPage(row interface{ Scan(...any) error }) (model.Page, error) {
	var p model.Page
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.ParentID, &p.Status,
		&p.LinkLocation, &p.ShowInPosition, &p.Position, &p.MetaTitle,
		&p.MetaDescription, &p.MetaKeywords, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// CreatePageParams holds the fields for CreatePage.
type CreatePageParams struct {
	Title           string
	Slug            string
	Content         string
	ParentID        sql.NullInt64
	Status          string
	LinkLocation    string
	ShowInPosition  bool
	Position        int64
	MetaTitle       string
	MetaDescription string
	MetaKeywords    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreatePage inserts a page and returns the stored row.
func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (model.Page, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO pages (
			title, slug, content, parent_id, status, link_location,
			show_in_position, position, meta_title, meta_description,
			meta_keywords, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+pageColumns,
		arg.Title, arg.Slug, arg.Content, arg.ParentID, arg.Status,
		arg.LinkLocation, arg.ShowInPosition, arg.Position, arg.MetaTitle,
		arg.MetaDescription, arg.MetaKeywords, arg.CreatedAt, arg.UpdatedAt,
	)
	return scanPage(row)
}

// UpdatePageParams holds the fields for UpdatePage.
type UpdatePageParams struct {
	ID              int64
	Title           string
	Slug            string
	Content         string
	ParentID        sql.NullInt64
	Status          string
	LinkLocation    string
	ShowInPosition  bool
	Position        int64
	MetaTitle       string
	MetaDescription string
	MetaKeywords    string
	UpdatedAt       time.Time
}

// UpdatePage rewrites all mutable page fields and returns the stored row.
func (q *Queries) UpdatePage(ctx context.Context, arg UpdatePageParams) (model.Page, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE pages SET
			title = ?, slug = ?, content = ?, parent_id = ?, status = ?,
			link_location = ?, show_in_position = ?, position = ?,
			meta_title = ?, meta_description = ?, meta_keywords = ?,
			updated_at = ?
		WHERE id = ?
		RETURNING `+pageColumns,
		arg.Title, arg.Slug, arg.Content, arg.ParentID, arg.Status,
		arg.LinkLocation, arg.ShowInPosition, arg.Position, arg.MetaTitle,
		arg.MetaDescription, arg.MetaKeywords, arg.UpdatedAt, arg.ID,
	)
	return scanPage(row)
}

// GetPageByID fetches a page by id.
func (q *Queries) GetPageByID(ctx context.Context, id int64) (model.Page, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE id = ?`, id)
	return scanPage(row)
}

// GetPageBySlug fetches a page by its path-qualified slug.
func (q *Queries) GetPageBySlug(ctx context.Context, slug string) (model.Page, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE slug = ?`, slug)
	return scanPage(row)
}

// DeletePage removes a page by id.
func (q *Queries) DeletePage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	return err
}

// ListPagesParams holds pagination for ListPages.
type ListPagesParams struct {
	Limit  int64
	Offset int64
}

// ListPages returns pages ordered by position then id.
func (q *Queries) ListPages(ctx context.Context, arg ListPagesParams) ([]model.Page, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM pages ORDER BY position, id LIMIT ? OFFSET ?`,
		arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPages(rows)
}

// ListPagesByStatusParams holds filter and pagination for ListPagesByStatus.
type ListPagesByStatusParams struct {
	Status string
	Limit  int64
	Offset int64
}

// ListPagesByStatus returns pages with the given status ordered by position.
func (q *Queries) ListPagesByStatus(ctx context.Context, arg ListPagesByStatusParams) ([]model.Page, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE status = ? ORDER BY position, id LIMIT ? OFFSET ?`,
		arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPages(rows)
}

// ListChildPages returns the direct children of a page.
func (q *Queries) ListChildPages(ctx context.Context, parentID int64) ([]model.Page, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE parent_id = ? ORDER BY position, id`,
		parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPages(rows)
}

func collectPages(rows *sql.Rows) ([]model.Page, error) {
	var pages []model.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// CountPages returns the total number of pages.
func (q *Queries) CountPages(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&n)
	return n, err
}

// CountPagesByStatus returns the number of pages with the given status.
func (q *Queries) CountPagesByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pages WHERE status = ?`, status).Scan(&n)
	return n, err
}

// CountChildPages returns the number of pages referencing id as parent.
func (q *Queries) CountChildPages(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pages WHERE parent_id = ?`, id).Scan(&n)
	return n, err
}

// PageSlugExistsParams identifies a slug and a page to exclude from the check.
type PageSlugExistsParams struct {
	Slug      string
	ExcludeID int64
}

// PageSlugExists reports whether any other page already uses the slug.
func (q *Queries) PageSlugExists(ctx context.Context, arg PageSlugExistsParams) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pages WHERE slug = ? AND id != ?`,
		arg.Slug, arg.ExcludeID).Scan(&n)
	return n > 0, err
}

// PageTitleExistsParams identifies a title and a page to exclude from the check.
type PageTitleExistsParams struct {
	Title     string
	ExcludeID int64
}

// PageTitleExists reports whether any other page already uses the title.
func (q *Queries) PageTitleExists(ctx context.Context, arg PageTitleExistsParams) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pages WHERE title = ? AND id != ?`,
		arg.Title, arg.ExcludeID).Scan(&n)
	return n > 0, err
}

// MaxPagePosition returns the highest page position, or -1 with no pages.
func (q *Queries) MaxPagePosition(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	err := q.db.QueryRowContext(ctx, `SELECT MAX(position) FROM pages`).Scan(&max)
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return -1, nil
	}
	return max.Int64, nil
}
