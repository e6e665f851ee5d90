// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/stanzacms/stanza/internal/model"
)

const linkColumns = `id, label, slug, url, page_id, location, status, position,
	created_at, updated_at`

func scanLink(row interface{ Scan(...any) error }) (model.Link, error) {
	var l model.Link
	err := row.Scan(
		&l.ID, &l.Label, &l.Slug, &l.URL, &l.PageID, &l.Location, &l.Status,
		&l.Position, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

// CreateLinkParams holds the fields for CreateLink.
type CreateLinkParams struct {
	Label     string
	Slug      string
	URL       string
	PageID    sql.NullInt64
	Location  string
	Status    string
	Position  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateLink inserts a link and returns the stored row.
func (q *Queries) CreateLink(ctx context.Context, arg CreateLinkParams) (model.Link, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO links (
			label, slug, url, page_id, location, status, position,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+linkColumns,
		arg.Label, arg.Slug, arg.URL, arg.PageID, arg.Location, arg.Status,
		arg.Position, arg.CreatedAt, arg.UpdatedAt,
	)
	return scanLink(row)
}

// UpdateLinkParams holds the fields for UpdateLink.
type UpdateLinkParams struct {
	ID        int64
	Label     string
	Slug      string
	URL       string
	PageID    sql.NullInt64
	Location  string
	Status    string
	Position  int64
	UpdatedAt time.Time
}

// UpdateLink rewrites all mutable link fields and returns the stored row.
func (q *Queries) UpdateLink(ctx context.Context, arg UpdateLinkParams) (model.Link, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE links SET
			label = ?, slug = ?, url = ?, page_id = ?, location = ?,
			status = ?, position = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+linkColumns,
		arg.Label, arg.Slug, arg.URL, arg.PageID, arg.Location, arg.Status,
		arg.Position, arg.UpdatedAt, arg.ID,
	)
	return scanLink(row)
}

// GetLinkByID fetches a link by id.
func (q *Queries) GetLinkByID(ctx context.Context, id int64) (model.Link, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE id = ?`, id)
	return scanLink(row)
}

// GetLinkByPageID fetches the link mirroring the given page.
func (q *Queries) GetLinkByPageID(ctx context.Context, pageID int64) (model.Link, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE page_id = ?`, pageID)
	return scanLink(row)
}

// DeleteLink removes a link by id.
func (q *Queries) DeleteLink(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	return err
}

// linkOrderColumns whitelists the sortable columns for link listings. The
// value is interpolated into SQL, so only entries from this map may be used.
var linkOrderColumns = map[string]string{
	"position": "position",
	"label":    "label",
	"created":  "created_at",
}

// LinkOrderColumn resolves a caller-supplied sort name to a column, falling
// back to position for unknown names.
func LinkOrderColumn(name string) string {
	if col, ok := linkOrderColumns[name]; ok {
		return col
	}
	return "position"
}

// ListLinksParams holds ordering and pagination for ListLinks.
type ListLinksParams struct {
	OrderBy string
	Limit   int64
	Offset  int64
}

// ListLinks returns links ordered by the given column then id.
func (q *Queries) ListLinks(ctx context.Context, arg ListLinksParams) ([]model.Link, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM links ORDER BY `+LinkOrderColumn(arg.OrderBy)+`, id LIMIT ? OFFSET ?`,
		arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLinks(rows)
}

// ListLinksByLocationParams holds filter, ordering and pagination for
// ListLinksByLocation.
type ListLinksByLocationParams struct {
	Location string
	OrderBy  string
	Limit    int64
	Offset   int64
}

// ListLinksByLocation returns links in a location ordered by the given
// column then id.
func (q *Queries) ListLinksByLocation(ctx context.Context, arg ListLinksByLocationParams) ([]model.Link, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE location = ? ORDER BY `+LinkOrderColumn(arg.OrderBy)+`, id LIMIT ? OFFSET ?`,
		arg.Location, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLinks(rows)
}

func collectLinks(rows *sql.Rows) ([]model.Link, error) {
	var links []model.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// CountLinks returns the total number of links.
func (q *Queries) CountLinks(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links`).Scan(&n)
	return n, err
}

// CountLinksByLocation returns the number of links in a location.
func (q *Queries) CountLinksByLocation(ctx context.Context, location string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM links WHERE location = ?`, location).Scan(&n)
	return n, err
}

// MaxLinkPosition returns the highest position among all links, or -1 when
// there are none.
func (q *Queries) MaxLinkPosition(ctx context.Context) (int64, error) {
	var max int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) FROM links`).Scan(&max)
	return max, err
}

// LinkSlugExistsParams identifies a slug and a link to exclude from the check.
type LinkSlugExistsParams struct {
	Slug      string
	ExcludeID int64
}

// LinkSlugExists reports whether any other link already uses the slug.
func (q *Queries) LinkSlugExists(ctx context.Context, arg LinkSlugExistsParams) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM links WHERE slug = ? AND id != ?`,
		arg.Slug, arg.ExcludeID).Scan(&n)
	return n > 0, err
}

// LinkLabelExistsParams identifies a label and a link to exclude from the check.
type LinkLabelExistsParams struct {
	Label     string
	ExcludeID int64
}

// LinkLabelExists reports whether any other link already uses the label.
func (q *Queries) LinkLabelExists(ctx context.Context, arg LinkLabelExistsParams) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM links WHERE label = ? AND id != ?`,
		arg.Label, arg.ExcludeID).Scan(&n)
	return n > 0, err
}
