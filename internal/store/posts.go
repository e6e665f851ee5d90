// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/stanzacms/stanza/internal/model"
)

const postColumns = `id, title, slug, content, excerpt, author_id, status,
	views, meta_title, meta_description, meta_keywords, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (model.Post, error) {
	var p model.Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.AuthorID,
		&p.Status, &p.Views, &p.MetaTitle, &p.MetaDescription,
		&p.MetaKeywords, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// CreatePostParams holds the fields for CreatePost.
type CreatePostParams struct {
	ID              string
	Title           string
	Slug            string
	Content         string
	Excerpt         string
	AuthorID        int64
	Status          string
	MetaTitle       string
	MetaDescription string
	MetaKeywords    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreatePost inserts a post and returns the stored row.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (model.Post, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO posts (
			id, title, slug, content, excerpt, author_id, status,
			meta_title, meta_description, meta_keywords, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+postColumns,
		arg.ID, arg.Title, arg.Slug, arg.Content, arg.Excerpt, arg.AuthorID,
		arg.Status, arg.MetaTitle, arg.MetaDescription, arg.MetaKeywords,
		arg.CreatedAt, arg.UpdatedAt,
	)
	return scanPost(row)
}

// UpdatePostParams holds the fields for UpdatePost. The slug is deliberately
// absent: a post's slug is fixed at creation.
type UpdatePostParams struct {
	ID              string
	Title           string
	Content         string
	Excerpt         string
	Status          string
	MetaTitle       string
	MetaDescription string
	MetaKeywords    string
	UpdatedAt       time.Time
}

// UpdatePost rewrites the mutable post fields and returns the stored row.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (model.Post, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE posts SET
			title = ?, content = ?, excerpt = ?, status = ?,
			meta_title = ?, meta_description = ?, meta_keywords = ?,
			updated_at = ?
		WHERE id = ?
		RETURNING `+postColumns,
		arg.Title, arg.Content, arg.Excerpt, arg.Status, arg.MetaTitle,
		arg.MetaDescription, arg.MetaKeywords, arg.UpdatedAt, arg.ID,
	)
	return scanPost(row)
}

// IncrementPostViews atomically bumps the view counter by one and returns the
// stored row. The increment happens inside the UPDATE so concurrent requests
// cannot lose updates.
func (q *Queries) IncrementPostViews(ctx context.Context, id string) (model.Post, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE posts SET views = views + 1 WHERE id = ?
		RETURNING `+postColumns, id)
	return scanPost(row)
}

// GetPostByID fetches a post by id.
func (q *Queries) GetPostByID(ctx context.Context, id string) (model.Post, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// GetPostBySlug fetches a post by slug.
func (q *Queries) GetPostBySlug(ctx context.Context, slug string) (model.Post, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)
	return scanPost(row)
}

// DeletePost removes a post by id.
func (q *Queries) DeletePost(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	return err
}

// ListPostsParams holds filters and pagination for ListPosts. Zero-valued
// filters are ignored.
type ListPostsParams struct {
	Status   string
	AuthorID int64
	Limit    int64
	Offset   int64
}

// ListPosts returns posts newest first, optionally filtered by status and
// author.
func (q *Queries) ListPosts(ctx context.Context, arg ListPostsParams) ([]model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE 1=1`
	args := []any{}
	if arg.Status != "" {
		query += ` AND status = ?`
		args = append(args, arg.Status)
	}
	if arg.AuthorID != 0 {
		query += ` AND author_id = ?`
		args = append(args, arg.AuthorID)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, arg.Limit, arg.Offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CountPostsParams mirrors the filters of ListPosts.
type CountPostsParams struct {
	Status   string
	AuthorID int64
}

// CountPosts returns the number of posts matching the filters.
func (q *Queries) CountPosts(ctx context.Context, arg CountPostsParams) (int64, error) {
	query := `SELECT COUNT(*) FROM posts WHERE 1=1`
	args := []any{}
	if arg.Status != "" {
		query += ` AND status = ?`
		args = append(args, arg.Status)
	}
	if arg.AuthorID != 0 {
		query += ` AND author_id = ?`
		args = append(args, arg.AuthorID)
	}

	var n int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// CountPostsByAuthor returns the number of posts written by a user.
func (q *Queries) CountPostsByAuthor(ctx context.Context, authorID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE author_id = ?`, authorID).Scan(&n)
	return n, err
}

// PostSlugExists reports whether any post already uses the slug.
func (q *Queries) PostSlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE slug = ?`, slug).Scan(&n)
	return n > 0, err
}

// PostTitleExistsParams identifies a title and a post to exclude from the check.
type PostTitleExistsParams struct {
	Title     string
	ExcludeID string
}

// PostTitleExists reports whether any other post already uses the title.
func (q *Queries) PostTitleExists(ctx context.Context, arg PostTitleExistsParams) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE title = ? AND id != ?`,
		arg.Title, arg.ExcludeID).Scan(&n)
	return n > 0, err
}
