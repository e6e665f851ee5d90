// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stanzacms/stanza/internal/model"
	"github.com/stanzacms/stanza/internal/store"
	"github.com/stanzacms/stanza/internal/util"
)

// PostService manages blog posts. Posts sit outside the page hierarchy:
// their slugs are flat, derived exactly once at creation, and never change
// afterwards even when the title does.
type PostService struct {
	db      *sql.DB
	queries *store.Queries
}

// NewPostService creates a new PostService.
func NewPostService(db *sql.DB) *PostService {
	return &PostService{
		db:      db,
		queries: store.New(db),
	}
}

// CreatePostInput holds caller-supplied fields for a new post.
type CreatePostInput struct {
	Title           string
	Content         string
	Excerpt         string
	AuthorID        int64
	Status          string // defaults to draft
	MetaTitle       string
	MetaDescription string
	MetaKeywords    string
}

// UpdatePostInput holds partial updates for an existing post. Nil fields are
// left unchanged; the slug is never part of an update.
type UpdatePostInput struct {
	Title           *string
	Content         *string
	Excerpt         *string
	Status          *string
	MetaTitle       *string
	MetaDescription *string
	MetaKeywords    *string
}

// CreatePost validates the input, derives a permanent slug from the title and
// persists the post under a fresh UUID.
func (s *PostService) CreatePost(ctx context.Context, input CreatePostInput) (model.Post, error) {
	now := time.Now()
	post := model.Post{
		ID:              uuid.NewString(),
		Title:           input.Title,
		Content:         input.Content,
		Excerpt:         input.Excerpt,
		AuthorID:        input.AuthorID,
		Status:          input.Status,
		MetaTitle:       input.MetaTitle,
		MetaDescription: input.MetaDescription,
		MetaKeywords:    input.MetaKeywords,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var saved model.Post
	var err error
	for attempt := 0; attempt < uniqueRetryAttempts; attempt++ {
		err = store.InTx(ctx, s.db, func(q *store.Queries) error {
			var txErr error
			saved, txErr = createPostTx(ctx, q, post)
			return txErr
		})
		if err == nil || !isUniqueViolation(err) {
			break
		}
		slog.Debug("retrying post create after unique conflict",
			"title", post.Title, "attempt", attempt+1)
	}
	if err != nil {
		return model.Post{}, err
	}
	return saved, nil
}

// UpdatePost applies the given fields and re-saves the post. The slug stays
// fixed at its creation-time value.
func (s *PostService) UpdatePost(ctx context.Context, id string, input UpdatePostInput) (model.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return model.Post{}, err
	}

	if input.Title != nil {
		post.Title = *input.Title
	}
	if input.Content != nil {
		post.Content = *input.Content
	}
	if input.Excerpt != nil {
		post.Excerpt = *input.Excerpt
	}
	if input.Status != nil {
		post.Status = *input.Status
	}
	if input.MetaTitle != nil {
		post.MetaTitle = *input.MetaTitle
	}
	if input.MetaDescription != nil {
		post.MetaDescription = *input.MetaDescription
	}
	if input.MetaKeywords != nil {
		post.MetaKeywords = *input.MetaKeywords
	}
	post.UpdatedAt = time.Now()

	var saved model.Post
	err = store.InTx(ctx, s.db, func(q *store.Queries) error {
		if err := validatePostTx(ctx, q, &post); err != nil {
			return err
		}
		var txErr error
		saved, txErr = q.UpdatePost(ctx, store.UpdatePostParams{
			ID:              post.ID,
			Title:           post.Title,
			Content:         post.Content,
			Excerpt:         post.Excerpt,
			Status:          post.Status,
			MetaTitle:       post.MetaTitle,
			MetaDescription: post.MetaDescription,
			MetaKeywords:    post.MetaKeywords,
			UpdatedAt:       post.UpdatedAt,
		})
		if txErr != nil {
			return fmt.Errorf("persisting post: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return model.Post{}, err
	}
	return saved, nil
}

// GetPost fetches a post by id.
func (s *PostService) GetPost(ctx context.Context, id string) (model.Post, error) {
	post, err := s.queries.GetPostByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return post, err
}

// GetPostBySlug fetches a post by slug.
func (s *PostService) GetPostBySlug(ctx context.Context, slug string) (model.Post, error) {
	post, err := s.queries.GetPostBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, fmt.Errorf("post %q: %w", slug, ErrNotFound)
	}
	return post, err
}

// IncrementViews bumps the post's view counter atomically and returns the
// post with the new count. Concurrent increments never lose updates; the
// counter moves in a single UPDATE inside the database.
func (s *PostService) IncrementViews(ctx context.Context, id string) (model.Post, error) {
	post, err := s.queries.IncrementPostViews(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return post, err
}

// DeletePost removes a post by id.
func (s *PostService) DeletePost(ctx context.Context, id string) error {
	return store.InTx(ctx, s.db, func(q *store.Queries) error {
		if _, err := q.GetPostByID(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("post %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("fetching post: %w", err)
		}
		if err := q.DeletePost(ctx, id); err != nil {
			return fmt.Errorf("deleting post: %w", err)
		}
		return nil
	})
}

// createPostTx validates the post, derives its one-time slug and inserts it.
func createPostTx(ctx context.Context, q *store.Queries, post model.Post) (model.Post, error) {
	if err := validatePostTx(ctx, q, &post); err != nil {
		return model.Post{}, err
	}

	base := util.Slugify(post.Title)
	if base == "" {
		return model.Post{}, NewValidationError("title", "title does not produce a usable slug")
	}
	slug, err := util.UniqueSlug(ctx, base, func(ctx context.Context, s string) (bool, error) {
		return q.PostSlugExists(ctx, s)
	})
	if err != nil {
		if errors.Is(err, util.ErrSlugExhausted) {
			slog.Error("post slug namespace exhausted", "title", post.Title, "candidate", base)
		}
		return model.Post{}, err
	}
	post.Slug = slug

	saved, err := q.CreatePost(ctx, store.CreatePostParams{
		ID:              post.ID,
		Title:           post.Title,
		Slug:            post.Slug,
		Content:         post.Content,
		Excerpt:         post.Excerpt,
		AuthorID:        post.AuthorID,
		Status:          post.Status,
		MetaTitle:       post.MetaTitle,
		MetaDescription: post.MetaDescription,
		MetaKeywords:    post.MetaKeywords,
		CreatedAt:       post.CreatedAt,
		UpdatedAt:       post.UpdatedAt,
	})
	if err != nil {
		return model.Post{}, fmt.Errorf("persisting post: %w", err)
	}
	return saved, nil
}

// validatePostTx checks field constraints, author existence and title
// uniqueness ahead of the write.
func validatePostTx(ctx context.Context, q *store.Queries, post *model.Post) error {
	fields := make(map[string]string)

	if post.Title == "" {
		fields["title"] = "title is required"
	} else if len(post.Title) > model.TitleMaxLen {
		fields["title"] = fmt.Sprintf("title must be at most %d characters", model.TitleMaxLen)
	}

	if post.Status == "" {
		post.Status = model.StatusDraft
	} else if !model.IsValidStatus(post.Status) {
		fields["status"] = fmt.Sprintf("invalid status %q", post.Status)
	}

	if post.AuthorID == 0 {
		fields["author"] = "author is required"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	if _, err := q.GetUserByID(ctx, post.AuthorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewValidationError("author", "author does not exist")
		}
		return fmt.Errorf("fetching author: %w", err)
	}

	taken, err := q.PostTitleExists(ctx, store.PostTitleExistsParams{
		Title:     post.Title,
		ExcludeID: post.ID,
	})
	if err != nil {
		return fmt.Errorf("checking title: %w", err)
	}
	if taken {
		return NewValidationError("title", "a post with this title already exists")
	}

	return nil
}
