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

	"github.com/stanzacms/stanza/internal/model"
	"github.com/stanzacms/stanza/internal/store"
	"github.com/stanzacms/stanza/internal/util"
)

// ContentService owns the page hierarchy: it derives path-qualified slugs,
// guards parent/child references and drives the navigation sync engine on
// every save. Each save runs as one transaction covering the page and its
// mirrored link, so readers never observe the pair half-updated.
type ContentService struct {
	db      *sql.DB
	queries *store.Queries
}

// NewContentService creates a new ContentService.
func NewContentService(db *sql.DB) *ContentService {
	return &ContentService{
		db:      db,
		queries: store.New(db),
	}
}

// CreatePageInput holds caller-supplied fields for a new page. The slug is
// always derived, never accepted from the caller.
type CreatePageInput struct {
	Title           string
	Content         string
	ParentID        *int64
	Status          string // defaults to draft
	LinkLocation    string // defaults to unsorted
	ShowInPosition  *bool  // defaults to true
	Order           *int64 // defaults to the next free position
	MetaTitle       string
	MetaDescription string
	MetaKeywords    string
}

// UpdatePageInput holds partial updates for an existing page. Nil fields are
// left unchanged; ParentID set to an invalid NullInt64 clears the parent.
type UpdatePageInput struct {
	Title           *string
	Content         *string
	ParentID        *sql.NullInt64
	Status          *string
	LinkLocation    *string
	ShowInPosition  *bool
	Order           *int64
	MetaTitle       *string
	MetaDescription *string
	MetaKeywords    *string
}

// CreatePage validates the input, derives the slug and persists the page
// together with its navigation link.
func (s *ContentService) CreatePage(ctx context.Context, input CreatePageInput) (model.Page, error) {
	now := time.Now()
	page := model.Page{
		Title:           input.Title,
		Content:         input.Content,
		Status:          input.Status,
		LinkLocation:    input.LinkLocation,
		ShowInPosition:  true,
		MetaTitle:       input.MetaTitle,
		MetaDescription: input.MetaDescription,
		MetaKeywords:    input.MetaKeywords,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	page.ParentID = util.NullInt64FromPtr(input.ParentID)
	if input.ShowInPosition != nil {
		page.ShowInPosition = *input.ShowInPosition
	}
	if input.Order != nil {
		page.Position = *input.Order
	} else {
		page.Position = -1 // assign the next free position inside the tx
	}

	return s.savePage(ctx, page, true)
}

// UpdatePage applies the given fields and re-saves the page. The slug is
// recomputed unconditionally from the page's current parent, and the paired
// link is updated in the same transaction.
func (s *ContentService) UpdatePage(ctx context.Context, id int64, input UpdatePageInput) (model.Page, error) {
	page, err := s.GetPage(ctx, id)
	if err != nil {
		return model.Page{}, err
	}

	if input.Title != nil {
		page.Title = *input.Title
	}
	if input.Content != nil {
		page.Content = *input.Content
	}
	if input.ParentID != nil {
		page.ParentID = *input.ParentID
	}
	if input.Status != nil {
		page.Status = *input.Status
	}
	if input.LinkLocation != nil {
		page.LinkLocation = *input.LinkLocation
	}
	if input.ShowInPosition != nil {
		page.ShowInPosition = *input.ShowInPosition
	}
	if input.Order != nil {
		page.Position = *input.Order
	}
	if input.MetaTitle != nil {
		page.MetaTitle = *input.MetaTitle
	}
	if input.MetaDescription != nil {
		page.MetaDescription = *input.MetaDescription
	}
	if input.MetaKeywords != nil {
		page.MetaKeywords = *input.MetaKeywords
	}
	page.UpdatedAt = time.Now()

	return s.savePage(ctx, page, true)
}

// GetPage fetches a page by id.
func (s *ContentService) GetPage(ctx context.Context, id int64) (model.Page, error) {
	page, err := s.queries.GetPageByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Page{}, fmt.Errorf("page %d: %w", id, ErrNotFound)
	}
	return page, err
}

// GetPageBySlug fetches a page by its path-qualified slug.
func (s *ContentService) GetPageBySlug(ctx context.Context, slug string) (model.Page, error) {
	page, err := s.queries.GetPageBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Page{}, fmt.Errorf("page %q: %w", slug, ErrNotFound)
	}
	return page, err
}

// DeletePage removes a page. The delete is rejected with a ReferentialError
// while child pages reference it; the paired link is removed in the same
// transaction.
func (s *ContentService) DeletePage(ctx context.Context, id int64) error {
	return store.InTx(ctx, s.db, func(q *store.Queries) error {
		if _, err := q.GetPageByID(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("page %d: %w", id, ErrNotFound)
			}
			return fmt.Errorf("fetching page: %w", err)
		}

		children, err := q.CountChildPages(ctx, id)
		if err != nil {
			return fmt.Errorf("counting children: %w", err)
		}
		if children > 0 {
			return &ReferentialError{
				Message: fmt.Sprintf("page %d has %d child page(s) and cannot be deleted", id, children),
			}
		}

		// Link cascade: the page's navigation mirror goes with it.
		link, err := q.GetLinkByPageID(ctx, id)
		switch {
		case err == nil:
			if err := q.DeleteLink(ctx, link.ID); err != nil {
				return fmt.Errorf("deleting paired link: %w", err)
			}
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("fetching paired link: %w", err)
		}

		if err := q.DeletePage(ctx, id); err != nil {
			return fmt.Errorf("deleting page: %w", err)
		}
		return nil
	})
}

// savePage runs savePageTx in a transaction, retrying slug derivation when a
// concurrent writer wins the unique-constraint race.
func (s *ContentService) savePage(ctx context.Context, page model.Page, propagateToLink bool) (model.Page, error) {
	var saved model.Page
	var err error

	for attempt := 0; attempt < uniqueRetryAttempts; attempt++ {
		err = store.InTx(ctx, s.db, func(q *store.Queries) error {
			var txErr error
			saved, txErr = savePageTx(ctx, q, page, propagateToLink)
			return txErr
		})
		if err == nil || !isUniqueViolation(err) {
			break
		}
		slog.Debug("retrying page save after unique conflict",
			"title", page.Title, "attempt", attempt+1)
	}

	if err != nil {
		return model.Page{}, err
	}
	return saved, nil
}

// savePageTx validates and persists a page inside the caller's transaction.
// The slug is recomputed unconditionally from the page's current parent, so
// editing a title or reparenting always regenerates it. Descendant slugs are
// NOT recomputed here; each child picks up its parent's new slug only when it
// is itself next saved.
//
// propagateToLink gates the navigation sync. It is an explicit parameter
// rather than a flag on the entity so that a back-propagating link save can
// never re-enter the sync engine.
func savePageTx(ctx context.Context, q *store.Queries, page model.Page, propagateToLink bool) (model.Page, error) {
	if err := validatePageTx(ctx, q, &page); err != nil {
		return model.Page{}, err
	}

	slug, err := derivePageSlugTx(ctx, q, &page)
	if err != nil {
		return model.Page{}, err
	}
	page.Slug = slug

	if page.Position < 0 {
		max, err := q.MaxPagePosition(ctx)
		if err != nil {
			return model.Page{}, fmt.Errorf("finding max position: %w", err)
		}
		page.Position = max + 1
	}

	var saved model.Page
	if page.ID == 0 {
		saved, err = q.CreatePage(ctx, store.CreatePageParams{
			Title:           page.Title,
			Slug:            page.Slug,
			Content:         page.Content,
			ParentID:        page.ParentID,
			Status:          page.Status,
			LinkLocation:    page.LinkLocation,
			ShowInPosition:  page.ShowInPosition,
			Position:        page.Position,
			MetaTitle:       page.MetaTitle,
			MetaDescription: page.MetaDescription,
			MetaKeywords:    page.MetaKeywords,
			CreatedAt:       page.CreatedAt,
			UpdatedAt:       page.UpdatedAt,
		})
	} else {
		saved, err = q.UpdatePage(ctx, store.UpdatePageParams{
			ID:              page.ID,
			Title:           page.Title,
			Slug:            page.Slug,
			Content:         page.Content,
			ParentID:        page.ParentID,
			Status:          page.Status,
			LinkLocation:    page.LinkLocation,
			ShowInPosition:  page.ShowInPosition,
			Position:        page.Position,
			MetaTitle:       page.MetaTitle,
			MetaDescription: page.MetaDescription,
			MetaKeywords:    page.MetaKeywords,
			UpdatedAt:       page.UpdatedAt,
		})
	}
	if err != nil {
		return model.Page{}, fmt.Errorf("persisting page: %w", err)
	}

	if propagateToLink {
		if err := syncFromPageTx(ctx, q, saved); err != nil {
			return model.Page{}, err
		}
	}

	return saved, nil
}

// validatePageTx checks field constraints and uniqueness ahead of the write.
func validatePageTx(ctx context.Context, q *store.Queries, page *model.Page) error {
	fields := make(map[string]string)

	if page.Title == "" {
		fields["title"] = "title is required"
	} else if len(page.Title) > model.TitleMaxLen {
		fields["title"] = fmt.Sprintf("title must be at most %d characters", model.TitleMaxLen)
	}

	if page.Status == "" {
		page.Status = model.StatusDraft
	} else if !model.IsValidStatus(page.Status) {
		fields["status"] = fmt.Sprintf("invalid status %q", page.Status)
	}

	if page.LinkLocation == "" {
		page.LinkLocation = model.LocationUnsorted
	} else if !model.IsValidLocation(page.LinkLocation) {
		fields["link_location"] = fmt.Sprintf("invalid link location %q", page.LinkLocation)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	if page.Title != "" {
		taken, err := q.PageTitleExists(ctx, store.PageTitleExistsParams{
			Title:     page.Title,
			ExcludeID: page.ID,
		})
		if err != nil {
			return fmt.Errorf("checking title: %w", err)
		}
		if taken {
			return NewValidationError("title", "a page with this title already exists")
		}
	}

	return nil
}

// derivePageSlugTx computes the path-qualified slug from the page's current
// parent and makes it unique among pages.
func derivePageSlugTx(ctx context.Context, q *store.Queries, page *model.Page) (string, error) {
	base := util.Slugify(page.Title)
	if base == "" {
		return "", NewValidationError("title", "title does not produce a usable slug")
	}

	candidate := base
	if page.ParentID.Valid {
		if page.ID != 0 && page.ParentID.Int64 == page.ID {
			return "", NewValidationError("parent", "a page cannot be its own parent")
		}
		parent, err := q.GetPageByID(ctx, page.ParentID.Int64)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", NewValidationError("parent", "parent page does not exist")
			}
			return "", fmt.Errorf("fetching parent: %w", err)
		}
		if page.ID != 0 {
			if err := ensureNotDescendantTx(ctx, q, page.ID, parent); err != nil {
				return "", err
			}
		}
		candidate = parent.Slug + "/" + base
	}

	slug, err := util.UniqueSlug(ctx, candidate, func(ctx context.Context, s string) (bool, error) {
		return q.PageSlugExists(ctx, store.PageSlugExistsParams{Slug: s, ExcludeID: page.ID})
	})
	if err != nil {
		if errors.Is(err, util.ErrSlugExhausted) {
			slog.Error("page slug namespace exhausted", "title", page.Title, "candidate", candidate)
		}
		return "", err
	}
	return slug, nil
}

// ensureNotDescendantTx walks up from parent and rejects the reparenting if
// pageID appears among its ancestors, which would create a cycle.
func ensureNotDescendantTx(ctx context.Context, q *store.Queries, pageID int64, parent model.Page) error {
	current := parent
	for {
		if current.ID == pageID {
			return NewValidationError("parent", "a page cannot be moved under one of its own descendants")
		}
		if !current.ParentID.Valid {
			return nil
		}
		next, err := q.GetPageByID(ctx, current.ParentID.Int64)
		if err != nil {
			return fmt.Errorf("walking ancestors: %w", err)
		}
		current = next
	}
}
