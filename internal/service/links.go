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

// LinkService manages navigation links. A link is either external (plain URL)
// or a mirror of exactly one page; mirrored links are kept in lockstep with
// their page by the sync engine, and edits to a mirror propagate back to the
// page within the same transaction.
type LinkService struct {
	db      *sql.DB
	queries *store.Queries
}

// NewLinkService creates a new LinkService.
func NewLinkService(db *sql.DB) *LinkService {
	return &LinkService{
		db:      db,
		queries: store.New(db),
	}
}

// CreateLinkInput holds caller-supplied fields for a new link.
type CreateLinkInput struct {
	Label    string
	URL      string
	PageID   *int64
	Location string // defaults to unsorted
	Status   string // defaults to draft
	Order    *int64 // defaults to the next free position
}

// UpdateLinkInput holds partial updates for an existing link. Nil fields are
// left unchanged.
type UpdateLinkInput struct {
	Label    *string
	URL      *string
	Location *string
	Status   *string
	Order    *int64
}

// CreateLink validates the input and persists the link. When PageID is set
// the link becomes a mirror and the page's title seeds missing fields.
func (s *LinkService) CreateLink(ctx context.Context, input CreateLinkInput) (model.Link, error) {
	now := time.Now()
	link := model.Link{
		Label:     input.Label,
		URL:       input.URL,
		Location:  input.Location,
		Status:    input.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	link.PageID = util.NullInt64FromPtr(input.PageID)
	if input.Order != nil {
		link.Position = *input.Order
	} else {
		link.Position = -1
	}

	return s.saveLink(ctx, link, true)
}

// UpdateLink applies the given fields and re-saves the link. Edits to a
// mirrored link propagate back to the page in the same transaction.
func (s *LinkService) UpdateLink(ctx context.Context, id int64, input UpdateLinkInput) (model.Link, error) {
	link, err := s.GetLink(ctx, id)
	if err != nil {
		return model.Link{}, err
	}

	if input.Label != nil {
		link.Label = *input.Label
	}
	if input.URL != nil {
		link.URL = *input.URL
	}
	if input.Location != nil {
		link.Location = *input.Location
	}
	if input.Status != nil {
		link.Status = *input.Status
	}
	if input.Order != nil {
		link.Position = *input.Order
	}
	link.UpdatedAt = time.Now()

	return s.saveLink(ctx, link, true)
}

// GetLink fetches a link by id.
func (s *LinkService) GetLink(ctx context.Context, id int64) (model.Link, error) {
	link, err := s.queries.GetLinkByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Link{}, fmt.Errorf("link %d: %w", id, ErrNotFound)
	}
	return link, err
}

// GetLinkByPageID fetches the mirror link of a page.
func (s *LinkService) GetLinkByPageID(ctx context.Context, pageID int64) (model.Link, error) {
	link, err := s.queries.GetLinkByPageID(ctx, pageID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Link{}, fmt.Errorf("link for page %d: %w", pageID, ErrNotFound)
	}
	return link, err
}

// DeleteLink removes a link. Deleting a mirror never touches its page.
func (s *LinkService) DeleteLink(ctx context.Context, id int64) error {
	return store.InTx(ctx, s.db, func(q *store.Queries) error {
		if _, err := q.GetLinkByID(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("link %d: %w", id, ErrNotFound)
			}
			return fmt.Errorf("fetching link: %w", err)
		}
		if err := q.DeleteLink(ctx, id); err != nil {
			return fmt.Errorf("deleting link: %w", err)
		}
		return nil
	})
}

// saveLink runs saveLinkTx in a transaction, retrying on unique-constraint
// races the same way page saves do.
func (s *LinkService) saveLink(ctx context.Context, link model.Link, propagateToPage bool) (model.Link, error) {
	var saved model.Link
	var err error

	for attempt := 0; attempt < uniqueRetryAttempts; attempt++ {
		err = store.InTx(ctx, s.db, func(q *store.Queries) error {
			var txErr error
			saved, txErr = saveLinkTx(ctx, q, link, propagateToPage)
			return txErr
		})
		if err == nil || !isUniqueViolation(err) {
			break
		}
		slog.Debug("retrying link save after unique conflict",
			"label", link.Label, "attempt", attempt+1)
	}

	if err != nil {
		return model.Link{}, err
	}
	return saved, nil
}

// syncFromPageTx creates or updates the mirror link for a page. Label, slug,
// location, status and position are all copied from the page; the mirror is
// saved with back-propagation disabled so the chain terminates here.
func syncFromPageTx(ctx context.Context, q *store.Queries, page model.Page) error {
	link, err := q.GetLinkByPageID(ctx, page.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		link = model.Link{
			PageID:    sql.NullInt64{Int64: page.ID, Valid: true},
			CreatedAt: page.UpdatedAt,
		}
	case err != nil:
		return fmt.Errorf("fetching mirror link: %w", err)
	}

	link.Label = page.Title
	link.Slug = page.Slug
	link.Location = page.LinkLocation
	link.Status = page.Status
	link.Position = page.Position
	link.UpdatedAt = page.UpdatedAt

	_, err = saveLinkTx(ctx, q, link, false)
	return err
}

// saveLinkTx validates and persists a link inside the caller's transaction.
//
// When propagateToPage is set and the link mirrors a page, the page is
// re-saved with the link's label as its new title; that page save recomputes
// the page slug and syncs the mirror exactly once more with the page's
// derived fields, with back-propagation off so the chain terminates. Status
// and location are copied to the page only when the page has none yet; when
// both sides carry a value the page's wins on the round trip. Position is
// copied unconditionally.
func saveLinkTx(ctx context.Context, q *store.Queries, link model.Link, propagateToPage bool) (model.Link, error) {
	// A mirror with an empty label borrows its page's title.
	if link.Label == "" && link.PageID.Valid {
		page, err := q.GetPageByID(ctx, link.PageID.Int64)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.Link{}, NewValidationError("page", "linked page does not exist")
			}
			return model.Link{}, fmt.Errorf("fetching linked page: %w", err)
		}
		link.Label = page.Title
	}

	// A page carries at most one mirror; catch the duplicate here instead of
	// letting the unique index reject the insert with a driver error.
	if link.PageID.Valid {
		existing, err := q.GetLinkByPageID(ctx, link.PageID.Int64)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return model.Link{}, fmt.Errorf("checking page link: %w", err)
		}
		if err == nil && existing.ID != link.ID {
			return model.Link{}, NewValidationError("page", "page already has a navigation link")
		}
	}

	if err := validateLinkTx(ctx, q, &link); err != nil {
		return model.Link{}, err
	}

	if link.Slug == "" {
		slug, err := deriveLinkSlugTx(ctx, q, &link)
		if err != nil {
			return model.Link{}, err
		}
		link.Slug = slug
	}

	if link.Position < 0 {
		max, err := q.MaxLinkPosition(ctx)
		if err != nil {
			return model.Link{}, fmt.Errorf("finding max position: %w", err)
		}
		link.Position = max + 1
	}

	var saved model.Link
	var err error
	if link.ID == 0 {
		saved, err = q.CreateLink(ctx, store.CreateLinkParams{
			Label:     link.Label,
			Slug:      link.Slug,
			URL:       link.URL,
			PageID:    link.PageID,
			Location:  link.Location,
			Status:    link.Status,
			Position:  link.Position,
			CreatedAt: link.CreatedAt,
			UpdatedAt: link.UpdatedAt,
		})
	} else {
		saved, err = q.UpdateLink(ctx, store.UpdateLinkParams{
			ID:        link.ID,
			Label:     link.Label,
			Slug:      link.Slug,
			URL:       link.URL,
			PageID:    link.PageID,
			Location:  link.Location,
			Status:    link.Status,
			Position:  link.Position,
			UpdatedAt: link.UpdatedAt,
		})
	}
	if err != nil {
		return model.Link{}, fmt.Errorf("persisting link: %w", err)
	}

	if propagateToPage && saved.PageID.Valid {
		if err := propagateToPageTx(ctx, q, saved); err != nil {
			return model.Link{}, err
		}
	}

	return saved, nil
}

// propagateToPageTx pushes a mirror's edits back onto its page and re-saves
// it. The page save regenerates the page slug from the new title and then
// rewrites the mirror once with link propagation off.
func propagateToPageTx(ctx context.Context, q *store.Queries, link model.Link) error {
	page, err := q.GetPageByID(ctx, link.PageID.Int64)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewValidationError("page", "linked page does not exist")
		}
		return fmt.Errorf("fetching linked page: %w", err)
	}

	page.Title = link.Label
	if page.Status == "" {
		page.Status = link.Status
	}
	if page.LinkLocation == "" {
		page.LinkLocation = link.Location
	}
	page.Position = link.Position
	page.UpdatedAt = link.UpdatedAt

	if _, err := savePageTx(ctx, q, page, true); err != nil {
		return fmt.Errorf("propagating to page %d: %w", page.ID, err)
	}
	return nil
}

// validateLinkTx checks field constraints and uniqueness ahead of the write.
func validateLinkTx(ctx context.Context, q *store.Queries, link *model.Link) error {
	fields := make(map[string]string)

	if link.Label == "" {
		fields["label"] = "label is required"
	} else if len(link.Label) > model.TitleMaxLen {
		fields["label"] = fmt.Sprintf("label must be at most %d characters", model.TitleMaxLen)
	}

	if link.Status == "" {
		link.Status = model.StatusDraft
	} else if !model.IsValidStatus(link.Status) {
		fields["status"] = fmt.Sprintf("invalid status %q", link.Status)
	}

	if link.Location == "" {
		link.Location = model.LocationUnsorted
	} else if !model.IsValidLocation(link.Location) {
		fields["location"] = fmt.Sprintf("invalid location %q", link.Location)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	taken, err := q.LinkLabelExists(ctx, store.LinkLabelExistsParams{
		Label:     link.Label,
		ExcludeID: link.ID,
	})
	if err != nil {
		return fmt.Errorf("checking label: %w", err)
	}
	if taken {
		return NewValidationError("label", "a link with this label already exists")
	}

	return nil
}

// deriveLinkSlugTx derives a slug for a link that does not already carry one.
// Mirrors normally arrive with the page slug pre-filled; this path covers
// external links and freshly back-propagated mirrors.
func deriveLinkSlugTx(ctx context.Context, q *store.Queries, link *model.Link) (string, error) {
	base := util.Slugify(link.Label)
	if base == "" {
		return "", NewValidationError("label", "label does not produce a usable slug")
	}

	slug, err := util.UniqueSlug(ctx, base, func(ctx context.Context, s string) (bool, error) {
		return q.LinkSlugExists(ctx, store.LinkSlugExistsParams{Slug: s, ExcludeID: link.ID})
	})
	if err != nil {
		if errors.Is(err, util.ErrSlugExhausted) {
			slog.Error("link slug namespace exhausted", "label", link.Label, "candidate", base)
		}
		return "", err
	}
	return slug, nil
}
