// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/stanzacms/stanza/internal/handler"
	"github.com/stanzacms/stanza/internal/middleware"
	"github.com/stanzacms/stanza/internal/model"
	"github.com/stanzacms/stanza/internal/service"
	"github.com/stanzacms/stanza/internal/store"
)

// LinkResponse represents a navigation link in API responses.
type LinkResponse struct {
	ID        int64     `json:"id"`
	Label     string    `json:"label"`
	Slug      string    `json:"slug"`
	URL       string    `json:"url,omitempty"`
	PageID    *int64    `json:"page_id,omitempty"`
	Location  string    `json:"location"`
	Status    string    `json:"status"`
	Order     int64     `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateLinkRequest is the request body for creating a link.
type CreateLinkRequest struct {
	Label    string `json:"label,omitempty"`
	URL      string `json:"url,omitempty"`
	PageID   *int64 `json:"page_id,omitempty"`
	Location string `json:"location,omitempty"`
	Status   string `json:"status,omitempty"`
	Order    *int64 `json:"order,omitempty"`
}

// UpdateLinkRequest is the request body for updating a link.
type UpdateLinkRequest struct {
	Label    *string `json:"label,omitempty"`
	URL      *string `json:"url,omitempty"`
	Location *string `json:"location,omitempty"`
	Status   *string `json:"status,omitempty"`
	Order    *int64  `json:"order,omitempty"`
}

func linkToResponse(l model.Link) LinkResponse {
	resp := LinkResponse{
		ID:        l.ID,
		Label:     l.Label,
		Slug:      l.Slug,
		URL:       l.URL,
		Location:  l.Location,
		Status:    l.Status,
		Order:     l.Position,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
	if l.PageID.Valid {
		resp.PageID = &l.PageID.Int64
	}
	return resp
}

// ListLinks handles GET /api/v1/links. Unauthenticated callers only see
// published links; ?location filters to one navigation area and ?sort picks
// the ordering column (position, label or created).
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	location := r.URL.Query().Get("location")
	sort := r.URL.Query().Get("sort")
	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, 20, 100)
	offset := int64((page - 1) * perPage)
	limit := int64(perPage)

	if location != "" && !model.IsValidLocation(location) {
		WriteBadRequest(w, "Invalid location", nil)
		return
	}

	var links []model.Link
	var total int64
	var err error
	if location != "" {
		links, err = h.queries.ListLinksByLocation(ctx, store.ListLinksByLocationParams{
			Location: location, OrderBy: sort, Limit: limit, Offset: offset,
		})
		if err == nil {
			total, err = h.queries.CountLinksByLocation(ctx, location)
		}
	} else {
		links, err = h.queries.ListLinks(ctx, store.ListLinksParams{OrderBy: sort, Limit: limit, Offset: offset})
		if err == nil {
			total, err = h.queries.CountLinks(ctx)
		}
	}
	if err != nil {
		WriteInternalError(w, "Failed to list links")
		return
	}

	authenticated := middleware.GetAPIKey(r) != nil
	responses := make([]LinkResponse, 0, len(links))
	for _, l := range links {
		if !authenticated && l.Status != model.StatusPublished {
			continue
		}
		responses = append(responses, linkToResponse(l))
	}

	WriteSuccess(w, responses, newMeta(total, page, perPage))
}

// GetLink handles GET /api/v1/links/{id}.
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid link ID", nil)
		return
	}

	link, err := h.links.GetLink(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "retrieve link")
		return
	}
	if !h.canSee(r, link.Status) {
		WriteNotFound(w, "Not found")
		return
	}

	WriteSuccess(w, linkToResponse(link), nil)
}

// CreateLink handles POST /api/v1/links.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	link, err := h.links.CreateLink(r.Context(), service.CreateLinkInput{
		Label:    req.Label,
		URL:      req.URL,
		PageID:   req.PageID,
		Location: req.Location,
		Status:   req.Status,
		Order:    req.Order,
	})
	if err != nil {
		writeServiceError(w, err, "create link")
		return
	}

	WriteCreated(w, linkToResponse(link))
}

// UpdateLink handles PUT /api/v1/links/{id}. Edits to a page-backed link
// propagate to its page.
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid link ID", nil)
		return
	}

	var req UpdateLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	link, err := h.links.UpdateLink(r.Context(), id, service.UpdateLinkInput{
		Label:    req.Label,
		URL:      req.URL,
		Location: req.Location,
		Status:   req.Status,
		Order:    req.Order,
	})
	if err != nil {
		writeServiceError(w, err, "update link")
		return
	}

	WriteSuccess(w, linkToResponse(link), nil)
}

// DeleteLink handles DELETE /api/v1/links/{id}.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid link ID", nil)
		return
	}

	if err := h.links.DeleteLink(r.Context(), id); err != nil {
		writeServiceError(w, err, "delete link")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
