// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stanzacms/stanza/internal/handler"
	"github.com/stanzacms/stanza/internal/middleware"
	"github.com/stanzacms/stanza/internal/model"
	"github.com/stanzacms/stanza/internal/render"
	"github.com/stanzacms/stanza/internal/service"
	"github.com/stanzacms/stanza/internal/store"
	"github.com/stanzacms/stanza/internal/util"
)

// PageResponse represents a page in API responses.
type PageResponse struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Content         string    `json:"content"`
	HTML            string    `json:"html,omitempty"`
	ParentID        *int64    `json:"parent_id,omitempty"`
	Status          string    `json:"status"`
	LinkLocation    string    `json:"link_location"`
	ShowInPosition  bool      `json:"show_in_position"`
	Order           int64     `json:"order"`
	MetaTitle       string    `json:"meta_title,omitempty"`
	MetaDescription string    `json:"meta_description,omitempty"`
	MetaKeywords    string    `json:"meta_keywords,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreatePageRequest is the request body for creating a page.
type CreatePageRequest struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	ParentID        *int64 `json:"parent_id,omitempty"`
	Status          string `json:"status,omitempty"`
	LinkLocation    string `json:"link_location,omitempty"`
	ShowInPosition  *bool  `json:"show_in_position,omitempty"`
	Order           *int64 `json:"order,omitempty"`
	MetaTitle       string `json:"meta_title,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`
	MetaKeywords    string `json:"meta_keywords,omitempty"`
}

// UpdatePageRequest is the request body for updating a page. Omitted fields
// stay unchanged; "parent_id": null clears the parent.
type UpdatePageRequest struct {
	Title           *string          `json:"title,omitempty"`
	Content         *string          `json:"content,omitempty"`
	ParentID        jsonNullableID   `json:"parent_id,omitzero"`
	Status          *string          `json:"status,omitempty"`
	LinkLocation    *string          `json:"link_location,omitempty"`
	ShowInPosition  *bool            `json:"show_in_position,omitempty"`
	Order           *int64           `json:"order,omitempty"`
	MetaTitle       *string          `json:"meta_title,omitempty"`
	MetaDescription *string          `json:"meta_description,omitempty"`
	MetaKeywords    *string          `json:"meta_keywords,omitempty"`
}

// jsonNullableID distinguishes an absent field from an explicit null.
type jsonNullableID struct {
	Set   bool
	Valid bool
	Value int64
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *jsonNullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Valid = false
		return nil
	}
	n.Valid = true
	return json.Unmarshal(data, &n.Value)
}

// pageToResponse converts a model.Page to PageResponse. When renderHTML is
// set the markdown body is also rendered.
func pageToResponse(p model.Page, renderHTML bool) PageResponse {
	resp := PageResponse{
		ID:              p.ID,
		Title:           p.Title,
		Slug:            p.Slug,
		Content:         p.Content,
		Status:          p.Status,
		LinkLocation:    p.LinkLocation,
		ShowInPosition:  p.ShowInPosition,
		Order:           p.Position,
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
		MetaKeywords:    p.MetaKeywords,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.ParentID.Valid {
		resp.ParentID = &p.ParentID.Int64
	}
	if renderHTML {
		html, err := render.Markdown(p.Content)
		if err != nil {
			slog.Warn("rendering page markdown", "page", p.ID, "error", err)
		} else {
			resp.HTML = html
		}
	}
	return resp
}

// wantsHTML reports whether the include query parameter asks for rendered
// markdown.
func wantsHTML(r *http.Request) bool {
	for _, inc := range strings.Split(r.URL.Query().Get("include"), ",") {
		if strings.TrimSpace(inc) == "html" {
			return true
		}
	}
	return false
}

// ListPages handles GET /api/v1/pages. Unauthenticated callers only see
// published pages.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := r.URL.Query().Get("status")
	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, 20, 100)
	offset := int64((page - 1) * perPage)
	limit := int64(perPage)

	authenticated := middleware.GetAPIKey(r) != nil
	if !authenticated {
		if status != "" && status != model.StatusPublished {
			WriteForbidden(w, "Authentication required to view non-published pages")
			return
		}
		status = model.StatusPublished
	}

	var pages []model.Page
	var total int64
	var err error
	if status != "" {
		pages, err = h.queries.ListPagesByStatus(ctx, store.ListPagesByStatusParams{
			Status: status, Limit: limit, Offset: offset,
		})
		if err == nil {
			total, err = h.queries.CountPagesByStatus(ctx, status)
		}
	} else {
		pages, err = h.queries.ListPages(ctx, store.ListPagesParams{Limit: limit, Offset: offset})
		if err == nil {
			total, err = h.queries.CountPages(ctx)
		}
	}
	if err != nil {
		WriteInternalError(w, "Failed to list pages")
		return
	}

	renderHTML := wantsHTML(r)
	responses := make([]PageResponse, 0, len(pages))
	for _, p := range pages {
		responses = append(responses, pageToResponse(p, renderHTML))
	}

	WriteSuccess(w, responses, newMeta(total, page, perPage))
}

// GetPage handles GET /api/v1/pages/{id}.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid page ID", nil)
		return
	}

	page, err := h.pages.GetPage(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "retrieve page")
		return
	}
	if !h.canSee(r, page.Status) {
		WriteNotFound(w, "Not found")
		return
	}

	WriteSuccess(w, pageToResponse(page, wantsHTML(r)), nil)
}

// GetPageBySlug handles GET /api/v1/pages/by-slug?slug=parent/child.
func (h *Handler) GetPageBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		WriteBadRequest(w, "Missing slug parameter", nil)
		return
	}
	if !util.IsValidPathSlug(slug) {
		WriteBadRequest(w, "Invalid slug", nil)
		return
	}

	page, err := h.pages.GetPageBySlug(r.Context(), slug)
	if err != nil {
		writeServiceError(w, err, "retrieve page")
		return
	}
	if !h.canSee(r, page.Status) {
		WriteNotFound(w, "Not found")
		return
	}

	WriteSuccess(w, pageToResponse(page, wantsHTML(r)), nil)
}

// ListChildPages handles GET /api/v1/pages/{id}/children.
func (h *Handler) ListChildPages(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid page ID", nil)
		return
	}
	if _, err := h.pages.GetPage(r.Context(), id); err != nil {
		writeServiceError(w, err, "retrieve page")
		return
	}

	children, err := h.queries.ListChildPages(r.Context(), id)
	if err != nil {
		WriteInternalError(w, "Failed to list child pages")
		return
	}

	authenticated := middleware.GetAPIKey(r) != nil
	responses := make([]PageResponse, 0, len(children))
	for _, c := range children {
		if !authenticated && c.Status != model.StatusPublished {
			continue
		}
		responses = append(responses, pageToResponse(c, false))
	}
	WriteSuccess(w, responses, nil)
}

// CreatePage handles POST /api/v1/pages.
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var req CreatePageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	page, err := h.pages.CreatePage(r.Context(), service.CreatePageInput{
		Title:           req.Title,
		Content:         req.Content,
		ParentID:        req.ParentID,
		Status:          req.Status,
		LinkLocation:    req.LinkLocation,
		ShowInPosition:  req.ShowInPosition,
		Order:           req.Order,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		MetaKeywords:    req.MetaKeywords,
	})
	if err != nil {
		writeServiceError(w, err, "create page")
		return
	}

	WriteCreated(w, pageToResponse(page, false))
}

// UpdatePage handles PUT /api/v1/pages/{id}.
func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid page ID", nil)
		return
	}

	var req UpdatePageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := service.UpdatePageInput{
		Title:           req.Title,
		Content:         req.Content,
		Status:          req.Status,
		LinkLocation:    req.LinkLocation,
		ShowInPosition:  req.ShowInPosition,
		Order:           req.Order,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		MetaKeywords:    req.MetaKeywords,
	}
	if req.ParentID.Set {
		input.ParentID = &sql.NullInt64{Int64: req.ParentID.Value, Valid: req.ParentID.Valid}
	}

	page, err := h.pages.UpdatePage(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, err, "update page")
		return
	}

	WriteSuccess(w, pageToResponse(page, false), nil)
}

// DeletePage handles DELETE /api/v1/pages/{id}.
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid page ID", nil)
		return
	}

	if err := h.pages.DeletePage(r.Context(), id); err != nil {
		writeServiceError(w, err, "delete page")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// canSee reports whether the caller may read content in the given status.
func (h *Handler) canSee(r *http.Request, status string) bool {
	return status == model.StatusPublished || middleware.GetAPIKey(r) != nil
}
