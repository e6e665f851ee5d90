// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stanzacms/stanza/internal/handler"
	"github.com/stanzacms/stanza/internal/middleware"
	"github.com/stanzacms/stanza/internal/model"
	"github.com/stanzacms/stanza/internal/render"
	"github.com/stanzacms/stanza/internal/service"
	"github.com/stanzacms/stanza/internal/store"
	"github.com/stanzacms/stanza/internal/util"
)

// PostResponse represents a blog post in API responses.
type PostResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Content         string    `json:"content"`
	HTML            string    `json:"html,omitempty"`
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

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	Excerpt         string `json:"excerpt,omitempty"`
	AuthorID        int64  `json:"author_id"`
	Status          string `json:"status,omitempty"`
	MetaTitle       string `json:"meta_title,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`
	MetaKeywords    string `json:"meta_keywords,omitempty"`
}

// UpdatePostRequest is the request body for updating a post.
type UpdatePostRequest struct {
	Title           *string `json:"title,omitempty"`
	Content         *string `json:"content,omitempty"`
	Excerpt         *string `json:"excerpt,omitempty"`
	Status          *string `json:"status,omitempty"`
	MetaTitle       *string `json:"meta_title,omitempty"`
	MetaDescription *string `json:"meta_description,omitempty"`
	MetaKeywords    *string `json:"meta_keywords,omitempty"`
}

func postToResponse(p model.Post, renderHTML bool) PostResponse {
	resp := PostResponse{
		ID:              p.ID,
		Title:           p.Title,
		Slug:            p.Slug,
		Content:         p.Content,
		Excerpt:         p.Excerpt,
		AuthorID:        p.AuthorID,
		Status:          p.Status,
		Views:           p.Views,
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
		MetaKeywords:    p.MetaKeywords,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if renderHTML {
		html, err := render.Markdown(p.Content)
		if err != nil {
			slog.Warn("rendering post markdown", "post", p.ID, "error", err)
		} else {
			resp.HTML = html
		}
	}
	return resp
}

// ListPosts handles GET /api/v1/posts. Unauthenticated callers only see
// published posts; ?author filters by author id.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := r.URL.Query().Get("status")
	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, 20, 100)

	authenticated := middleware.GetAPIKey(r) != nil
	if !authenticated {
		if status != "" && status != model.StatusPublished {
			WriteForbidden(w, "Authentication required to view non-published posts")
			return
		}
		status = model.StatusPublished
	}

	var authorID int64
	if raw := r.URL.Query().Get("author"); raw != "" {
		var err error
		authorID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			WriteBadRequest(w, "Invalid author ID", nil)
			return
		}
	}

	posts, err := h.queries.ListPosts(ctx, store.ListPostsParams{
		Status:   status,
		AuthorID: authorID,
		Limit:    int64(perPage),
		Offset:   int64((page - 1) * perPage),
	})
	if err != nil {
		WriteInternalError(w, "Failed to list posts")
		return
	}
	total, err := h.queries.CountPosts(ctx, store.CountPostsParams{Status: status, AuthorID: authorID})
	if err != nil {
		WriteInternalError(w, "Failed to list posts")
		return
	}

	renderHTML := wantsHTML(r)
	responses := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		responses = append(responses, postToResponse(p, renderHTML))
	}

	WriteSuccess(w, responses, newMeta(total, page, perPage))
}

// GetPost handles GET /api/v1/posts/{id}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	post, err := h.posts.GetPost(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "retrieve post")
		return
	}
	if !h.canSee(r, post.Status) {
		WriteNotFound(w, "Not found")
		return
	}

	WriteSuccess(w, postToResponse(post, wantsHTML(r)), nil)
}

// GetPostBySlug handles GET /api/v1/posts/by-slug/{slug}.
func (h *Handler) GetPostBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !util.IsValidSlug(slug) {
		WriteBadRequest(w, "Invalid slug", nil)
		return
	}

	post, err := h.posts.GetPostBySlug(r.Context(), slug)
	if err != nil {
		writeServiceError(w, err, "retrieve post")
		return
	}
	if !h.canSee(r, post.Status) {
		WriteNotFound(w, "Not found")
		return
	}

	WriteSuccess(w, postToResponse(post, wantsHTML(r)), nil)
}

// IncrementPostViews handles POST /api/v1/posts/{id}/views and returns the
// post with the incremented counter.
func (h *Handler) IncrementPostViews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	post, err := h.posts.IncrementViews(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "count view")
		return
	}

	WriteSuccess(w, postToResponse(post, false), nil)
}

// CreatePost handles POST /api/v1/posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.posts.CreatePost(r.Context(), service.CreatePostInput{
		Title:           req.Title,
		Content:         req.Content,
		Excerpt:         req.Excerpt,
		AuthorID:        req.AuthorID,
		Status:          req.Status,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		MetaKeywords:    req.MetaKeywords,
	})
	if err != nil {
		writeServiceError(w, err, "create post")
		return
	}

	WriteCreated(w, postToResponse(post, false))
}

// UpdatePost handles PUT /api/v1/posts/{id}. The slug never changes.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.posts.UpdatePost(r.Context(), id, service.UpdatePostInput{
		Title:           req.Title,
		Content:         req.Content,
		Excerpt:         req.Excerpt,
		Status:          req.Status,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		MetaKeywords:    req.MetaKeywords,
	})
	if err != nil {
		writeServiceError(w, err, "update post")
		return
	}

	WriteSuccess(w, postToResponse(post, false), nil)
}

// DeletePost handles DELETE /api/v1/posts/{id}.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.posts.DeletePost(r.Context(), id); err != nil {
		writeServiceError(w, err, "delete post")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
