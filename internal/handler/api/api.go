// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides REST API handlers for the CMS.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/stanzacms/stanza/internal/middleware"
	"github.com/stanzacms/stanza/internal/service"
	"github.com/stanzacms/stanza/internal/store"
	"github.com/stanzacms/stanza/internal/util"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db      *sql.DB
	queries *store.Queries
	pages   *service.ContentService
	links   *service.LinkService
	posts   *service.PostService
	users   *service.UserService
	events  *service.EventService
}

// NewHandler creates a new API handler.
func NewHandler(db *sql.DB) *Handler {
	return &Handler{
		db:      db,
		queries: store.New(db),
		pages:   service.NewContentService(db),
		links:   service.NewLinkService(db),
		posts:   service.NewPostService(db),
		users:   service.NewUserService(db),
		events:  service.NewEventService(db),
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total   int64 `json:"total,omitempty"`
	Page    int   `json:"page,omitempty"`
	PerPage int   `json:"per_page,omitempty"`
	Pages   int   `json:"pages,omitempty"`
}

// newMeta fills pagination metadata from a total count.
func newMeta(total int64, page, perPage int) *Meta {
	pages := int(total) / perPage
	if int(total)%perPage != 0 {
		pages++
	}
	return &Meta{Total: total, Page: page, PerPage: perPage, Pages: pages}
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message, Details: details},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteConflict writes a 409 Conflict response.
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, "conflict", message, nil)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// writeServiceError maps service-layer errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, err error, action string) {
	var verr *service.ValidationError
	var rerr *service.ReferentialError

	switch {
	case errors.As(err, &verr):
		WriteValidationError(w, verr.Fields)
	case errors.As(err, &rerr):
		WriteConflict(w, rerr.Message)
	case errors.Is(err, service.ErrNotFound):
		WriteNotFound(w, "Not found")
	case errors.Is(err, util.ErrSlugExhausted):
		WriteValidationError(w, map[string]string{"slug": "could not derive a unique slug"})
	default:
		slog.Error("api request failed", "action", action, "error", err)
		WriteInternalError(w, "Failed to "+action)
	}
}

// decodeJSON reads the request body into dst, rejecting unknown fields.
// Returns false after writing the error response when decoding fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteBadRequest(w, "Invalid JSON body: "+err.Error(), nil)
		return false
	}
	return true
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Status handles GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{Status: "ok", Version: "v1"}, nil)
}

// AuthInfoResponse describes the authenticated API key.
type AuthInfoResponse struct {
	KeyPrefix   string   `json:"key_prefix"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// AuthInfo handles GET /api/v1/auth. It reports the calling key's identity
// and permissions.
func (h *Handler) AuthInfo(w http.ResponseWriter, r *http.Request) {
	apiKey := middleware.GetAPIKey(r)
	if apiKey == nil {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Not authenticated", nil)
		return
	}

	WriteSuccess(w, AuthInfoResponse{
		KeyPrefix:   apiKey.KeyPrefix,
		Name:        apiKey.Name,
		Permissions: apiKey.GetPermissions(),
	}, nil)
}
