// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/stanzacms/stanza/internal/handler"
	"github.com/stanzacms/stanza/internal/model"
	"github.com/stanzacms/stanza/internal/service"
)

// UserResponse represents a user in API responses. Password hashes never
// leave the server.
type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserRequest is the request body for creating a user.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
}

func userToResponse(u model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ListUsers handles GET /api/v1/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		WriteInternalError(w, "Failed to list users")
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, userToResponse(u))
	}
	WriteSuccess(w, responses, nil)
}

// GetUser handles GET /api/v1/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid user ID", nil)
		return
	}

	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "retrieve user")
		return
	}
	WriteSuccess(w, userToResponse(user), nil)
}

// CreateUser handles POST /api/v1/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.CreateUser(r.Context(), service.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		writeServiceError(w, err, "create user")
		return
	}

	WriteCreated(w, userToResponse(user))
}

// DeleteUser handles DELETE /api/v1/users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid user ID", nil)
		return
	}

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		writeServiceError(w, err, "delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
