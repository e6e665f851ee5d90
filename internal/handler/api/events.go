// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/stanzacms/stanza/internal/handler"
	"github.com/stanzacms/stanza/internal/model"
)

// EventResponse represents an event log entry in API responses.
type EventResponse struct {
	ID        int64           `json:"id"`
	Level     string          `json:"level"`
	Category  string          `json:"category"`
	Message   string          `json:"message"`
	UserID    *int64          `json:"user_id,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func eventToResponse(e model.Event) EventResponse {
	resp := EventResponse{
		ID:        e.ID,
		Level:     e.Level,
		Category:  e.Category,
		Message:   e.Message,
		Metadata:  json.RawMessage(e.Metadata),
		CreatedAt: e.CreatedAt,
	}
	if e.UserID.Valid {
		resp.UserID = &e.UserID.Int64
	}
	return resp
}

// ListEvents handles GET /api/v1/events, newest first.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, 50, 200)

	events, err := h.events.ListEvents(r.Context(), int64(perPage), int64((page-1)*perPage))
	if err != nil {
		WriteInternalError(w, "Failed to list events")
		return
	}

	responses := make([]EventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, eventToResponse(e))
	}
	WriteSuccess(w, responses, &Meta{Page: page, PerPage: perPage})
}
