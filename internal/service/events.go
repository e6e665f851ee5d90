// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stanzacms/stanza/internal/model"
	"github.com/stanzacms/stanza/internal/store"
	"github.com/stanzacms/stanza/internal/util"
)

// EventService records operational events in the database so they survive
// process restarts and show up in the API's event listing.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{queries: store.New(db)}
}

// Log records an event. Metadata is marshaled to JSON; a nil map stores an
// empty object.
func (s *EventService) Log(ctx context.Context, level, category, message string, userID *int64, metadata map[string]any) error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	_, err = s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    util.NullInt64FromPtr(userID),
		Metadata:  string(raw),
		CreatedAt: time.Now(),
	})
	return err
}

// LogInfo records an informational event.
func (s *EventService) LogInfo(ctx context.Context, category, message string) error {
	return s.Log(ctx, model.EventLevelInfo, category, message, nil, nil)
}

// LogWarning records a warning event.
func (s *EventService) LogWarning(ctx context.Context, category, message string) error {
	return s.Log(ctx, model.EventLevelWarning, category, message, nil, nil)
}

// LogError records an error event.
func (s *EventService) LogError(ctx context.Context, category, message string) error {
	return s.Log(ctx, model.EventLevelError, category, message, nil, nil)
}

// ListEvents returns recent events, newest first.
func (s *EventService) ListEvents(ctx context.Context, limit, offset int64) ([]model.Event, error) {
	return s.queries.ListEvents(ctx, store.ListEventsParams{Limit: limit, Offset: offset})
}

// PurgeOlderThan deletes events recorded before now-age and returns nothing
// but the error; the maintenance scheduler calls this on a timer.
func (s *EventService) PurgeOlderThan(ctx context.Context, age time.Duration) error {
	return s.queries.DeleteOldEvents(ctx, time.Now().Add(-age))
}
