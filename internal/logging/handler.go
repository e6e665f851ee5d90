// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors warnings and errors
// into the database-backed event log.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/stanzacms/stanza/internal/model"
	"github.com/stanzacms/stanza/internal/store"
)

// EventLogHandler wraps another slog.Handler and additionally records WARN
// and ERROR logs in the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
}

// NewEventLogHandler creates an EventLogHandler forwarding WARN and above to
// the event log.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   slog.LevelWarn,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.writeEvent(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithAttrs(attrs), queries: h.queries, level: h.level}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithGroup(name), queries: h.queries, level: h.level}
}

// writeEvent stores a record in the events table. A background context is
// used so the event survives request cancellation; insert failures are
// swallowed because the inner handler already emitted the record.
func (h *EventLogHandler) writeEvent(r slog.Record) {
	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  eventCategory(r),
		Message:   r.Message,
		UserID:    sql.NullInt64{},
		Metadata:  eventMetadata(r),
		CreatedAt: r.Time,
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// eventCategory uses an explicit "category" attribute when present, falling
// back to keyword matching on the message.
func eventCategory(r slog.Record) string {
	var category string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			category = a.Value.String()
			return false
		}
		return true
	})
	if category != "" {
		return category
	}

	msg := strings.ToLower(r.Message)
	switch {
	case strings.Contains(msg, "page"):
		return model.EventCategoryPage
	case strings.Contains(msg, "link"):
		return model.EventCategoryLink
	case strings.Contains(msg, "post"):
		return model.EventCategoryPost
	case strings.Contains(msg, "user") || strings.Contains(msg, "auth"):
		return model.EventCategoryUser
	default:
		return model.EventCategorySystem
	}
}

// eventMetadata flattens the record attributes into a JSON object, skipping
// the category key.
func eventMetadata(r slog.Record) string {
	attrs := make(map[string]string)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "category" {
			attrs[a.Key] = a.Value.String()
		}
		return true
	})
	raw, err := json.Marshal(attrs)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
