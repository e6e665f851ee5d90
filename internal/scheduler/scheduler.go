// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stanzacms/stanza/internal/service"
)

// Scheduler runs background maintenance on a cron schedule: purging old
// events and keeping the SQLite file compact.
type Scheduler struct {
	db             *sql.DB
	cron           *cron.Cron
	logger         *slog.Logger
	events         *service.EventService
	eventRetention time.Duration
}

// New creates a scheduler. Events older than eventRetention are purged.
func New(db *sql.DB, logger *slog.Logger, eventRetention time.Duration) *Scheduler {
	return &Scheduler{
		db:             db,
		cron:           cron.New(),
		logger:         logger,
		events:         service.NewEventService(db),
		eventRetention: eventRetention,
	}
}

// Start registers the maintenance jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	// Purge old events once a day, shortly after midnight.
	if _, err := s.cron.AddFunc("15 0 * * *", func() {
		if err := s.purgeEvents(); err != nil {
			s.logger.Error("failed to purge old events", "error", err)
		}
	}); err != nil {
		return err
	}

	// Compact the database hourly.
	if _, err := s.cron.AddFunc("0 * * * *", func() {
		if err := s.optimizeDatabase(); err != nil {
			s.logger.Error("failed to optimize database", "error", err)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// purgeEvents deletes events past the retention window.
func (s *Scheduler) purgeEvents() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.events.PurgeOlderThan(ctx, s.eventRetention); err != nil {
		return err
	}
	s.logger.Info("purged old events", "retention", s.eventRetention)
	return nil
}

// optimizeDatabase runs the SQLite housekeeping pragmas.
func (s *Scheduler) optimizeDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return err
	}
	return nil
}
