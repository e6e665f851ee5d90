// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"github.com/stanzacms/stanza/internal/middleware"
	"github.com/stanzacms/stanza/internal/model"
)

// RateConfig holds the per-key and global API rate limits.
type RateConfig struct {
	PerKeyRPS   float64
	PerKeyBurst int
	GlobalRPS   float64
	GlobalBurst int
}

// Routes builds the /api/v1 router. Reads are public with optional
// authentication for draft/private access; writes require an API key with
// the matching permission.
func Routes(db *sql.DB, rates RateConfig) chi.Router {
	h := NewHandler(db)
	r := chi.NewRouter()

	limiter := middleware.NewGlobalRateLimiter(rates.GlobalRPS, rates.GlobalBurst)
	r.Use(limiter.Middleware())

	r.Get("/status", h.Status)

	// Public read endpoints; a key widens visibility beyond published.
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAPIKeyAuth(db))

		r.Get("/pages", h.ListPages)
		r.Get("/pages/by-slug", h.GetPageBySlug)
		r.Get("/pages/{id}", h.GetPage)
		r.Get("/pages/{id}/children", h.ListChildPages)

		r.Get("/links", h.ListLinks)
		r.Get("/links/{id}", h.GetLink)

		r.Get("/posts", h.ListPosts)
		r.Get("/posts/by-slug/{slug}", h.GetPostBySlug)
		r.Get("/posts/{id}", h.GetPost)
		r.Post("/posts/{id}/views", h.IncrementPostViews)
	})

	// Protected endpoints.
	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(db))
		r.Use(middleware.APIRateLimit(rates.PerKeyRPS, rates.PerKeyBurst))

		r.Get("/auth", h.AuthInfo)
		r.Get("/events", h.ListEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(model.PermissionPagesWrite))
			r.Post("/pages", h.CreatePage)
			r.Put("/pages/{id}", h.UpdatePage)
			r.Delete("/pages/{id}", h.DeletePage)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(model.PermissionLinksWrite))
			r.Post("/links", h.CreateLink)
			r.Put("/links/{id}", h.UpdateLink)
			r.Delete("/links/{id}", h.DeleteLink)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(model.PermissionPostsWrite))
			r.Post("/posts", h.CreatePost)
			r.Put("/posts/{id}", h.UpdatePost)
			r.Delete("/posts/{id}", h.DeletePost)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(model.PermissionUsersWrite))
			r.Get("/users", h.ListUsers)
			r.Get("/users/{id}", h.GetUser)
			r.Post("/users", h.CreateUser)
			r.Delete("/users/{id}", h.DeleteUser)
		})
	})

	return r
}
