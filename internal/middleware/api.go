// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for API key authentication,
// permissions and rate limiting.
package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/stanzacms/stanza/internal/model"
	"github.com/stanzacms/stanza/internal/store"
)

// ContextKey is the type for request context keys set by this package.
type ContextKey string

// ContextKeyAPIKey is the context key under which the authenticated API key
// is stored.
const ContextKeyAPIKey ContextKey = "api_key"

// APIError is the JSON error envelope for middleware-level failures.
type APIError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message
	apiErr.Error.Details = details

	_ = json.NewEncoder(w).Encode(apiErr)
}

// APIKeyAuth returns middleware that requires a valid Bearer API key. The
// validated key is stored in the request context for the handlers and
// permission checks downstream.
func APIKeyAuth(db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, handled := validateAPIKey(w, r, queries, true)
			if handled {
				return
			}
			touchAPIKey(queries, apiKey.ID)
			serveWithAPIKey(next, w, r, *apiKey)
		})
	}
}

// OptionalAPIKeyAuth returns middleware that attaches a valid API key to the
// context when one is presented but never rejects the request.
func OptionalAPIKeyAuth(db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, _ := validateAPIKey(w, r, queries, false)
			if apiKey == nil {
				next.ServeHTTP(w, r)
				return
			}
			touchAPIKey(queries, apiKey.ID)
			serveWithAPIKey(next, w, r, *apiKey)
		})
	}
}

// RequirePermission returns middleware that rejects requests whose API key
// lacks the given permission. It must run after APIKeyAuth.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := GetAPIKey(r)
			if apiKey == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "API key required", nil)
				return
			}
			if !apiKey.HasPermission(permission) {
				WriteAPIError(w, http.StatusForbidden, "forbidden",
					"API key lacks required permission: "+permission, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetAPIKey retrieves the API key from the request context, or nil when the
// request was not authenticated.
func GetAPIKey(r *http.Request) *model.APIKey {
	apiKey, ok := r.Context().Value(ContextKeyAPIKey).(model.APIKey)
	if !ok {
		return nil
	}
	return &apiKey
}

// validateAPIKey parses the Authorization header and looks up the key. When
// required is true a failure writes the error response and the second return
// value reports that the request was handled.
func validateAPIKey(w http.ResponseWriter, r *http.Request, queries *store.Queries, required bool) (*model.APIKey, bool) {
	reject := func(message string) (*model.APIKey, bool) {
		if required {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", message, nil)
			return nil, true
		}
		return nil, false
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return reject("Missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return reject("Invalid Authorization header format. Use: Bearer <api_key>")
	}
	rawKey := parts[1]
	if rawKey == "" {
		return reject("API key is empty")
	}

	apiKey, err := queries.GetAPIKeyByHash(r.Context(), model.HashAPIKey(rawKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return reject("Invalid API key")
		}
		slog.Error("failed to validate API key", "error", err)
		if required {
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to validate API key", nil)
			return nil, true
		}
		return nil, false
	}

	if !apiKey.IsActive {
		return reject("API key is inactive")
	}
	if apiKey.ExpiresAt.Valid && time.Now().After(apiKey.ExpiresAt.Time) {
		return reject("API key has expired")
	}

	return &apiKey, false
}

// touchAPIKey records the key's last use off the request path.
func touchAPIKey(queries *store.Queries, keyID int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queries.UpdateAPIKeyLastUsed(ctx, store.UpdateAPIKeyLastUsedParams{
			LastUsedAt: sql.NullTime{Time: time.Now(), Valid: true},
			ID:         keyID,
		})
	}()
}

func serveWithAPIKey(next http.Handler, w http.ResponseWriter, r *http.Request, apiKey model.APIKey) {
	ctx := context.WithValue(r.Context(), ContextKeyAPIKey, apiKey)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// limiterCache is a generic rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// get returns the rate limiter for a key, creating one if needed.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()
	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// APIRateLimit returns middleware that rate limits requests per API key.
// Requests without a key pass through to the global limiter.
func APIRateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	cache := newLimiterCache[int64](rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := GetAPIKey(r)
			if apiKey == nil {
				next.ServeHTTP(w, r)
				return
			}
			if !cache.get(apiKey.ID).Allow() {
				WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded",
					"Rate limit exceeded. Please slow down.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GlobalRateLimiter rate limits all requests per client IP.
type GlobalRateLimiter struct {
	cache *limiterCache[string]
}

// NewGlobalRateLimiter creates a new global rate limiter.
func NewGlobalRateLimiter(rps float64, burst int) *GlobalRateLimiter {
	return &GlobalRateLimiter{cache: newLimiterCache[string](rps, burst)}
}

// Middleware returns the per-IP rate limiting middleware.
func (rl *GlobalRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !rl.cache.get(ip).Allow() {
				slog.Warn("global rate limit exceeded", "ip", ip, "path", r.URL.Path)
				WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded",
					"Rate limit exceeded. Please slow down.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client address, honoring reverse proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ips := r.Header.Get("X-Forwarded-For"); ips != "" {
		// The first entry is the originating client.
		if i := strings.IndexByte(ips, ','); i >= 0 {
			return strings.TrimSpace(ips[:i])
		}
		return ips
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
