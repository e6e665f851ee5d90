// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose utility functions including
// URL slug generation and validation with Unicode normalization support.
package util

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// slugRegex matches non-alphanumeric characters (except hyphens)
	slugRegex = regexp.MustCompile(`[^a-z0-9-]+`)
	// multipleHyphens matches multiple consecutive hyphens
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// ErrSlugExhausted is returned when UniqueSlug cannot find a free slug
// within its retry budget. With an 8-hex-char random suffix this is all
// but impossible in practice, so callers should treat it as fatal.
var ErrSlugExhausted = errors.New("slug namespace exhausted")

// UniqueSlugMaxAttempts bounds the number of random suffixes tried before
// UniqueSlug gives up with ErrSlugExhausted.
const UniqueSlugMaxAttempts = 10

// Slugify converts a string to a URL-friendly slug.
// It transliterates Unicode to the closest ASCII, converts to lowercase,
// replaces runs of non-alphanumeric characters with a single hyphen,
// and trims leading/trailing hyphens.
func Slugify(s string) string {
	// Normalize unicode characters (decompose accents)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)

	// Transliterate anything still outside ASCII (CJK, Cyrillic, ...)
	result = unidecode.Unidecode(result)

	// Convert to lowercase
	result = strings.ToLower(result)

	// Replace spaces with hyphens
	result = strings.ReplaceAll(result, " ", "-")

	// Replace all non-alphanumeric characters except hyphens
	result = slugRegex.ReplaceAllString(result, "-")

	// Replace multiple hyphens with single hyphen
	result = multipleHyphens.ReplaceAllString(result, "-")

	// Trim hyphens from start and end
	result = strings.Trim(result, "-")

	return result
}

// UniqueSlug returns candidate when exists reports it free, otherwise it
// appends an 8-character random hexadecimal suffix and retries. The search
// is bounded by UniqueSlugMaxAttempts; the caller is expected to run the
// exists check and the subsequent write inside one transaction so that two
// concurrent derivations cannot both win.
func UniqueSlug(ctx context.Context, candidate string, exists func(context.Context, string) (bool, error)) (string, error) {
	taken, err := exists(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("checking slug %q: %w", candidate, err)
	}
	if !taken {
		return candidate, nil
	}

	for i := 0; i < UniqueSlugMaxAttempts; i++ {
		suffix, err := randomHex(4)
		if err != nil {
			return "", fmt.Errorf("generating slug suffix: %w", err)
		}
		next := candidate + "-" + suffix
		taken, err := exists(ctx, next)
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", next, err)
		}
		if !taken {
			return next, nil
		}
	}

	return "", fmt.Errorf("deriving slug for %q: %w", candidate, ErrSlugExhausted)
}

// randomHex returns n random bytes hex-encoded (2n characters).
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// IsValidSlug checks if a string is a valid single-segment slug.
func IsValidSlug(s string) bool {
	if s == "" {
		return false
	}

	// Check if it only contains lowercase letters, numbers, and hyphens
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}

	// Check that it doesn't start or end with a hyphen
	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}

	// Check for consecutive hyphens
	if strings.Contains(s, "--") {
		return false
	}

	return true
}

// IsValidPathSlug checks a path-qualified page slug: one or more valid
// slug segments joined by "/".
func IsValidPathSlug(s string) bool {
	if s == "" {
		return false
	}
	for _, seg := range strings.Split(s, "/") {
		if !IsValidSlug(seg) {
			return false
		}
	}
	return true
}
