// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the content core: page hierarchy and slug
// derivation, page/link navigation sync, posts and supporting services.
package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when an entity does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports one or more invalid input fields. It is returned
// to the caller for correction and never coerced silently.
type ValidationError struct {
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError creates a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ReferentialError reports a delete blocked by a protective reference, such
// as removing a page that still has children or an author with posts.
type ReferentialError struct {
	Message string
}

// Error implements the error interface.
func (e *ReferentialError) Error() string {
	return e.Message
}

// IsReferential reports whether err is (or wraps) a ReferentialError.
func IsReferential(err error) bool {
	var re *ReferentialError
	return errors.As(err, &re)
}

// isUniqueViolation detects SQLite unique-constraint failures so slug
// derivation can be retried when a concurrent writer wins the race.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// uniqueRetryAttempts bounds retry-on-conflict loops around saves. The
// constraint backstops the in-transaction existence checks, so more than a
// couple of retries means something is structurally wrong.
const uniqueRetryAttempts = 3
