// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render converts stored markdown content into sanitized HTML for
// API responses.
package render

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// htmlSanitizer strips script tags, event handlers and other dangerous
// markup while keeping the tags user-generated content legitimately uses.
var htmlSanitizer = bluemonday.UGCPolicy()

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Markdown converts markdown source to sanitized HTML.
func Markdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return htmlSanitizer.Sanitize(buf.String()), nil
}
