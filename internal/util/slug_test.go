package util

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple title",
			input:    "Hello World",
			expected: "hello-world",
		},
		{
			name:     "with special characters",
			input:    "Hello, World!",
			expected: "hello-world",
		},
		{
			name:     "trailing punctuation",
			input:    "Test Page!@#",
			expected: "test-page",
		},
		{
			name:     "with numbers",
			input:    "Page 123",
			expected: "page-123",
		},
		{
			name:     "with accents",
			input:    "Café résumé",
			expected: "cafe-resume",
		},
		{
			name:     "with multiple spaces",
			input:    "Hello   World",
			expected: "hello-world",
		},
		{
			name:     "with hyphens",
			input:    "Hello - World",
			expected: "hello-world",
		},
		{
			name:     "with leading/trailing spaces",
			input:    "  Hello World  ",
			expected: "hello-world",
		},
		{
			name:     "german umlauts",
			input:    "Über München",
			expected: "uber-munchen",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "mixed case",
			input:    "HeLLo WoRLd",
			expected: "hello-world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Slugify(tt.input)
			if result != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSlugifyTransliteratesNonLatin(t *testing.T) {
	for _, input := range []string{"日本語タイトル", "Привет мир", "Ελληνικά"} {
		slug := Slugify(input)
		if slug == "" {
			t.Errorf("Slugify(%q) produced empty slug", input)
			continue
		}
		if !IsValidSlug(slug) {
			t.Errorf("Slugify(%q) = %q, not a valid slug", input, slug)
		}
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{
		"Hello World",
		"Café résumé",
		"Über München!",
		"  Page -- 42  ",
		"Привет мир",
	}
	for _, input := range inputs {
		once := Slugify(input)
		twice := Slugify(once)
		if once != twice {
			t.Errorf("Slugify not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestUniqueSlug(t *testing.T) {
	ctx := context.Background()

	t.Run("candidate free", func(t *testing.T) {
		slug, err := UniqueSlug(ctx, "about", func(context.Context, string) (bool, error) {
			return false, nil
		})
		if err != nil {
			t.Fatalf("UniqueSlug: %v", err)
		}
		if slug != "about" {
			t.Errorf("got %q, want %q", slug, "about")
		}
	})

	t.Run("candidate taken", func(t *testing.T) {
		taken := map[string]bool{"about": true}
		slug, err := UniqueSlug(ctx, "about", func(_ context.Context, s string) (bool, error) {
			return taken[s], nil
		})
		if err != nil {
			t.Fatalf("UniqueSlug: %v", err)
		}
		if !strings.HasPrefix(slug, "about-") {
			t.Errorf("got %q, want prefix %q", slug, "about-")
		}
		// base + "-" + 8 hex chars
		if len(slug) != len("about")+1+8 {
			t.Errorf("got %q, want 8-char hex suffix", slug)
		}
	})

	t.Run("distinct suffixes", func(t *testing.T) {
		taken := map[string]bool{"post": true}
		exists := func(_ context.Context, s string) (bool, error) { return taken[s], nil }

		first, err := UniqueSlug(ctx, "post", exists)
		if err != nil {
			t.Fatalf("UniqueSlug: %v", err)
		}
		taken[first] = true
		second, err := UniqueSlug(ctx, "post", exists)
		if err != nil {
			t.Fatalf("UniqueSlug: %v", err)
		}
		if first == second {
			t.Errorf("two derivations produced the same slug %q", first)
		}
	})

	t.Run("exhaustion", func(t *testing.T) {
		_, err := UniqueSlug(ctx, "full", func(context.Context, string) (bool, error) {
			return true, nil
		})
		if !errors.Is(err, ErrSlugExhausted) {
			t.Errorf("got %v, want ErrSlugExhausted", err)
		}
	})

	t.Run("exists error propagates", func(t *testing.T) {
		boom := errors.New("db down")
		_, err := UniqueSlug(ctx, "x", func(context.Context, string) (bool, error) {
			return false, boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("got %v, want wrapped %v", err, boom)
		}
	})
}

func TestIsValidPathSlug(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"hello", true},
		{"parent-page/child-page", true},
		{"a/b/c", true},
		{"", false},
		{"/leading", false},
		{"trailing/", false},
		{"double//slash", false},
		{"Upper/case", false},
	}

	for _, tt := range tests {
		if got := IsValidPathSlug(tt.input); got != tt.expected {
			t.Errorf("IsValidPathSlug(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
