// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings
// and collision-free slug assignment against an existing set.
package slug

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// BaseLength is the maximum length of a slug derived from a title.
	BaseLength = 50

	// MaxLength is the maximum length of a slug after a numeric suffix.
	MaxLength = 60

	// fallback is used when a title contains nothing slug-worthy.
	fallback = "post"

	// maxAttempts bounds the suffix search.
	maxAttempts = 10_000
)

var (
	// invalidChars matches anything that isn't a word character, whitespace, or hyphen.
	invalidChars = regexp.MustCompile(`[^\w\s-]`)
	// separators collapses runs of hyphens and whitespace into one hyphen.
	separators = regexp.MustCompile(`[-\s]+`)
	// validSlug matches a caller-supplied slug.
	validSlug = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// ErrExhausted is returned by Unique when no free suffix was found.
var ErrExhausted = errors.New("slug: no free suffix available")

// ExistsFunc reports whether a slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Generate creates a URL-friendly slug from the given string. Accented
// letters are folded to ASCII; everything else outside [a-z0-9_-] is dropped.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	decomposed := norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}

	result := strings.ToLower(b.String())
	result = invalidChars.ReplaceAllString(result, "")
	result = separators.ReplaceAllString(strings.TrimSpace(result), "-")
	return strings.Trim(result, "-_")
}

// FromTitle derives the base slug for a post title: Generate truncated to
// BaseLength characters. Titles with no usable characters yield "post".
func FromTitle(title string) string {
	base := Generate(title)
	if len(base) > BaseLength {
		base = strings.TrimRight(base[:BaseLength], "-")
	}
	if base == "" {
		return fallback
	}
	return base
}

// Unique returns base if it is free, otherwise the first free candidate of
// base-1, base-2, ... A candidate longer than MaxLength is shortened by
// cutting the base, never the suffix, so distinct suffixes stay distinct
// after truncation. Every candidate is checked before it is returned.
//
// The check and the later insert are not atomic; callers must still handle
// a unique violation from the store.
func Unique(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	candidate := base
	for i := 1; i <= maxAttempts; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slug exists check: %w", err)
		}
		if !taken {
			return candidate, nil
		}

		candidate = withSuffix(base, i)
	}
	return "", ErrExhausted
}

// withSuffix appends -n to base, cutting base so the result fits MaxLength.
func withSuffix(base string, n int) string {
	suffix := fmt.Sprintf("-%d", n)
	if len(base)+len(suffix) > MaxLength {
		base = strings.TrimRight(base[:MaxLength-len(suffix)], "-")
	}
	return base + suffix
}

// Valid reports whether s is an acceptable caller-supplied slug
// (letters, digits, underscores, hyphens).
func Valid(s string) bool {
	return len(s) <= BaseLength && validSlug.MatchString(s)
}
