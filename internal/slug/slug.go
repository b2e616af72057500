// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns theme names and other labels into URL and file-name
// safe strings.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength caps generated slugs.
const MaxLength = 80

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, space or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// separators collapses whitespace and hyphen runs into one hyphen.
	separators = regexp.MustCompile(`[\s-]+`)
)

// Generate creates a URL-friendly slug. Accents are folded to their base
// letter; other non-ASCII characters are dropped.
// Example: "Café Theme, 2026!" → "cafe-theme-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(fold(s)))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = separators.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	if len(result) > MaxLength {
		result = strings.TrimRight(result[:MaxLength], "-")
	}
	return result
}

// Filename returns slug(name)+ext, or fallback+ext when the name has no
// usable characters.
func Filename(name, fallback, ext string) string {
	s := Generate(name)
	if s == "" {
		s = fallback
	}
	return s + ext
}

// fold strips combining marks after canonical decomposition.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
