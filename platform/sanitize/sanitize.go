// Package sanitize provides text cleanup for user-provided and imported values.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text strips HTML and collapses runs of whitespace. Use for names, notes and places.
func Text(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(StripHTML(s), " "))
}

// TextPtr is a helper for optional string pointers
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}

// OptionalText cleans s like Text and returns nil when nothing is left.
func OptionalText(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	if result == "" {
		return nil
	}
	return &result
}

// Fold lowercases s, removes diacritics and collapses whitespace so that
// "Tipificación " and "TIPIFICACION" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = whitespaceRegex.ReplaceAllString(strings.TrimSpace(folded), " ")
	return strings.ToLower(folded)
}
