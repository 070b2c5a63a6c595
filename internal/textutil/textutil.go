// Package textutil holds small text helpers shared by the generator and the
// coordinator: markup stripping, authoritative text length, and path-safe
// name handling for output files.
package textutil

import (
	"html"
	"regexp"
	"strings"

	slug "github.com/goliatone/go-slug"
	"golang.org/x/text/unicode/norm"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`[ \t\r\n]+`)
	forbiddenPattern  = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
)

// StripMarkup removes markup tags and decodes entities, collapsing runs of
// whitespace into single spaces. Line breaks become spaces; the result is
// suitable for plain-text metadata fields.
func StripMarkup(markup string) string {
	text := tagPattern.ReplaceAllString(markup, " ")
	text = html.UnescapeString(text)
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// TextLength counts the user-perceived characters of rendered markup. The
// text is NFC-normalized first so decomposed sequences count once, then
// measured in runes. Markup tags never contribute to the count.
func TextLength(markup string) int {
	plain := StripMarkup(markup)
	return len([]rune(norm.NFC.String(plain)))
}

// SafeSegment turns an arbitrary string into a single path segment that is
// safe on common filesystems. Forbidden characters are replaced with an
// underscore and leading/trailing dots and spaces are trimmed. An empty
// result falls back to "untitled".
func SafeSegment(value string) string {
	cleaned := forbiddenPattern.ReplaceAllString(value, "_")
	cleaned = strings.Trim(cleaned, " .")
	if cleaned == "" {
		return "untitled"
	}
	return cleaned
}

// Slug produces an ASCII slug for a value using the shared slug rules. It is
// used for the {title_slug} and {series_slug} output-name template variables.
// Values that cannot be normalized fall back to SafeSegment.
func Slug(value string) string {
	normalized, err := slug.Normalize(value)
	if err != nil || strings.TrimSpace(normalized) == "" {
		return SafeSegment(value)
	}
	return normalized
}
