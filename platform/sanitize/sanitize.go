// Package sanitize provides input cleaning for free-text coming from
// chat visitors before it reaches the knowledge store.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxQueryLength is the cap applied to search queries after cleaning.
const MaxQueryLength = 500

// MinQueryLength is the shortest cleaned query worth searching for.
const MinQueryLength = 2

var (
	// denylistRegex matches characters stripped from search input.
	denylistRegex = regexp.MustCompile(`[<>"';\\]`)
	// whitespaceRegex collapses runs of whitespace to a single space.
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// CleanSearchQuery strips the character denylist, collapses whitespace,
// trims, and truncates to MaxQueryLength runes. The second return is
// false when the cleaned query is shorter than MinQueryLength and must
// not be searched.
func CleanSearchQuery(raw string) (string, bool) {
	cleaned := denylistRegex.ReplaceAllString(raw, "")
	cleaned = whitespaceRegex.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if utf8.RuneCountInString(cleaned) > MaxQueryLength {
		runes := []rune(cleaned)
		cleaned = strings.TrimSpace(string(runes[:MaxQueryLength]))
	}

	if utf8.RuneCountInString(cleaned) < MinQueryLength {
		return "", false
	}

	return cleaned, true
}

// ContainsArabic reports whether the text is predominantly Arabic:
// any character of the Arabic block in the first 100 runes, or more
// than 30% non-ASCII overall. Used to pick the reply language for
// visitor-facing messages.
func ContainsArabic(text string) bool {
	runes := []rune(text)

	window := runes
	if len(window) > 100 {
		window = window[:100]
	}
	for _, r := range window {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}

	if len(runes) == 0 {
		return false
	}

	nonASCII := 0
	for _, r := range runes {
		if r > 127 {
			nonASCII++
		}
	}
	return float64(nonASCII)/float64(len(runes)) > 0.3
}
