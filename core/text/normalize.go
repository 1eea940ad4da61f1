package text

import (
	"html"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// punctuation maps typographic runes to their ASCII equivalents.
var punctuation = runes.Map(func(r rune) rune {
	switch r {
	case '\u00a0':
		return ' '
	case '\u2018', '\u2019':
		return '\''
	case '\u201c', '\u201d':
		return '"'
	case '\u2013', '\u2014':
		return '-'
	}
	return r
})

var ellipsis = strings.NewReplacer("\u2026", "...")

// Normalize canonicalizes raw text for matching and storage.
// HTML entities are unescaped, non-breaking spaces and smart punctuation
// become ASCII and whitespace runs collapse to single spaces.
// Empty input returns empty output.
func Normalize(s string) string {
	if len(s) == 0 {
		return ""
	}

	s = html.UnescapeString(s)
	mapped, _, err := transform.String(punctuation, s)
	if err == nil {
		s = mapped
	}
	s = ellipsis.Replace(s)

	return strings.Join(strings.Fields(s), " ")
}

// Fold returns the normalized, lowercased form of s used as a dedup key.
func Fold(s string) string {
	return strings.ToLower(Normalize(s))
}

// Truncate cuts s to at most max characters without splitting a rune.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}

	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
