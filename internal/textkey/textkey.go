// Package textkey builds deterministic comparison keys from free-text,
// human-entered strings. Every function is pure, total and idempotent.
package textkey

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// homeNamePrefixes are leading property-type words stripped from home names
// before key construction ("Casa Olivo" and "Olivo" must collide).
var homeNamePrefixes = []string{"casa", "villa", "apartamento", "apartment", "apt.", "apt", "house"}

// stripDiacritics decomposes to NFD and drops combining marks.
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// collapseNonAlnum replaces every run of non-alphanumeric characters with a
// single space and trims the result.
func collapseNonAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if inRun && b.Len() > 0 {
				b.WriteByte(' ')
			}
			inRun = false
			b.WriteRune(r)
		} else {
			inRun = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Normalize strips diacritics, lowercases and collapses non-alphanumeric
// runs to single spaces. Empty or nil-ish input normalizes to "", which
// callers must treat as unresolvable, never as a wildcard.
func Normalize(s string) string {
	return collapseNonAlnum(strings.ToLower(stripDiacritics(s)))
}

// NormalizeLoose strips diacritics and lowercases but keeps punctuation.
// The room-type classifier matches substrings against this form so that
// patterns like "hab " keep their trailing space.
func NormalizeLoose(s string) string {
	return strings.TrimSpace(strings.ToLower(stripDiacritics(s)))
}

// NormalizeHomeName is Normalize plus stripping of one leading
// property-type word ("casa", "villa", ...).
func NormalizeHomeName(s string) string {
	lowered := strings.ToLower(stripDiacritics(s))
	trimmed := strings.TrimLeft(lowered, " \t")
	for _, prefix := range homeNamePrefixes {
		if strings.HasPrefix(trimmed, prefix+" ") {
			trimmed = trimmed[len(prefix)+1:]
			break
		}
	}
	return collapseNonAlnum(trimmed)
}

// Slug builds the deterministic object-storage path segment for a name.
func Slug(s string) string {
	key := Normalize(s)
	return strings.ReplaceAll(key, " ", "-")
}

// CollapseWhitespace reduces internal whitespace runs to one space and trims.
// Used to clean display values coming from external cells.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
