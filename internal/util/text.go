package util

import (
	"strings"
	"unicode"
)

// NormalizeSurface collapses case and whitespace so that surface forms
// differing only in those dimensions compare equal.
func NormalizeSurface(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Slug converts a label into an identifier-safe form: lowercase words
// joined by underscores, with everything outside [a-z0-9_] dropped.
// "Support Vector Machine" becomes "support_vector_machine".
func Slug(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	lastUnderscore := true
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
