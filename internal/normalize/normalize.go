// Package normalize canonicalizes user-supplied form values before validation.
// It normalizes only and does not validate format.
package normalize

import "strings"

// Email trims surrounding whitespace and lower-cases ASCII letters only.
// Other runes are left alone so that, for example, a Kelvin sign never folds
// into a plain "k" and slips past the ASCII address pattern.
func Email(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, strings.TrimSpace(s))
}

// Name trims surrounding whitespace. Case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Revision canonicalizes a rule set revision name.
func Revision(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
