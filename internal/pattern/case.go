package pattern

import (
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CaseMatch shapes replacement after the casing of matched: all upper gives
// an upper-cased replacement, all lower a lower-cased one, anything else
// capitalises the first rune and leaves the rest as configured.
//
// Text without cased letters counts as upper.
func CaseMatch(matched, replacement string) string {
	upper := cases.Upper(language.Und)
	lower := cases.Lower(language.Und)

	switch {
	case upper.String(matched) == matched:
		return upper.String(replacement)
	case lower.String(matched) == matched:
		return lower.String(replacement)
	}

	if replacement == "" {
		return replacement
	}
	_, size := utf8.DecodeRuneInString(replacement)
	return upper.String(replacement[:size]) + replacement[size:]
}
