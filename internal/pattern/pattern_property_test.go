//go:build property
// +build property

package pattern

import (
	"strings"
	"testing"
	"unicode"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestMatcherProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// Property: a name glued to letters on either side never matches
	properties.Property("boundary safety", prop.ForAll(
		func(name, before, after string) bool {
			m := MustCompile(NamePair{Dead: name, Chosen: "X"})
			return len(m.FindAll(before+name)) == 0 && len(m.FindAll(name+after)) == 0
		},
		gen.RegexMatch(`^[a-z]{2,8}$`),
		gen.RegexMatch(`^[a-z]{1,4}$`),
		gen.RegexMatch(`^[a-z]{1,4}$`),
	))

	// Property: a name surrounded by spaces always matches exactly once
	properties.Property("spaced names match", prop.ForAll(
		func(name string) bool {
			m := MustCompile(NamePair{Dead: name, Chosen: "X"})
			matches := m.FindAll("1 " + strings.ToUpper(name) + " 2")
			return len(matches) == 1 && matches[0].Index == 2
		},
		gen.RegexMatch(`^[a-z]{2,8}$`),
	))

	// Property: every match text equals the dead name ignoring case
	properties.Property("match text folds to dead name", prop.ForAll(
		func(name string, repeat int) bool {
			m := MustCompile(NamePair{Dead: name, Chosen: "X"})
			text := strings.TrimSpace(strings.Repeat(name+" ", repeat))
			matches := m.FindAll(text)
			if len(matches) != repeat {
				return false
			}
			for _, match := range matches {
				if !strings.EqualFold(match.Text, name) {
					return false
				}
			}
			return true
		},
		gen.RegexMatch(`^[a-zA-Z]{2,8}$`),
		gen.IntRange(1, 5),
	))

	// Property: case matching follows the matched text's shape
	properties.Property("case matching", prop.ForAll(
		func(matched, replacement string) bool {
			out := CaseMatch(matched, replacement)
			switch {
			case matched == strings.ToUpper(matched):
				return out == strings.ToUpper(replacement)
			case matched == strings.ToLower(matched):
				return out == strings.ToLower(replacement)
			default:
				return unicode.IsUpper(rune(out[0])) && out[1:] == replacement[1:]
			}
		},
		gen.RegexMatch(`^[a-zA-Z]{1,8}$`),
		gen.RegexMatch(`^[a-z][a-zA-Z]{0,7}$`),
	))

	properties.TestingRun(t)
}
