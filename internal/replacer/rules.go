package replacer

import (
	"fmt"

	"github.com/conneroisu/namesake/internal/errors"
	"github.com/conneroisu/namesake/internal/pattern"
)

// Rule pairs a compiled dead-name matcher with its replacement.
type Rule struct {
	Matcher     *pattern.Matcher
	Replacement string
}

// RuleSet is the compiled form of a name configuration.
type RuleSet []Rule

// NewRuleSet compiles one rule per pair. Every pair is compiled; the errors
// of the pairs that fail are collected.
func NewRuleSet(pairs ...pattern.NamePair) (RuleSet, error) {
	rules := make(RuleSet, 0, len(pairs))
	vec := &errors.ValidationErrorCollection{}
	for i, pair := range pairs {
		m, err := pattern.Compile(pair)
		if err != nil {
			vec.AddField(fieldName(i), pair.Dead, err.Error())
			continue
		}
		rules = append(rules, Rule{Matcher: m, Replacement: m.Pair().Chosen})
	}
	if vec.HasErrors() {
		return rules, vec.ToNamesakeError()
	}
	return rules, nil
}

func fieldName(i int) string {
	return fmt.Sprintf("names[%d].dead", i)
}

// Apply rewrites s with every rule, case-matched, and reports how many rules
// changed it.
func (rs RuleSet) Apply(s string) (string, int) {
	changed := 0
	for _, r := range rs {
		out, n := r.Matcher.ReplaceAll(s, r.Replacement)
		if n > 0 {
			s = out
			changed++
		}
	}
	return s, changed
}

// Matches reports whether any rule matches s.
func (rs RuleSet) Matches(s string) bool {
	for _, r := range rs {
		if r.Matcher.Contains(s) {
			return true
		}
	}
	return false
}
