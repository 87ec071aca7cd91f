// Package pattern compiles dead-name/chosen-name pairs into boundary-safe,
// case-insensitive matchers.
package pattern

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/conneroisu/namesake/internal/errors"
)

// NamePair maps a dead name onto the chosen name that replaces it.
type NamePair struct {
	Dead   string `mapstructure:"dead" yaml:"dead" json:"dead"`
	Chosen string `mapstructure:"chosen" yaml:"chosen" json:"chosen"`
}

const (
	apostropheClass = `['’‘ʼ]`
	hyphenClass     = `[-‐‑–]`
)

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’' || r == '‘' || r == 'ʼ'
}

func isHyphen(r rune) bool {
	return r == '-' || r == '‐' || r == '‑' || r == '–'
}

// Match is one boundary-safe occurrence of a dead name. Index is a byte offset.
type Match struct {
	Index int
	Text  string
}

// End returns the byte offset just past the match.
func (m Match) End() int {
	return m.Index + len(m.Text)
}

// Matcher finds occurrences of a single dead name. It holds no scan state and
// may be shared between goroutines.
type Matcher struct {
	pair NamePair
	re   *regexp.Regexp
}

// Expression builds the regular expression source for a dead name.
func Expression(dead string) string {
	var b strings.Builder
	b.WriteString("(?i)")
	for _, r := range dead {
		switch {
		case isApostrophe(r):
			b.WriteString(apostropheClass)
		case isHyphen(r):
			b.WriteString(hyphenClass)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// Compile builds a Matcher for pair. The dead name is trimmed and must not be
// empty.
func Compile(pair NamePair) (*Matcher, error) {
	pair.Dead = strings.TrimSpace(pair.Dead)
	pair.Chosen = strings.TrimSpace(pair.Chosen)
	if pair.Dead == "" {
		return nil, errors.NewValidationError(errors.ErrCodeValidationFailed, "dead name cannot be empty")
	}

	re, err := regexp.Compile(Expression(pair.Dead))
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInternalError, "compiling pattern for "+pair.Dead, err)
	}

	return &Matcher{pair: pair, re: re}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pair NamePair) *Matcher {
	m, err := Compile(pair)
	if err != nil {
		panic(err)
	}
	return m
}

// Pair returns the trimmed pair the matcher was built from.
func (m *Matcher) Pair() NamePair {
	return m.pair
}

// String returns the expression source.
func (m *Matcher) String() string {
	return m.re.String()
}

// FindAll returns every boundary-safe match in text, in order.
//
// A candidate is rejected when a letter touches it on either side. The next
// search then starts one rune after the rejected candidate's start, so a
// shorter valid match overlapping the rejected one is still found.
func (m *Matcher) FindAll(text string) []Match {
	var matches []Match
	pos := 0
	for pos <= len(text) {
		loc := m.re.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]

		if end > start && boundaryOK(text, start, end) {
			matches = append(matches, Match{Index: start, Text: text[start:end]})
			pos = end
			continue
		}

		if start >= len(text) {
			break
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + size
	}
	return matches
}

// Contains reports whether text holds at least one boundary-safe match.
func (m *Matcher) Contains(text string) bool {
	return len(m.FindAll(text)) > 0
}

// ReplaceAll substitutes every boundary-safe match with the case-matched
// replacement and returns the new text and the number of substitutions.
func (m *Matcher) ReplaceAll(text, replacement string) (string, int) {
	matches := m.FindAll(text)
	if len(matches) == 0 {
		return text, 0
	}

	var b strings.Builder
	last := 0
	for _, match := range matches {
		b.WriteString(text[last:match.Index])
		b.WriteString(CaseMatch(match.Text, replacement))
		last = match.End()
	}
	b.WriteString(text[last:])
	return b.String(), len(matches)
}

func boundaryOK(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
