package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/namesake/internal/errors"
)

func TestCompile(t *testing.T) {
	t.Run("trims both names", func(t *testing.T) {
		m, err := Compile(NamePair{Dead: "  Ann ", Chosen: " Emma"})
		require.NoError(t, err)
		assert.Equal(t, NamePair{Dead: "Ann", Chosen: "Emma"}, m.Pair())
	})

	t.Run("empty dead name", func(t *testing.T) {
		_, err := Compile(NamePair{Dead: "   ", Chosen: "Emma"})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})

	t.Run("special characters are literal", func(t *testing.T) {
		m := MustCompile(NamePair{Dead: "J.R.", Chosen: "Jo"})
		assert.Empty(t, m.FindAll("JXRX"))
		assert.Len(t, m.FindAll("J.R. wrote"), 1)
	})

	t.Run("must compile panics on empty", func(t *testing.T) {
		assert.Panics(t, func() { MustCompile(NamePair{}) })
	})
}

func TestFindAllBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		dead    string
		text    string
		indexes []int
	}{
		{"plain word", "Ann", "Hi Ann!", []int{3}},
		{"prefix of longer word", "ann", "annabelle", nil},
		{"suffix of longer word", "ann", "Joann", nil},
		{"case insensitive", "ann", "ANN and Ann", []int{0, 8}},
		{"possessive", "Ann", "Ann's book", []int{0}},
		{"unicode letter after", "Ann", "Annä", nil},
		{"unicode letter before", "Ann", "éAnn", nil},
		{"digits are boundaries", "Ann", "Ann2 3Ann", []int{0, 6}},
		{"rejected candidate then valid one", "ann", "xann ann", []int{5}},
		{"adjacent punctuation", "Ann", "(Ann)", []int{1}},
		{"empty text", "Ann", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MustCompile(NamePair{Dead: tt.dead, Chosen: "X"})
			var got []int
			for _, match := range m.FindAll(tt.text) {
				got = append(got, match.Index)
			}
			assert.Equal(t, tt.indexes, got)
		})
	}
}

func TestVariantNormalisation(t *testing.T) {
	apostrophe := MustCompile(NamePair{Dead: "O'Neil", Chosen: "Smith"})
	for _, text := range []string{"O'Neil", "O’Neil", "O‘Neil", "OʼNeil"} {
		assert.True(t, apostrophe.Contains(text), text)
	}

	hyphen := MustCompile(NamePair{Dead: "Mary-Jane", Chosen: "Max"})
	for _, text := range []string{"Mary-Jane", "Mary‐Jane", "Mary‑Jane", "Mary–Jane"} {
		assert.True(t, hyphen.Contains(text), text)
	}
	assert.False(t, hyphen.Contains("Mary Jane"))
}

func TestMatcherIsReusable(t *testing.T) {
	m := MustCompile(NamePair{Dead: "Ann", Chosen: "Emma"})
	first := m.FindAll("Ann and Ann")
	second := m.FindAll("Ann and Ann")
	assert.Equal(t, first, second)
	assert.Len(t, m.FindAll("Ann"), 1)
}

func TestReplaceAll(t *testing.T) {
	m := MustCompile(NamePair{Dead: "Ann", Chosen: "Emma"})

	out, n := m.ReplaceAll("Hi Ann! ANN, ann and Annabelle", "Emma")
	assert.Equal(t, "Hi Emma! EMMA, emma and Annabelle", out)
	assert.Equal(t, 3, n)

	out, n = m.ReplaceAll("nothing here", "Emma")
	assert.Equal(t, "nothing here", out)
	assert.Zero(t, n)
}

func TestCaseMatch(t *testing.T) {
	tests := []struct {
		matched     string
		replacement string
		expected    string
	}{
		{"JOHN", "jack", "JACK"},
		{"john", "jack", "jack"},
		{"John", "jack", "Jack"},
		{"JoHn", "jack", "Jack"},
		{"jOHN", "jack", "Jack"},
		{"John", "mcKay", "McKay"},
		{"John", "", ""},
		{"O'NEIL", "smith", "SMITH"},
		{"42", "Jack", "JACK"},
		{"Émile", "élodie", "Élodie"},
	}

	for _, tt := range tests {
		t.Run(tt.matched+"->"+tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, CaseMatch(tt.matched, tt.replacement))
		})
	}
}
