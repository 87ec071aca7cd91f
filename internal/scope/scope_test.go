package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesLiteralBoundaries(t *testing.T) {
	r := NewResolver(0)

	tests := []struct {
		pattern   string
		candidate string
		expected  bool
	}{
		{"google.com", "google.com", true},
		{"google.com", "google.com/maps", true},
		{"google.com", "google.com?q=x", true},
		{"google.com", "google.com#x", true},
		{"google.com", "google.com.evil.com", false},
		{"google.com/ma", "google.com/maps", false},
		{"example.com/admin", "example.com/admin/page", true},
		{"example.com/admin", "example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" vs "+tt.candidate, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Matches(tt.pattern, tt.candidate))
		})
	}
}

func TestMatchesWildcard(t *testing.T) {
	r := NewResolver(4)

	tests := []struct {
		pattern   string
		candidate string
		expected  bool
	}{
		{"google.com/ma*", "google.com/maps", true},
		{"google.com/ma*", "google.com/mail", true},
		{"google.com/ma*", "google.com/ma", true},
		{"google.com/ma*", "google.com/maps/place", true},
		{"google.com/ma*", "google.com/docs", false},
		{"*.google.com", "mail.google.com/inbox", true},
		{"*.google.com", "google.com", false},
		{"*.google.com", "evil.com/x.google.com", false},
		{"a+b.com/*", "a+b.com/x", true},
		{"a+b.com/*", "aab.com/x", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" vs "+tt.candidate, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Matches(tt.pattern, tt.candidate))
			// cached path must agree
			assert.Equal(t, tt.expected, r.Matches(tt.pattern, tt.candidate))
		})
	}
}

func TestWildcardExpression(t *testing.T) {
	assert.Equal(t, `^google\.com/ma[^/?#]*(?:[/?#]|$)`, WildcardExpression("google.com/ma*"))
}

func TestMostSpecific(t *testing.T) {
	r := NewResolver(0)

	assert.Nil(t, r.MostSpecific(nil, "example.com/"))
	assert.Nil(t, r.MostSpecific([]string{"other.com"}, "example.com/"))

	got := r.MostSpecific([]string{"example.com", "example.com/admin*", "example.com/user"}, "example.com/admin/dashboard")
	require.NotNil(t, got)
	assert.Equal(t, "example.com/admin*", *got)

	// equal lengths: the later entry wins
	got = r.MostSpecific([]string{"example.com/a*", "example.com/ab"}, "example.com/ab")
	require.NotNil(t, got)
	assert.Equal(t, "example.com/ab", *got)
}

func TestResolve(t *testing.T) {
	r := NewResolver(0)

	tests := []struct {
		name         string
		allow        []string
		block        []string
		defaultAllow bool
		candidate    string
		shouldParse  bool
		reason       Reason
		allowMatch   string
		blockMatch   string
	}{
		{
			name: "default allow without block match", defaultAllow: true,
			allow: nil, block: []string{"other.com"}, candidate: "example.com/",
			shouldParse: true, reason: ReasonEnabled,
		},
		{
			name: "default allow blocked", defaultAllow: true,
			block: []string{"example.com"}, candidate: "example.com/",
			shouldParse: false, reason: ReasonBlockedByBlocklist, blockMatch: "example.com",
		},
		{
			name: "longer block pattern wins", defaultAllow: true,
			allow: []string{"example.com"}, block: []string{"example.com/admin"},
			candidate:   "example.com/admin/page",
			shouldParse: false, reason: ReasonBlockedByBlocklist,
			allowMatch: "example.com", blockMatch: "example.com/admin",
		},
		{
			name: "longer allow pattern wins", defaultAllow: true,
			allow: []string{"example.com/admin"}, block: []string{"example.com"},
			candidate:   "example.com/admin/page",
			shouldParse: true, reason: ReasonAllowedByAllowlist,
			allowMatch: "example.com/admin", blockMatch: "example.com",
		},
		{
			name: "ties favour allow", defaultAllow: false,
			allow: []string{"example.com"}, block: []string{"example.com"},
			candidate:   "example.com/x",
			shouldParse: true, reason: ReasonAllowedByAllowlist,
			allowMatch: "example.com", blockMatch: "example.com",
		},
		{
			name: "default deny without allow match", defaultAllow: false,
			block: []string{"example.com"}, candidate: "example.com/",
			shouldParse: false, reason: ReasonBlockedByDefault, blockMatch: "example.com",
		},
		{
			name: "default deny allowed", defaultAllow: false,
			allow: []string{"example.com"}, candidate: "example.com/",
			shouldParse: true, reason: ReasonAllowedByAllowlist, allowMatch: "example.com",
		},
		{
			name: "wildcard outranks shorter literal", defaultAllow: false,
			allow: []string{"example.com/ad*"}, block: []string{"example.com"},
			candidate:   "example.com/admin",
			shouldParse: true, reason: ReasonAllowedByAllowlist,
			allowMatch: "example.com/ad*", blockMatch: "example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Resolve(tt.allow, tt.block, tt.defaultAllow, tt.candidate)
			assert.Equal(t, tt.shouldParse, d.ShouldParse)
			assert.Equal(t, tt.reason, d.Reason)
			assertMatch(t, tt.allowMatch, d.AllowMatch)
			assertMatch(t, tt.blockMatch, d.BlockMatch)
		})
	}
}

func assertMatch(t *testing.T, expected string, got *string) {
	t.Helper()
	if expected == "" {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.Equal(t, expected, *got)
}

func TestCandidate(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
		wantErr  bool
	}{
		{"https://www.example.com/admin/page?x=1#top", "example.com/admin/page", false},
		{"http://Example.COM", "example.com/", false},
		{"example.com/path", "example.com/path", false},
		{"www.wwwsite.org/", "wwwsite.org/", false},
		{"https://example.com:8443/a", "example.com/a", false},
		{"", "", true},
		{"https://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Candidate(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
