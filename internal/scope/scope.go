// Package scope decides whether a site should be rewritten, based on allow
// and block lists of literal or wildcard patterns.
package scope

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/conneroisu/namesake/internal/errors"
)

// Reason explains a Decision.
type Reason string

const (
	ReasonEnabled            Reason = "enabled"
	ReasonBlockedByBlocklist Reason = "blocked_by_blocklist"
	ReasonAllowedByAllowlist Reason = "allowed_by_allowlist"
	ReasonBlockedByDefault   Reason = "blocked_by_default"
	ReasonExtensionDisabled  Reason = "extension_disabled"
	ReasonNoContentRoot      Reason = "no_content_root"
)

// Decision is the outcome of Resolve. AllowMatch and BlockMatch are nil when
// the list had no matching entry.
type Decision struct {
	ShouldParse bool
	AllowMatch  *string
	BlockMatch  *string
	Reason      Reason
}

// Wildcard is the marker that turns an entry into a wildcard pattern.
const Wildcard = "*"

// DefaultCacheSize bounds the compiled wildcard cache.
const DefaultCacheSize = 256

// Resolver evaluates site lists. Compiled wildcard expressions are cached, so
// a Resolver should be reused across calls; it is safe for concurrent use.
type Resolver struct {
	cache *lru.Cache[string, *regexp.Regexp]
}

// NewResolver creates a Resolver whose wildcard cache holds size entries.
func NewResolver(size int) *Resolver {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		// only reachable with a non-positive size
		panic(err)
	}
	return &Resolver{cache: cache}
}

// Matches reports whether pattern matches the candidate on a segment
// boundary.
func (r *Resolver) Matches(pattern, candidate string) bool {
	if strings.Contains(pattern, Wildcard) {
		re := r.compile(pattern)
		return re != nil && re.MatchString(candidate)
	}
	return matchesLiteral(pattern, candidate)
}

func matchesLiteral(pattern, candidate string) bool {
	if pattern == candidate {
		return true
	}
	if !strings.HasPrefix(candidate, pattern) {
		return false
	}
	if len(candidate) == len(pattern) {
		return true
	}
	switch candidate[len(pattern)] {
	case '/', '?', '#':
		return true
	}
	return false
}

func (r *Resolver) compile(pattern string) *regexp.Regexp {
	if re, ok := r.cache.Get(pattern); ok {
		return re
	}
	re, err := regexp.Compile(WildcardExpression(pattern))
	if err != nil {
		re = nil
	}
	r.cache.Add(pattern, re)
	return re
}

// WildcardExpression converts a wildcard entry into an anchored expression.
// Each * matches a run of characters other than /, ? and #.
func WildcardExpression(pattern string) string {
	parts := strings.Split(pattern, Wildcard)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return "^" + strings.Join(parts, `[^/?#]*`) + `(?:[/?#]|$)`
}

// MostSpecific returns the longest entry of list that matches candidate.
// Length counts characters; on a tie the entry found last wins.
func (r *Resolver) MostSpecific(list []string, candidate string) *string {
	var best *string
	bestLen := -1
	for i := range list {
		if !r.Matches(list[i], candidate) {
			continue
		}
		if n := utf8.RuneCountInString(list[i]); n >= bestLen {
			entry := list[i]
			best, bestLen = &entry, n
		}
	}
	return best
}

// Resolve decides whether the candidate site should be rewritten.
func (r *Resolver) Resolve(allow, block []string, defaultAllow bool, candidate string) Decision {
	d := Decision{
		AllowMatch: r.MostSpecific(allow, candidate),
		BlockMatch: r.MostSpecific(block, candidate),
	}

	if defaultAllow {
		switch {
		case d.BlockMatch == nil:
			d.ShouldParse, d.Reason = true, ReasonEnabled
			return d
		case d.AllowMatch == nil:
			d.ShouldParse, d.Reason = false, ReasonBlockedByBlocklist
			return d
		}
	} else {
		switch {
		case d.AllowMatch == nil:
			d.ShouldParse, d.Reason = false, ReasonBlockedByDefault
			return d
		case d.BlockMatch == nil:
			d.ShouldParse, d.Reason = true, ReasonAllowedByAllowlist
			return d
		}
	}

	d.ShouldParse = utf8.RuneCountInString(*d.AllowMatch) >= utf8.RuneCountInString(*d.BlockMatch)
	if d.ShouldParse {
		d.Reason = ReasonAllowedByAllowlist
	} else {
		d.Reason = ReasonBlockedByBlocklist
	}
	return d
}

// Disabled is the decision reported when rewriting is switched off.
func Disabled() Decision {
	return Decision{Reason: ReasonExtensionDisabled}
}

// Candidate builds the identity string for a site: the host without a
// leading "www." followed by the path. Inputs without a scheme are read as
// https URLs.
func Candidate(rawURL string) (string, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return "", errors.ErrInvalidURL(rawURL, nil)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.ErrInvalidURL(rawURL, err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", errors.ErrInvalidURL(rawURL, nil)
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return strings.TrimPrefix(host, "www.") + path, nil
}
