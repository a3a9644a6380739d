package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/net/publicsuffix"
)

// KeyPattern matches a query key or a path segment: an exact name, or a
// name with '*' as a leading and/or trailing wildcard ("utm_*", "*clid").
type KeyPattern struct {
	raw  string
	glob glob.Glob // nil for exact names
}

// CompileKeyPattern validates and compiles p.
func CompileKeyPattern(p string) (KeyPattern, error) {
	if p == "" {
		return KeyPattern{}, errors.New("empty pattern")
	}

	inner := strings.TrimPrefix(p, "*")
	leading := inner != p
	trimmed := strings.TrimSuffix(inner, "*")
	trailing := trimmed != inner
	if strings.Contains(trimmed, "*") {
		return KeyPattern{}, fmt.Errorf("pattern %q: '*' is only allowed at the start or end", p)
	}
	if !leading && !trailing {
		return KeyPattern{raw: p}, nil
	}

	expr := glob.QuoteMeta(trimmed)
	if leading {
		expr = "*" + expr
	}
	if trailing {
		expr += "*"
	}
	g, err := glob.Compile(expr)
	if err != nil {
		return KeyPattern{}, fmt.Errorf("pattern %q: %w", p, err)
	}
	return KeyPattern{raw: p, glob: g}, nil
}

// Match reports whether name matches the pattern. Matching is case sensitive.
func (k KeyPattern) Match(name string) bool {
	if k.glob == nil {
		return name == k.raw
	}
	return k.glob.Match(name)
}

// MatchesAll reports whether the pattern is a bare wildcard.
func (k KeyPattern) MatchesAll() bool {
	return strings.Trim(k.raw, "*") == ""
}

func (k KeyPattern) String() string { return k.raw }

// HostPattern is an exact host ("open.spotify.com") or a subdomain wildcard
// ("*.reddit.com") that also matches its apex ("reddit.com").
type HostPattern struct {
	raw      string
	base     string
	wildcard bool
}

// ParseHostPattern validates p. A wildcard may not cover a whole public
// suffix ("*.com", "*.co.uk").
func ParseHostPattern(p string) (HostPattern, error) {
	host := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(p)), ".")
	if host == "" {
		return HostPattern{}, errors.New("empty host")
	}
	if strings.ContainsAny(host, "/:@?# \t") {
		return HostPattern{}, fmt.Errorf("host %q: must be a bare host name", p)
	}

	base, wildcard := strings.CutPrefix(host, "*.")
	if strings.Contains(base, "*") {
		return HostPattern{}, fmt.Errorf("host %q: only a leading \"*.\" wildcard is supported", p)
	}
	if base == "" || strings.HasPrefix(base, ".") || strings.Contains(base, "..") {
		return HostPattern{}, fmt.Errorf("host %q: malformed", p)
	}
	if wildcard {
		if suffix, _ := publicsuffix.PublicSuffix(base); suffix == base {
			return HostPattern{}, fmt.Errorf("host %q: wildcard covers the public suffix %q", p, suffix)
		}
	}
	return HostPattern{raw: host, base: base, wildcard: wildcard}, nil
}

// Match reports whether the canonical (lower-case, no trailing dot) host
// matches.
func (h HostPattern) Match(host string) bool {
	if host == h.base {
		return true
	}
	return h.wildcard && strings.HasSuffix(host, "."+h.base)
}

// Wildcard reports whether the pattern is a subdomain wildcard.
func (h HostPattern) Wildcard() bool { return h.wildcard }

// Labels returns the number of labels in the pattern's base domain; more
// labels means a more specific wildcard.
func (h HostPattern) Labels() int {
	return strings.Count(h.base, ".") + 1
}

func (h HostPattern) String() string { return h.raw }

// PathPattern matches a whole URL path. '*' matches one segment, '**' any
// number of segments.
type PathPattern struct {
	raw  string
	glob glob.Glob
}

// CompilePathPattern validates and compiles p.
func CompilePathPattern(p string) (PathPattern, error) {
	if !strings.HasPrefix(p, "/") {
		return PathPattern{}, fmt.Errorf("path pattern %q: must start with '/'", p)
	}
	g, err := glob.Compile(trimTrailingSlash(p), '/')
	if err != nil {
		return PathPattern{}, fmt.Errorf("path pattern %q: %w", p, err)
	}
	return PathPattern{raw: p, glob: g}, nil
}

// Match reports whether path matches. A trailing slash is ignored.
func (p PathPattern) Match(path string) bool {
	return p.glob.Match(trimTrailingSlash(path))
}

func (p PathPattern) String() string { return p.raw }

func trimTrailingSlash(p string) string {
	if len(p) > 1 {
		return strings.TrimSuffix(p, "/")
	}
	return p
}
