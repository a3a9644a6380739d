package rules

import (
	"fmt"

	"github.com/landaire/stoptrackingme/internal/weburl"
)

// GlobalModifierSet strips query parameters that are tracking artifacts on
// every site, such as utm_*.
type GlobalModifierSet struct {
	patterns []KeyPattern
}

// NewGlobalModifierSet compiles the given key patterns. A bare "*" is
// rejected since it would strip every query string on the web.
func NewGlobalModifierSet(patterns ...string) (*GlobalModifierSet, error) {
	g := &GlobalModifierSet{patterns: make([]KeyPattern, 0, len(patterns))}
	for _, p := range patterns {
		kp, err := CompileKeyPattern(p)
		if err != nil {
			return nil, err
		}
		if kp.MatchesAll() {
			return nil, fmt.Errorf("pattern %q: a global pattern may not match every key", p)
		}
		g.patterns = append(g.patterns, kp)
	}
	return g, nil
}

// Matches reports whether the decoded query key is stripped globally.
func (g *GlobalModifierSet) Matches(name string) bool {
	if g == nil {
		return false
	}
	for _, p := range g.patterns {
		if p.Match(name) {
			return true
		}
	}
	return false
}

// Strip removes every query pair whose key matches a pattern. Path, host,
// scheme and fragment are never touched and surviving pairs keep their
// order. When nothing matches the input is returned as is.
func (g *GlobalModifierSet) Strip(u weburl.URL) weburl.URL {
	if g == nil || len(g.patterns) == 0 || len(u.Query) == 0 {
		return u
	}

	kept := make([]weburl.Pair, 0, len(u.Query))
	for _, pair := range u.Query {
		if !g.Matches(pair.Name()) {
			kept = append(kept, pair)
		}
	}
	if len(kept) == len(u.Query) {
		return u
	}
	return u.WithQuery(kept)
}

// Patterns returns the configured patterns as written.
func (g *GlobalModifierSet) Patterns() []string {
	if g == nil {
		return nil
	}
	out := make([]string, len(g.patterns))
	for i, p := range g.patterns {
		out[i] = p.String()
	}
	return out
}
