package rules

import (
	"net/url"
	"slices"

	"github.com/landaire/stoptrackingme/internal/weburl"
)

// Operation is what a rule does to a matching query pair or path segment.
type Operation string

const (
	// OpDrop removes the pair or segment.
	OpDrop Operation = "drop"
	// OpReplace replaces the pair's value, or the whole segment.
	OpReplace Operation = "replace"
	// OpRequestRedirect leaves the item alone but marks the URL as one
	// whose canonical form is only known to the server.
	OpRequestRedirect Operation = "request-redirect"
)

// Rule is a host-scoped stripping instruction for a query key or a path
// segment.
type Rule struct {
	Pattern KeyPattern
	Op      Operation
	With    string
}

func (r Rule) match(name string) bool {
	return name != "" && r.Pattern.Match(name)
}

// Matcher holds the rules for one site. It is immutable once built and
// safe for concurrent use.
type Matcher struct {
	Name            string
	Hosts           []HostPattern
	Params          []Rule
	Segments        []Rule
	ResolveRedirect bool
	ResolvePaths    []PathPattern
}

// Apply strips the matcher's tracking artifacts from u and reports whether
// u needs redirect resolution. The redirect decision is made on u as given,
// before anything is stripped.
func (m *Matcher) Apply(u weburl.URL) (weburl.URL, bool) {
	redirect := m.RequiresRedirect(u)

	out := u
	if segments, changed := m.applySegments(u.Path); changed {
		out = out.WithPath(segments)
	}
	if pairs, changed := m.applyParams(u.Query); changed {
		out = out.WithQuery(pairs)
	}
	return out, redirect
}

// RequiresRedirect reports whether u can only be cleaned by asking the
// server where it leads.
func (m *Matcher) RequiresRedirect(u weburl.URL) bool {
	if m.ResolveRedirect {
		if len(m.ResolvePaths) == 0 {
			return true
		}
		path := u.PathString()
		for _, p := range m.ResolvePaths {
			if p.Match(path) {
				return true
			}
		}
	}

	for _, segment := range u.Path {
		if r, ok := firstMatch(m.Segments, segmentName(segment)); ok && r.Op == OpRequestRedirect {
			return true
		}
	}
	for _, pair := range u.Query {
		if r, ok := firstMatch(m.Params, pair.Name()); ok && r.Op == OpRequestRedirect {
			return true
		}
	}
	return false
}

func (m *Matcher) applySegments(segments []string) ([]string, bool) {
	if len(m.Segments) == 0 || len(segments) == 0 {
		return segments, false
	}

	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		r, ok := firstMatch(m.Segments, segmentName(segment))
		if !ok {
			out = append(out, segment)
			continue
		}
		switch r.Op {
		case OpDrop:
		case OpReplace:
			out = append(out, url.PathEscape(r.With))
		default:
			out = append(out, segment)
		}
	}
	if len(out) == 0 {
		// keep the URL rooted at "/"
		out = append(out, "")
	}
	return out, !slices.Equal(out, segments)
}

func (m *Matcher) applyParams(pairs []weburl.Pair) ([]weburl.Pair, bool) {
	if len(m.Params) == 0 || len(pairs) == 0 {
		return pairs, false
	}

	out := make([]weburl.Pair, 0, len(pairs))
	for _, pair := range pairs {
		r, ok := firstMatch(m.Params, pair.Name())
		if !ok {
			out = append(out, pair)
			continue
		}
		switch r.Op {
		case OpDrop:
		case OpReplace:
			out = append(out, weburl.Pair{Key: pair.Key, Value: url.QueryEscape(r.With), HasValue: true})
		default:
			out = append(out, pair)
		}
	}
	return out, !slices.Equal(out, pairs)
}

// firstMatch returns the first rule, in declaration order, matching name.
func firstMatch(rules []Rule, name string) (Rule, bool) {
	for _, r := range rules {
		if r.match(name) {
			return r, true
		}
	}
	return Rule{}, false
}

func segmentName(segment string) string {
	if name, err := url.PathUnescape(segment); err == nil {
		return name
	}
	return segment
}
