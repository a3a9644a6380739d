// Package weburl holds the structured, order-preserving URL value the
// cleaner works on. Unlike net/url it keeps query pairs as an ordered list
// with their original encoding, so a URL that needs no cleaning serializes
// back exactly as it was copied.
package weburl

import (
	"net/url"
	"slices"
	"strings"
)

// Pair is a single query item. Key and Value are kept percent-encoded as
// they appeared in the source text.
type Pair struct {
	Key      string
	Value    string
	HasValue bool // false for "?flag", true for "?flag=" and "?k=v"
}

// Name returns the decoded key used for rule matching.
func (p Pair) Name() string {
	if name, err := url.QueryUnescape(p.Key); err == nil {
		return name
	}
	return p.Key
}

func (p Pair) String() string {
	if !p.HasValue {
		return p.Key
	}
	return p.Key + "=" + p.Value
}

// URL is an absolute http(s) URL split into the parts the rules operate on.
// Treat it as immutable: every method that changes a part returns a copy.
type URL struct {
	Scheme      string
	User        string // escaped userinfo, without the trailing '@'
	Host        string // hostname as typed, without brackets or port
	Port        string
	Path        []string // escaped segments; nil for "", [""] for "/"
	Query       []Pair
	ForceQuery  bool // a bare '?' with no pairs
	Fragment    string
	HasFragment bool
}

// CanonicalHost returns the lower-cased host without a trailing dot.
func (u URL) CanonicalHost() string {
	return strings.TrimSuffix(strings.ToLower(u.Host), ".")
}

// PathString returns the escaped path, "/" when the URL has none.
func (u URL) PathString() string {
	if len(u.Path) == 0 {
		return "/"
	}
	return "/" + strings.Join(u.Path, "/")
}

// RawQuery returns the query without the leading '?'.
func (u URL) RawQuery() string {
	parts := make([]string, len(u.Query))
	for i, p := range u.Query {
		parts[i] = p.String()
	}
	return strings.Join(parts, "&")
}

// String reassembles the URL.
func (u URL) String() string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	if u.User != "" {
		b.WriteString(u.User)
		b.WriteByte('@')
	}
	if strings.Contains(u.Host, ":") {
		// IPv6 zone ids are escaped inside brackets
		b.WriteByte('[')
		b.WriteString(strings.ReplaceAll(u.Host, "%", "%25"))
		b.WriteByte(']')
	} else {
		b.WriteString(u.Host)
	}
	if u.Port != "" {
		b.WriteByte(':')
		b.WriteString(u.Port)
	}
	if len(u.Path) > 0 {
		b.WriteByte('/')
		b.WriteString(strings.Join(u.Path, "/"))
	}
	if len(u.Query) > 0 || u.ForceQuery {
		b.WriteByte('?')
		b.WriteString(u.RawQuery())
	}
	if u.HasFragment {
		b.WriteByte('#')
		b.WriteString(u.Fragment)
	}
	return b.String()
}

// Clone returns a copy that shares no slices with u.
func (u URL) Clone() URL {
	c := u
	c.Path = slices.Clone(u.Path)
	c.Query = slices.Clone(u.Query)
	return c
}

// Equal reports structural equality.
func (u URL) Equal(o URL) bool {
	return u.Scheme == o.Scheme &&
		u.User == o.User &&
		u.Host == o.Host &&
		u.Port == o.Port &&
		slices.Equal(u.Path, o.Path) &&
		slices.Equal(u.Query, o.Query) &&
		u.ForceQuery == o.ForceQuery &&
		u.Fragment == o.Fragment &&
		u.HasFragment == o.HasFragment
}

// WithQuery returns a copy of u with the given query pairs. Removing every
// pair also removes the '?'.
func (u URL) WithQuery(pairs []Pair) URL {
	c := u.Clone()
	c.Query = slices.Clone(pairs)
	if len(c.Query) == 0 {
		c.Query = nil
		c.ForceQuery = false
	}
	return c
}

// WithPath returns a copy of u with the given escaped path segments.
func (u URL) WithPath(segments []string) URL {
	c := u.Clone()
	c.Path = slices.Clone(segments)
	return c
}
