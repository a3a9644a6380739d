package rules

import (
	"sort"
	"strings"
)

type wildcardEntry struct {
	pattern HostPattern
	matcher *Matcher
}

// Registry maps hosts to matchers. It is built once at startup and read
// concurrently afterwards without locking.
//
// Lookup tie-break: an exact host always wins over a wildcard; among
// wildcards the one with the most labels wins ("*.old.reddit.com" over
// "*.reddit.com"). The same host pattern may not appear in two matchers,
// so the result never depends on the order matchers were declared in.
type Registry struct {
	global    *GlobalModifierSet
	matchers  []*Matcher
	exact     map[string]*Matcher
	wildcards []wildcardEntry
}

// NewRegistry indexes the matchers. Duplicate matcher names or host
// patterns are reported as ConfigErrors.
func NewRegistry(global *GlobalModifierSet, matchers ...*Matcher) (*Registry, error) {
	r, errs := buildRegistry(global, matchers)
	if err := errs.err(); err != nil {
		return nil, err
	}
	return r, nil
}

func buildRegistry(global *GlobalModifierSet, matchers []*Matcher) (*Registry, configErrors) {
	r := &Registry{
		global:   global,
		matchers: matchers,
		exact:    make(map[string]*Matcher),
	}

	var errs configErrors
	names := make(map[string]bool, len(matchers))
	owners := make(map[string]string)
	for _, m := range matchers {
		if names[m.Name] {
			errs.add(&ConfigError{Matcher: m.Name, Field: "name", Reason: "duplicate matcher name"})
		}
		names[m.Name] = true

		for _, h := range m.Hosts {
			if owner, dup := owners[h.String()]; dup {
				errs.add(&ConfigError{
					Matcher: m.Name,
					Field:   "hosts",
					Reason:  "host " + h.String() + " is already handled by matcher " + owner,
				})
				continue
			}
			owners[h.String()] = m.Name

			if h.Wildcard() {
				r.wildcards = append(r.wildcards, wildcardEntry{pattern: h, matcher: m})
			} else {
				r.exact[h.String()] = m
			}
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	sort.Slice(r.wildcards, func(i, j int) bool {
		a, b := r.wildcards[i].pattern, r.wildcards[j].pattern
		if a.Labels() != b.Labels() {
			return a.Labels() > b.Labels()
		}
		return a.String() < b.String()
	})
	return r, nil
}

// Lookup returns the most specific matcher for host, if any.
func (r *Registry) Lookup(host string) (*Matcher, bool) {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if m, ok := r.exact[host]; ok {
		return m, true
	}
	for _, w := range r.wildcards {
		if w.pattern.Match(host) {
			return w.matcher, true
		}
	}
	return nil, false
}

// Global returns the global modifier set. It may be nil.
func (r *Registry) Global() *GlobalModifierSet {
	return r.global
}

// Matchers returns the matchers in declaration order.
func (r *Registry) Matchers() []*Matcher {
	return r.matchers
}
