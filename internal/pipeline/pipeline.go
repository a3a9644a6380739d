// Package pipeline turns clipboard text into a cleaned URL: parse, apply
// the host's matcher, resolve redirects when the matcher asks for it, then
// strip global tracking parameters.
package pipeline

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/landaire/stoptrackingme/internal/resolver"
	"github.com/landaire/stoptrackingme/internal/rules"
	"github.com/landaire/stoptrackingme/internal/weburl"
)

// Resolver follows a URL's redirect chain. *resolver.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, u weburl.URL) (resolver.Outcome, error)
}

// Pipeline is stateless apart from its immutable registry and is safe for
// concurrent use.
type Pipeline struct {
	registry *rules.Registry
	resolver Resolver
	logger   zerolog.Logger
}

// New creates a Pipeline. A nil resolver disables redirect resolution.
func New(registry *rules.Registry, res Resolver, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		registry: registry,
		resolver: res,
		logger:   logger.With().Str("component", "pipeline").Logger(),
	}
}

// Rewrite returns the cleaned form of text and true, or false when text is
// not a URL or is already clean. Resolution failures fall back to the
// statically stripped URL and are never returned.
func (p *Pipeline) Rewrite(ctx context.Context, text string) (weburl.URL, bool) {
	tr := p.Explain(ctx, text)
	return tr.Result, tr.Changed
}

// Explain runs the same steps as Rewrite and records each of them.
func (p *Pipeline) Explain(ctx context.Context, text string) Trace {
	tr := Trace{Input: text}

	original, err := weburl.Parse(text)
	if err != nil {
		tr.add(StageParse, "", err.Error())
		return tr
	}
	tr.Parsed = true
	tr.add(StageParse, original.String(), "")

	current := original
	requiresRedirect := false
	if m, ok := p.registry.Lookup(original.CanonicalHost()); ok {
		tr.Matcher = m.Name
		current, requiresRedirect = m.Apply(original)
		tr.add(StageMatcher, current.String(), m.Name)
	}

	if requiresRedirect {
		current = p.resolve(ctx, original, current, &tr)
	}

	if g := p.registry.Global(); g != nil {
		stripped := g.Strip(current)
		if !stripped.Equal(current) {
			tr.add(StageGlobal, stripped.String(), "")
		}
		current = stripped
	}

	tr.Result = current
	tr.Changed = !current.Equal(original)
	return tr
}

// resolve returns the cleaned resolution of original, or fallback when
// resolution is disabled, fails, or would not yield a stable result.
func (p *Pipeline) resolve(ctx context.Context, original, fallback weburl.URL, tr *Trace) weburl.URL {
	if p.resolver == nil {
		tr.add(StageResolve, "", "disabled")
		return fallback
	}

	out, err := p.resolver.Resolve(ctx, original)
	if err != nil {
		reason := string(resolver.ReasonOf(err))
		if reason == "" {
			reason = err.Error()
		}
		tr.ResolveError = err
		tr.add(StageResolve, "", reason)

		event := p.logger.Info()
		if errors.Is(err, resolver.ErrNotRedirected) || errors.Is(err, resolver.ErrCanceled) {
			event = p.logger.Debug()
		}
		event.Str("host", original.CanonicalHost()).Str("reason", reason).Msg("Redirect resolution failed, keeping stripped URL")
		return fallback
	}
	tr.add(StageResolve, out.URL.String(), out.ID)

	resolved := out.URL
	if m, ok := p.registry.Lookup(resolved.CanonicalHost()); ok {
		var again bool
		resolved, again = m.Apply(resolved)
		if again {
			tr.Discarded = true
			tr.add(StageDiscard, resolved.String(), m.Name)
			p.logger.Debug().Str("resolution_id", out.ID).Str("matcher", m.Name).
				Msg("Resolved URL still needs resolution, keeping stripped URL")
			return fallback
		}
		tr.add(StageMatcher, resolved.String(), m.Name)
	}

	p.logger.Debug().Str("resolution_id", out.ID).Int("hops", len(out.Hops)).
		Str("host", resolved.CanonicalHost()).Msg("Resolved redirect")
	return resolved
}
