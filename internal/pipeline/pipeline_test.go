package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landaire/stoptrackingme/internal/resolver"
	"github.com/landaire/stoptrackingme/internal/rules"
	"github.com/landaire/stoptrackingme/internal/weburl"
)

const testRules = `
global:
  - utm_*
  - fbclid
matchers:
  - name: shop
    hosts: [shop.test]
    params:
      - name: share_id
  - name: social
    hosts: ["*.social.test"]
    params:
      - name: share_id
    resolve_redirect: true
    resolve_paths: ["/r/*/s/*"]
  - name: short
    hosts: [short.test]
    resolve_redirect: true
`

// fakeResolver maps input URLs to a terminal URL or an error.
type fakeResolver struct {
	mu      sync.Mutex
	targets map[string]string
	err     error
	calls   []string
}

func (f *fakeResolver) Resolve(ctx context.Context, u weburl.URL) (resolver.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, u.String())
	if f.err != nil {
		return resolver.Outcome{}, f.err
	}
	target, ok := f.targets[u.String()]
	if !ok {
		return resolver.Outcome{}, &resolver.Error{Reason: resolver.ReasonNotRedirected, URL: u.String()}
	}
	out, err := weburl.Parse(target)
	if err != nil {
		return resolver.Outcome{}, err
	}
	return resolver.Outcome{URL: out, Hops: []string{u.String(), target}, ID: "test"}, nil
}

func newPipeline(t *testing.T, res Resolver) *Pipeline {
	t.Helper()
	reg, err := rules.Load(strings.NewReader(testRules), "test.yaml")
	require.NoError(t, err)
	return New(reg, res, zerolog.Nop())
}

func rewrite(p *Pipeline, text string) (string, bool) {
	u, ok := p.Rewrite(context.Background(), text)
	if !ok {
		return "", false
	}
	return u.String(), true
}

func TestRewrite_Static(t *testing.T) {
	p := newPipeline(t, nil)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Global parameters without host rule",
			input: "https://example.com/page?id=1&utm_source=iphone&utm_campaign=x",
			want:  "https://example.com/page?id=1",
		},
		{
			name:  "Host rule",
			input: "https://shop.test/item?share_id=ABC123",
			want:  "https://shop.test/item",
		},
		{
			name:  "Host rule and global",
			input: "https://shop.test/item?utm_medium=x&share_id=1&color=red",
			want:  "https://shop.test/item?color=red",
		},
		{
			name:  "Surrounding whitespace",
			input: "  https://shop.test/item?share_id=1\n",
			want:  "https://shop.test/item",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := rewrite(p, tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)

			_, again := rewrite(p, got)
			assert.False(t, again, "second rewrite should be a no-op")
		})
	}
}

func TestRewrite_NoChange(t *testing.T) {
	p := newPipeline(t, nil)

	for _, input := range []string{
		"hello world",
		"",
		"ftp://example.com/file",
		"https://example.com/page?id=1",
		"https://shop.test/item?color=red#reviews",
		"https://example.com/a?b&c=&d=1",
	} {
		t.Run(input, func(t *testing.T) {
			_, ok := rewrite(p, input)
			assert.False(t, ok)
		})
	}
}

func TestRewrite_Resolution(t *testing.T) {
	t.Run("Resolved share link", func(t *testing.T) {
		res := &fakeResolver{targets: map[string]string{
			"https://www.social.test/r/sub/s/XYZ?share_id=1": "https://www.social.test/r/sub/comments/abc/title/?share_id=1&utm_source=share",
		}}
		p := newPipeline(t, res)

		got, ok := rewrite(p, "https://www.social.test/r/sub/s/XYZ?share_id=1")
		require.True(t, ok)
		assert.Equal(t, "https://www.social.test/r/sub/comments/abc/title/", got)
		assert.Equal(t, []string{"https://www.social.test/r/sub/s/XYZ?share_id=1"}, res.calls)
	})

	t.Run("Resolved without tracking", func(t *testing.T) {
		res := &fakeResolver{targets: map[string]string{
			"https://social.test/r/sub/s/XYZ": "https://social.test/r/sub/comments/abc/title/",
		}}
		p := newPipeline(t, res)

		got, ok := rewrite(p, "https://social.test/r/sub/s/XYZ")
		require.True(t, ok)
		assert.Equal(t, "https://social.test/r/sub/comments/abc/title/", got)
	})

	t.Run("Resolution fails keeps stripped URL", func(t *testing.T) {
		res := &fakeResolver{err: &resolver.Error{Reason: resolver.ReasonTimeout}}
		p := newPipeline(t, res)

		got, ok := rewrite(p, "https://social.test/r/sub/s/XYZ?share_id=1&utm_source=x")
		require.True(t, ok)
		assert.Equal(t, "https://social.test/r/sub/s/XYZ", got)

		_, ok = rewrite(p, "https://social.test/r/sub/s/XYZ")
		assert.False(t, ok)
	})

	t.Run("Cross host resolution", func(t *testing.T) {
		res := &fakeResolver{targets: map[string]string{
			"https://short.test/AbC": "https://shop.test/item?share_id=9&utm_campaign=x&id=4",
		}}
		p := newPipeline(t, res)

		got, ok := rewrite(p, "https://short.test/AbC")
		require.True(t, ok)
		assert.Equal(t, "https://shop.test/item?id=4", got)
	})

	t.Run("Resolved host without matcher", func(t *testing.T) {
		res := &fakeResolver{targets: map[string]string{
			"https://short.test/AbC": "https://example.com/landing?utm_source=x",
		}}
		p := newPipeline(t, res)

		got, ok := rewrite(p, "https://short.test/AbC")
		require.True(t, ok)
		assert.Equal(t, "https://example.com/landing", got)
	})

	t.Run("Unstable resolution is discarded", func(t *testing.T) {
		res := &fakeResolver{targets: map[string]string{
			"https://short.test/AbC": "https://short.test/Def",
		}}
		p := newPipeline(t, res)

		_, ok := rewrite(p, "https://short.test/AbC")
		assert.False(t, ok)

		tr := p.Explain(context.Background(), "https://short.test/AbC")
		assert.True(t, tr.Discarded)
	})

	t.Run("Path not requiring resolution", func(t *testing.T) {
		res := &fakeResolver{}
		p := newPipeline(t, res)

		got, ok := rewrite(p, "https://social.test/r/sub/comments/abc?share_id=1")
		require.True(t, ok)
		assert.Equal(t, "https://social.test/r/sub/comments/abc", got)
		assert.Empty(t, res.calls)
	})
}

func TestRewrite_ResolutionDisabled(t *testing.T) {
	p := newPipeline(t, nil)

	_, ok := rewrite(p, "https://short.test/AbC")
	assert.False(t, ok)

	tr := p.Explain(context.Background(), "https://short.test/AbC")
	require.NotEmpty(t, tr.Steps)
	last := tr.Steps[len(tr.Steps)-1]
	assert.Equal(t, StageResolve, last.Stage)
	assert.Equal(t, "disabled", last.Detail)
}

func TestExplain(t *testing.T) {
	res := &fakeResolver{err: &resolver.Error{Reason: resolver.ReasonNetwork}}
	p := newPipeline(t, res)

	tr := p.Explain(context.Background(), "https://social.test/r/sub/s/XYZ?share_id=1&fbclid=2")
	assert.True(t, tr.Parsed)
	assert.True(t, tr.Changed)
	assert.Equal(t, "social", tr.Matcher)
	assert.ErrorIs(t, tr.ResolveError, resolver.ErrNetwork)
	assert.Equal(t, "https://social.test/r/sub/s/XYZ", tr.Result.String())

	stages := make([]Stage, len(tr.Steps))
	for i, s := range tr.Steps {
		stages[i] = s.Stage
	}
	assert.Equal(t, []Stage{StageParse, StageMatcher, StageResolve, StageGlobal}, stages)
	assert.Equal(t, "network", tr.Steps[2].Detail)

	tr = p.Explain(context.Background(), "not a url")
	assert.False(t, tr.Parsed)
	assert.False(t, tr.Changed)
	require.Len(t, tr.Steps, 1)
	assert.Equal(t, StageParse, tr.Steps[0].Stage)
}
