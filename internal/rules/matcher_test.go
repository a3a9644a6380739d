package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landaire/stoptrackingme/internal/weburl"
)

func mustLoad(t *testing.T, doc string) *Registry {
	t.Helper()
	reg, err := Load(strings.NewReader(doc), "test.yaml")
	require.NoError(t, err)
	return reg
}

func mustParse(t *testing.T, raw string) weburl.URL {
	t.Helper()
	u, err := weburl.Parse(raw)
	require.NoError(t, err)
	return u
}

func applyFor(t *testing.T, reg *Registry, raw string) (string, bool) {
	t.Helper()
	u := mustParse(t, raw)
	m, ok := reg.Lookup(u.CanonicalHost())
	require.True(t, ok, "no matcher for %s", raw)
	out, redirect := m.Apply(u)
	return out.String(), redirect
}

func TestMatcher_StripsShareID(t *testing.T) {
	reg := mustLoad(t, `
matchers:
  - name: shop
    hosts: [shop.test]
    params:
      - name: share_id
`)
	got, redirect := applyFor(t, reg, "https://shop.test/item?share_id=ABC123")
	assert.Equal(t, "https://shop.test/item", got)
	assert.False(t, redirect)
}

func TestMatcher_Operations(t *testing.T) {
	reg := mustLoad(t, `
matchers:
  - name: store
    hosts: ["*.store.test"]
    segments:
      - name: ref=*
      - name: share
        op: replace
        with: item
    params:
      - name: tag
        op: replace
        with: ""
      - name: pd_rd_*
      - name: keep_me
        op: request-redirect
`)

	tests := []struct {
		name         string
		input        string
		want         string
		wantRedirect bool
	}{
		{
			name:  "Drop path segment",
			input: "https://www.store.test/dp/B000/ref=sr_1_1?th=1",
			want:  "https://www.store.test/dp/B000?th=1",
		},
		{
			name:  "Drop only segment keeps root",
			input: "https://store.test/ref=abc",
			want:  "https://store.test/",
		},
		{
			name:  "Replace segment",
			input: "https://store.test/share/42",
			want:  "https://store.test/item/42",
		},
		{
			name:  "Replace value and drop wildcard keys",
			input: "https://store.test/x?tag=aff-20&pd_rd_w=1&pd_rd_r=2&q=shoes",
			want:  "https://store.test/x?tag=&q=shoes",
		},
		{
			name:         "Request redirect key is kept and flagged",
			input:        "https://store.test/x?keep_me=1&pd_rd_w=1",
			want:         "https://store.test/x?keep_me=1",
			wantRedirect: true,
		},
		{
			name:  "Nothing to do",
			input: "https://store.test/dp/B000?q=shoes",
			want:  "https://store.test/dp/B000?q=shoes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, redirect := applyFor(t, reg, tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantRedirect, redirect)

			// a second pass is a no-op
			again, _ := applyFor(t, reg, got)
			assert.Equal(t, got, again)
		})
	}
}

func TestMatcher_ResolvePaths(t *testing.T) {
	reg := mustLoad(t, `
matchers:
  - name: social
    hosts: [social.test]
    params:
      - name: share_id
    resolve_redirect: true
    resolve_paths: ["/r/*/s/*"]
  - name: short
    hosts: [short.test]
    resolve_redirect: true
`)

	got, redirect := applyFor(t, reg, "https://social.test/r/sub/s/XYZ?share_id=1")
	assert.True(t, redirect)
	assert.Equal(t, "https://social.test/r/sub/s/XYZ", got)

	got, redirect = applyFor(t, reg, "https://social.test/r/sub/comments/abc/title/")
	assert.False(t, redirect)
	assert.Equal(t, "https://social.test/r/sub/comments/abc/title/", got)

	_, redirect = applyFor(t, reg, "https://short.test/AbCd")
	assert.True(t, redirect)
}

func TestMatcher_RequestRedirectSegment(t *testing.T) {
	reg := mustLoad(t, `
matchers:
  - name: reddit
    hosts: ["*.reddit.com"]
    segments:
      - name: s
        op: request-redirect
`)
	_, redirect := applyFor(t, reg, "https://www.reddit.com/r/rust/s/abc123")
	assert.True(t, redirect)

	_, redirect = applyFor(t, reg, "https://www.reddit.com/r/rust/comments/abc123")
	assert.False(t, redirect)
}

func TestMatcher_ApplyDoesNotMutateInput(t *testing.T) {
	reg := mustLoad(t, `
matchers:
  - name: shop
    hosts: [shop.test]
    segments:
      - name: ref=*
    params:
      - name: share_id
`)
	u := mustParse(t, "https://shop.test/a/ref=1?share_id=2&x=3")
	m, ok := reg.Lookup("shop.test")
	require.True(t, ok)

	out, _ := m.Apply(u)
	assert.Equal(t, "https://shop.test/a?x=3", out.String())
	assert.Equal(t, "https://shop.test/a/ref=1?share_id=2&x=3", u.String())
}
