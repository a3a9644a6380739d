package weburl

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// MaxLength bounds the clipboard text considered for parsing.
const MaxLength = 8192

// ErrNotAURL is returned for any text that is not a single absolute
// http(s) URL. Most clipboard content is not a URL, so callers treat this
// as "nothing to do" rather than a failure.
var ErrNotAURL = errors.New("not a URL")

var allowedSchemes = map[string]bool{"http": true, "https": true}

func notAURL(reason string) error {
	return fmt.Errorf("%w: %s", ErrNotAURL, reason)
}

// Parse parses text as a single absolute http or https URL.
func Parse(text string) (URL, error) {
	text = strings.TrimSpace(text)

	// Quick reject: empty, too long, or prose / multi-line text
	if text == "" {
		return URL{}, notAURL("empty")
	}
	if len(text) > MaxLength {
		return URL{}, notAURL("too long")
	}
	if strings.IndexFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) >= 0 {
		return URL{}, notAURL("contains whitespace")
	}

	scheme, _, ok := strings.Cut(text, "://")
	if !ok || !allowedSchemes[strings.ToLower(scheme)] {
		return URL{}, notAURL("unsupported scheme")
	}

	parsed, err := url.Parse(text)
	if err != nil {
		return URL{}, fmt.Errorf("%w: %v", ErrNotAURL, err)
	}
	if parsed.Opaque != "" || parsed.Hostname() == "" {
		return URL{}, notAURL("missing host")
	}

	u := URL{
		Scheme:     strings.ToLower(parsed.Scheme),
		Host:       parsed.Hostname(),
		Port:       parsed.Port(),
		Path:       splitPath(rawPath(text)),
		Query:      splitQuery(parsed.RawQuery),
		ForceQuery: parsed.ForceQuery && parsed.RawQuery == "",
	}
	if parsed.User != nil {
		u.User = parsed.User.String()
	}
	if i := strings.IndexByte(text, '#'); i >= 0 {
		u.HasFragment = true
		u.Fragment = text[i+1:]
	}
	return u, nil
}

// rawPath returns the path exactly as typed, so rewriting a URL does not
// re-encode characters the user copied unescaped. text has already been
// accepted by url.Parse.
func rawPath(text string) string {
	_, rest, _ := strings.Cut(text, "://")
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	i := strings.IndexByte(rest, '/')
	if i < 0 {
		return ""
	}
	return rest[i:]
}

// IsURL reports whether text parses as an http(s) URL.
func IsURL(text string) bool {
	_, err := Parse(text)
	return err == nil
}

func splitPath(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}

func splitQuery(raw string) []Pair {
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, "&")
	pairs := make([]Pair, 0, len(items))
	for _, item := range items {
		key, value, hasValue := strings.Cut(item, "=")
		pairs = append(pairs, Pair{Key: key, Value: value, HasValue: hasValue})
	}
	return pairs
}
