// Package resolver follows HTTP redirects by hand to discover where a
// share link or shortened URL really leads.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vfaronov/httpheader"

	"github.com/landaire/stoptrackingme/internal/weburl"
)

// ProductName is the product token sent in the User-Agent header.
const ProductName = "stoptrackingme"

// maxDrain bounds how much of each response body is read before closing.
const maxDrain = 4 << 10

// Options configures redirect resolution.
type Options struct {
	Method      string
	MaxHops     int
	HopTimeout  time.Duration
	Budget      time.Duration
	UserAgent   string // overrides the product User-Agent when set
	Version     string
	EnableHTTP2 bool
}

// DefaultOptions returns the built-in resolution settings.
func DefaultOptions() Options {
	return Options{
		Method:      http.MethodGet,
		MaxHops:     10,
		HopTimeout:  3 * time.Second,
		Budget:      8 * time.Second,
		Version:     "dev",
		EnableHTTP2: true,
	}
}

// Outcome is a successful resolution.
type Outcome struct {
	URL  weburl.URL
	Hops []string // every URL requested, starting with the input
	ID   string
}

// Resolver follows redirect chains. It keeps no per-call state and is
// safe for concurrent use.
type Resolver struct {
	client Doer
	opts   Options
	logger zerolog.Logger
}

// New creates a Resolver. A nil client gets one from NewClient.
func New(client Doer, opts Options, logger zerolog.Logger) *Resolver {
	def := DefaultOptions()
	if opts.Method == "" {
		opts.Method = def.Method
	}
	if opts.MaxHops <= 0 {
		opts.MaxHops = def.MaxHops
	}
	if opts.HopTimeout <= 0 {
		opts.HopTimeout = def.HopTimeout
	}
	if opts.Budget <= 0 {
		opts.Budget = def.Budget
	}
	if opts.Version == "" {
		opts.Version = def.Version
	}

	logger = logger.With().Str("component", "resolver").Logger()
	if client == nil {
		client = NewClient(opts, logger)
	}
	return &Resolver{client: client, opts: opts, logger: logger}
}

// Options returns the effective options.
func (r *Resolver) Options() Options {
	return r.opts
}

// Resolve requests u and follows redirects until a non-redirect response,
// returning the URL that produced it. The whole chain is bounded by
// Options.Budget and each request by Options.HopTimeout.
func (r *Resolver) Resolve(ctx context.Context, u weburl.URL) (Outcome, error) {
	id := uuid.NewString()
	log := r.logger.With().Str("resolution_id", id).Logger()

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, r.opts.Budget)
	defer cancel()

	current := u
	hops := []string{u.String()}
	seen := map[string]bool{u.String(): true}

	for hop := 0; ; hop++ {
		location, status, err := r.request(ctx, current, log)
		if err != nil {
			return Outcome{}, r.fail(parent, classify(parent, err), current, hop, err)
		}

		if !isRedirect(status) {
			if hop == 0 {
				return Outcome{}, r.fail(parent, ReasonNotRedirected, current, hop,
					fmt.Errorf("status %d", status))
			}
			log.Debug().Int("hops", hop).Int("status", status).Msg("Redirect chain resolved")
			return Outcome{URL: current, Hops: hops, ID: id}, nil
		}

		if hop+1 > r.opts.MaxHops {
			return Outcome{}, r.fail(parent, ReasonTooManyRedirects, current, hop,
				fmt.Errorf("more than %d redirects", r.opts.MaxHops))
		}

		next, err := resolveLocation(current, location)
		if err != nil {
			return Outcome{}, r.fail(parent, ReasonInvalidLocation, current, hop, err)
		}

		key := next.String()
		if seen[key] {
			return Outcome{}, r.fail(parent, ReasonTooManyRedirects, current, hop,
				fmt.Errorf("redirect loop at %s", key))
		}
		seen[key] = true
		hops = append(hops, key)

		log.Debug().Int("hop", hop).Int("status", status).Str("host", next.CanonicalHost()).Msg("Following redirect")
		current = next
	}
}

// request performs one hop and returns the Location header and status.
func (r *Resolver) request(ctx context.Context, u weburl.URL, log zerolog.Logger) (string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.HopTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, r.opts.Method, u.String(), nil)
	if err != nil {
		return "", 0, err
	}
	if r.opts.UserAgent != "" {
		req.Header.Set("User-Agent", r.opts.UserAgent)
	} else {
		httpheader.SetUserAgent(req.Header, []httpheader.Product{{Name: ProductName, Version: r.opts.Version}})
	}
	req.Header.Set("Accept", "*/*")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		if at := httpheader.RetryAfter(resp.Header); !at.IsZero() {
			log.Info().Int("status", resp.StatusCode).Time("retry_after", at).Msg("Server asked to retry later")
		}
	}
	return resp.Header.Get("Location"), resp.StatusCode, nil
}

func (r *Resolver) fail(parent context.Context, reason Reason, u weburl.URL, hop int, err error) error {
	if parent.Err() != nil && errors.Is(parent.Err(), context.Canceled) {
		reason = ReasonCanceled
	}
	return &Error{Reason: reason, URL: u.String(), Hop: hop, Err: err}
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// resolveLocation turns a Location header into an absolute http(s) URL.
func resolveLocation(current weburl.URL, location string) (weburl.URL, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return weburl.URL{}, errors.New("missing Location header")
	}
	base, err := url.Parse(current.String())
	if err != nil {
		return weburl.URL{}, err
	}
	ref, err := url.Parse(location)
	if err != nil {
		return weburl.URL{}, err
	}
	next, err := weburl.Parse(base.ResolveReference(ref).String())
	if err != nil {
		return weburl.URL{}, fmt.Errorf("location %q: %w", location, err)
	}
	return next, nil
}

func classify(parent context.Context, err error) Reason {
	if errors.Is(parent.Err(), context.Canceled) {
		return ReasonCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ReasonTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ReasonCanceled
	}
	return ReasonNetwork
}
