package resolver

import (
	"errors"
	"fmt"
)

// Reason classifies a failed resolution.
type Reason string

const (
	ReasonTimeout          Reason = "timeout"
	ReasonTooManyRedirects Reason = "too-many-redirects"
	ReasonNetwork          Reason = "network"
	ReasonNotRedirected    Reason = "not-redirected"
	ReasonInvalidLocation  Reason = "invalid-location"
	ReasonCanceled         Reason = "canceled"
)

var (
	ErrTimeout          = errors.New("redirect resolution timed out")
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrNetwork          = errors.New("network error")
	ErrNotRedirected    = errors.New("url did not redirect")
	ErrInvalidLocation  = errors.New("invalid redirect location")
	ErrCanceled         = errors.New("redirect resolution canceled")
)

var sentinels = map[Reason]error{
	ReasonTimeout:          ErrTimeout,
	ReasonTooManyRedirects: ErrTooManyRedirects,
	ReasonNetwork:          ErrNetwork,
	ReasonNotRedirected:    ErrNotRedirected,
	ReasonInvalidLocation:  ErrInvalidLocation,
	ReasonCanceled:         ErrCanceled,
}

// Error is returned by Resolve. URL is the URL being requested when the
// resolution failed and Hop its zero-based position in the chain.
type Error struct {
	Reason Reason
	URL    string
	Hop    int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %s (hop %d): %s: %v", e.URL, e.Hop, e.Reason, e.Err)
	}
	return fmt.Sprintf("resolve %s (hop %d): %s", e.URL, e.Hop, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's reason.
func (e *Error) Is(target error) bool {
	return sentinels[e.Reason] == target
}

// ReasonOf returns the reason of a resolver error, or "" for any other
// error.
func ReasonOf(err error) Reason {
	var re *Error
	if errors.As(err, &re) {
		return re.Reason
	}
	return ""
}
