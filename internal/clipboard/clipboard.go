// Package clipboard adapts the system clipboard to the monitor.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/landaire/stoptrackingme/internal/weburl"
)

// ErrUnavailable is returned when no clipboard backend was found, e.g. no
// xclip, xsel or wl-clipboard on Linux.
var ErrUnavailable = errors.New("no clipboard utility available")

var (
	clipboardReadAll   = clipboard.ReadAll
	clipboardWriteAll  = clipboard.WriteAll
	clipboardAvailable = func() bool { return !clipboard.Unsupported }
)

// System is the desktop clipboard.
type System struct{}

// New returns the system clipboard, or ErrUnavailable.
func New() (*System, error) {
	if !clipboardAvailable() {
		return nil, ErrUnavailable
	}
	return &System{}, nil
}

// ReadText returns the clipboard's text content.
func (s *System) ReadText() (string, error) {
	text, err := clipboardReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return text, nil
}

// WriteText replaces the clipboard content.
func (s *System) WriteText(text string) error {
	if err := clipboardWriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// ReadURL returns the clipboard content if it is a single http(s) URL.
func ReadURL() string {
	text, err := clipboardReadAll()
	if err != nil {
		return ""
	}
	u, err := weburl.Parse(text)
	if err != nil {
		return ""
	}
	return u.String()
}
