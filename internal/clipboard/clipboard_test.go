package clipboard

import (
	"errors"
	"strings"
	"testing"
)

func stubClipboard(t *testing.T) *string {
	t.Helper()
	origRead, origWrite, origAvail := clipboardReadAll, clipboardWriteAll, clipboardAvailable
	t.Cleanup(func() {
		clipboardReadAll, clipboardWriteAll, clipboardAvailable = origRead, origWrite, origAvail
	})

	content := new(string)
	clipboardReadAll = func() (string, error) { return *content, nil }
	clipboardWriteAll = func(text string) error {
		*content = text
		return nil
	}
	clipboardAvailable = func() bool { return true }
	return content
}

func TestNew(t *testing.T) {
	stubClipboard(t)

	if _, err := New(); err != nil {
		t.Fatalf("New() error = %v", err)
	}

	clipboardAvailable = func() bool { return false }
	if _, err := New(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("New() error = %v, want ErrUnavailable", err)
	}
}

func TestSystem_ReadWrite(t *testing.T) {
	content := stubClipboard(t)
	s := &System{}

	if err := s.WriteText("https://example.com/"); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	if *content != "https://example.com/" {
		t.Fatalf("clipboard = %q", *content)
	}

	got, err := s.ReadText()
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	if got != "https://example.com/" {
		t.Fatalf("ReadText() = %q", got)
	}
}

func TestSystem_Errors(t *testing.T) {
	stubClipboard(t)
	boom := errors.New("clipboard unavailable")
	clipboardReadAll = func() (string, error) { return "", boom }
	clipboardWriteAll = func(string) error { return boom }

	s := &System{}
	if _, err := s.ReadText(); !errors.Is(err, boom) {
		t.Errorf("ReadText() error = %v, want wrapped %v", err, boom)
	}
	if err := s.WriteText("x"); !errors.Is(err, boom) {
		t.Errorf("WriteText() error = %v, want wrapped %v", err, boom)
	}
}

func TestReadURL(t *testing.T) {
	content := stubClipboard(t)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Valid URL", input: "  https://example.com/file?id=1  ", expected: "https://example.com/file?id=1"},
		{name: "Trailing newline", input: "https://example.com\n", expected: "https://example.com"},
		{name: "Prose", input: "see https://example.com", expected: ""},
		{name: "FTP scheme", input: "ftp://example.com", expected: ""},
		{name: "Javascript scheme", input: "javascript:alert(1)", expected: ""},
		{name: "Too long", input: "https://" + strings.Repeat("a", 8192), expected: ""},
		{name: "Empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			*content = tt.input
			if got := ReadURL(); got != tt.expected {
				t.Fatalf("ReadURL() = %q, want %q", got, tt.expected)
			}
		})
	}

	t.Run("clipboard read error", func(t *testing.T) {
		clipboardReadAll = func() (string, error) {
			return "", errors.New("clipboard unavailable")
		}
		if got := ReadURL(); got != "" {
			t.Fatalf("ReadURL() = %q, want empty string", got)
		}
	})
}
