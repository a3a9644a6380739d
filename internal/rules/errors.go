package rules

import (
	"errors"
	"strings"
)

// ErrConfig is matched by every ConfigError.
var ErrConfig = errors.New("invalid matcher configuration")

// ConfigError describes one problem in the matcher definitions. Loading
// collects all of them and fails as a whole; a partially loaded registry
// is never returned.
type ConfigError struct {
	Source  string
	Matcher string
	Field   string
	Reason  string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(": ")
	}
	if e.Matcher != "" {
		b.WriteString("matcher ")
		b.WriteString(e.Matcher)
		b.WriteString(": ")
	}
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	b.WriteString(e.Reason)
	return b.String()
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

type configErrors []*ConfigError

func (c *configErrors) add(e *ConfigError) {
	*c = append(*c, e)
}

func (c configErrors) withSource(source string) configErrors {
	for _, e := range c {
		if e.Source == "" {
			e.Source = source
		}
	}
	return c
}

func (c configErrors) err() error {
	if len(c) == 0 {
		return nil
	}
	errs := make([]error, len(c))
	for i, e := range c {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Problems unpacks every ConfigError contained in err.
func Problems(err error) []*ConfigError {
	var out []*ConfigError
	var ce *ConfigError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, Problems(e)...)
		}
		return out
	}
	if errors.As(err, &ce) {
		out = append(out, ce)
	}
	return out
}
