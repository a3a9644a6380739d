package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landaire/stoptrackingme/internal/logger"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())

	assert.Equal(t, 500*time.Millisecond, s.General.PollInterval)
	assert.False(t, s.General.CleanOnStart)
	assert.Equal(t, "info", s.General.LogLevel)
	assert.Equal(t, 5, s.General.LogRetentionCount)
	assert.True(t, s.Resolver.Enabled)
	assert.Equal(t, "GET", s.Resolver.Method)
	assert.Equal(t, 10, s.Resolver.MaxHops)
	assert.Equal(t, 3*time.Second, s.Resolver.HopTimeout)
	assert.Equal(t, 8*time.Second, s.Resolver.Budget)
}

func TestSettings_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	s := DefaultSettings()
	s.General.PollInterval = 250 * time.Millisecond
	s.General.LogLevel = "debug"
	s.Resolver.Method = "HEAD"
	s.Resolver.Budget = 20 * time.Second
	require.NoError(t, SaveSettingsFile(s, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"poll_interval": "250ms"`)
	assert.Contains(t, string(data), `"budget": "20s"`)

	loaded, err := LoadSettingsFile(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, errors.Is(err, os.ErrNotExist), "temp file should be renamed away")
}

func TestLoadSettingsFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, s *Settings)
		wantErr string
	}{
		{
			name:    "Partial file keeps defaults",
			content: `{"general": {"clean_on_start": true}}`,
			check: func(t *testing.T, s *Settings) {
				assert.True(t, s.General.CleanOnStart)
				assert.Equal(t, 500*time.Millisecond, s.General.PollInterval)
				assert.True(t, s.Resolver.Enabled)
			},
		},
		{
			name:    "Nanosecond durations",
			content: `{"general": {"poll_interval": 1000000000}, "resolver": {"hop_timeout": "2s"}}`,
			check: func(t *testing.T, s *Settings) {
				assert.Equal(t, time.Second, s.General.PollInterval)
				assert.Equal(t, 2*time.Second, s.Resolver.HopTimeout)
				assert.Equal(t, 8*time.Second, s.Resolver.Budget)
			},
		},
		{
			name:    "Malformed JSON",
			content: `{"general": `,
			wantErr: "failed to parse",
		},
		{
			name:    "Bad duration",
			content: `{"general": {"poll_interval": "soon"}}`,
			wantErr: "invalid duration",
		},
		{
			name:    "Poll interval too small",
			content: `{"general": {"poll_interval": "1ms"}}`,
			wantErr: "general.poll_interval",
		},
		{
			name:    "Unknown log level",
			content: `{"general": {"log_level": "chatty"}}`,
			wantErr: "general.log_level",
		},
		{
			name:    "Unknown method",
			content: `{"resolver": {"method": "POST"}}`,
			wantErr: "resolver.method",
		},
		{
			name:    "Budget shorter than hop timeout",
			content: `{"resolver": {"hop_timeout": "5s", "budget": "1s"}}`,
			wantErr: "resolver.budget",
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "settings"+string(rune('a'+i))+".json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			s, err := LoadSettingsFile(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestLoadSettingsFile_Missing(t *testing.T) {
	s, err := LoadSettingsFile(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestSettings_ValidateReportsAll(t *testing.T) {
	s := DefaultSettings()
	s.General.LogFormat = "xml"
	s.Resolver.MaxHops = 0

	err := s.Validate()
	require.Error(t, err)

	var fields []string
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var ve *ValidationError
		require.ErrorAs(t, e, &ve)
		fields = append(fields, ve.Field)
	}
	assert.ElementsMatch(t, []string{"general.log_format", "resolver.max_hops"}, fields)
}

func TestSettings_ResolverOptions(t *testing.T) {
	s := DefaultSettings()
	s.Resolver.UserAgent = "custom/1"

	opts := s.ResolverOptions("1.0.0")
	assert.Equal(t, "GET", opts.Method)
	assert.Equal(t, 10, opts.MaxHops)
	assert.Equal(t, 3*time.Second, opts.HopTimeout)
	assert.Equal(t, 8*time.Second, opts.Budget)
	assert.Equal(t, "custom/1", opts.UserAgent)
	assert.Equal(t, "1.0.0", opts.Version)
	assert.True(t, opts.EnableHTTP2)
}

func TestSettings_LoggerConfig(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	s := DefaultSettings()
	s.General.LogLevel = "warn"
	s.General.LogFormat = "json"

	cfg := s.LoggerConfig()
	assert.Equal(t, zerolog.WarnLevel, cfg.Level)
	assert.Equal(t, logger.FormatJSON, cfg.Format)
	assert.True(t, cfg.Console)
	assert.Equal(t, filepath.Join(GetLogsDir(), logger.FileName), cfg.File)
	assert.Equal(t, 5, cfg.MaxBackups)
	assert.Equal(t, 10, cfg.MaxSizeMB)
}

func TestSettings_MatchersPath(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("HOME", configHome)
	t.Setenv("APPDATA", configHome)

	s := DefaultSettings()
	path, err := s.MatchersPath()
	require.NoError(t, err)
	assert.Empty(t, path, "no user file means built-in rules")

	require.NoError(t, os.MkdirAll(GetConfigDir(), 0o755))
	require.NoError(t, os.WriteFile(GetMatchersPath(), []byte("matchers: []\n"), 0o644))
	path, err = s.MatchersPath()
	require.NoError(t, err)
	assert.Equal(t, GetMatchersPath(), path)

	s.General.MatchersFile = filepath.Join(configHome, "missing.yaml")
	_, err = s.MatchersPath()
	assert.Error(t, err)
}

func TestSettings_Values(t *testing.T) {
	values, err := DefaultSettings().Values()
	require.NoError(t, err)

	assert.Equal(t, "500ms", values["General"]["poll_interval"])
	assert.Equal(t, true, values["Resolver"]["enabled"])
	assert.Equal(t, float64(10), values["Resolver"]["max_hops"])

	// every documented key has a value
	for category, metas := range GetSettingsMetadata() {
		for _, meta := range metas {
			assert.Contains(t, values[category], meta.Key, "%s.%s", category, meta.Key)
		}
	}
}

func TestSettings_Set(t *testing.T) {
	tests := []struct {
		key   string
		value string
		check func(t *testing.T, s *Settings)
	}{
		{"poll_interval", "1s", func(t *testing.T, s *Settings) {
			assert.Equal(t, time.Second, s.General.PollInterval)
		}},
		{"general.clean_on_start", "true", func(t *testing.T, s *Settings) {
			assert.True(t, s.General.CleanOnStart)
		}},
		{"resolver.max_hops", "5", func(t *testing.T, s *Settings) {
			assert.Equal(t, 5, s.Resolver.MaxHops)
		}},
		{"Resolver.Enabled", "false", func(t *testing.T, s *Settings) {
			assert.False(t, s.Resolver.Enabled)
		}},
		{"log_format", "JSON", func(t *testing.T, s *Settings) {
			assert.Equal(t, "json", s.General.LogFormat)
		}},
		{"log_level", "WARN", func(t *testing.T, s *Settings) {
			assert.Equal(t, "warn", s.General.LogLevel)
		}},
		{"method", "head", func(t *testing.T, s *Settings) {
			assert.Equal(t, "HEAD", s.Resolver.Method)
		}},
		{"budget", "30s", func(t *testing.T, s *Settings) {
			assert.Equal(t, 30*time.Second, s.Resolver.Budget)
			assert.Equal(t, 3*time.Second, s.Resolver.HopTimeout, "other fields keep their value")
		}},
		{"user_agent", "custom/1.0", func(t *testing.T, s *Settings) {
			assert.Equal(t, "custom/1.0", s.Resolver.UserAgent)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			s := DefaultSettings()
			require.NoError(t, s.Set(tt.key, tt.value))
			tt.check(t, s)
			require.NoError(t, s.Validate())
		})
	}
}

func TestSettings_SetErrors(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		value      string
		validation bool
	}{
		{"Unknown key", "nope", "1", false},
		{"Wrong section", "general.max_hops", "5", false},
		{"Not an int", "max_hops", "many", false},
		{"Not a bool", "enabled", "maybe", false},
		{"Not a duration", "hop_timeout", "soon", false},
		{"Unknown format", "log_format", "xml", false},
		{"Out of range", "max_hops", "0", true},
		{"Budget below hop timeout", "budget", "1s", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			err := s.Set(tt.key, tt.value)
			require.Error(t, err)

			var verr *ValidationError
			assert.Equal(t, tt.validation, errors.As(err, &verr))
			assert.Equal(t, DefaultSettings(), s, "settings must be unchanged")
		})
	}
}

func TestSettings_LoggerConfigFormat(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Set("log_format", "json"))
	assert.Equal(t, logger.FormatJSON, s.LoggerConfig().Format)
}
