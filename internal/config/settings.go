package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/landaire/stoptrackingme/internal/logger"
	"github.com/landaire/stoptrackingme/internal/resolver"
)

// Settings holds all user-configurable application settings organized by category.
type Settings struct {
	General  GeneralSettings  `json:"general"`
	Resolver ResolverSettings `json:"resolver"`
}

// GeneralSettings contains monitoring and logging behavior.
type GeneralSettings struct {
	PollInterval      time.Duration `json:"poll_interval" validate:"min=50ms,max=1m"`
	CleanOnStart      bool          `json:"clean_on_start"`
	LogLevel          string        `json:"log_level" validate:"loglevel"`
	LogFormat         string        `json:"log_format" validate:"oneof=console json"`
	LogRetentionCount int           `json:"log_retention_count" validate:"min=0,max=100"`
	LogMaxSizeMB      int           `json:"log_max_size_mb" validate:"min=1,max=1024"`
	LogClipboardText  bool          `json:"log_clipboard_text"`
	MatchersFile      string        `json:"matchers_file"`
}

// ResolverSettings controls redirect resolution for share links.
type ResolverSettings struct {
	Enabled     bool          `json:"enabled"`
	Method      string        `json:"method" validate:"oneof=GET HEAD"`
	MaxHops     int           `json:"max_hops" validate:"min=1,max=50"`
	HopTimeout  time.Duration `json:"hop_timeout" validate:"min=100ms,max=1m"`
	Budget      time.Duration `json:"budget" validate:"min=100ms,max=5m,gtefield=HopTimeout"`
	UserAgent   string        `json:"user_agent"`
	EnableHTTP2 bool          `json:"enable_http2"`
}

// MarshalJSON writes durations as strings such as "500ms".
func (g GeneralSettings) MarshalJSON() ([]byte, error) {
	type alias GeneralSettings
	return json.Marshal(struct {
		alias
		PollInterval jsonDuration `json:"poll_interval"`
	}{alias(g), jsonDuration(g.PollInterval)})
}

// UnmarshalJSON accepts durations as strings or integer nanoseconds.
func (g *GeneralSettings) UnmarshalJSON(data []byte) error {
	type alias GeneralSettings
	aux := struct {
		*alias
		PollInterval jsonDuration `json:"poll_interval"`
	}{alias: (*alias)(g), PollInterval: jsonDuration(g.PollInterval)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	g.PollInterval = time.Duration(aux.PollInterval)
	return nil
}

func (r ResolverSettings) MarshalJSON() ([]byte, error) {
	type alias ResolverSettings
	return json.Marshal(struct {
		alias
		HopTimeout jsonDuration `json:"hop_timeout"`
		Budget     jsonDuration `json:"budget"`
	}{alias(r), jsonDuration(r.HopTimeout), jsonDuration(r.Budget)})
}

func (r *ResolverSettings) UnmarshalJSON(data []byte) error {
	type alias ResolverSettings
	aux := struct {
		*alias
		HopTimeout jsonDuration `json:"hop_timeout"`
		Budget     jsonDuration `json:"budget"`
	}{alias: (*alias)(r), HopTimeout: jsonDuration(r.HopTimeout), Budget: jsonDuration(r.Budget)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.HopTimeout = time.Duration(aux.HopTimeout)
	r.Budget = time.Duration(aux.Budget)
	return nil
}

// SettingMeta provides metadata for a single setting.
type SettingMeta struct {
	Key         string // JSON key name
	Label       string // Human-readable label
	Description string // Help text shown by the config command
	Type        string // "string", "int", "bool", "duration"
}

// GetSettingsMetadata returns metadata for all settings organized by category.
func GetSettingsMetadata() map[string][]SettingMeta {
	return map[string][]SettingMeta{
		"General": {
			{Key: "poll_interval", Label: "Poll Interval", Description: "How often the clipboard is checked (e.g., 500ms).", Type: "duration"},
			{Key: "clean_on_start", Label: "Clean on Start", Description: "Clean the URL already on the clipboard when monitoring starts.", Type: "bool"},
			{Key: "log_level", Label: "Log Level", Description: "Minimum log level (debug, info, warn, error).", Type: "string"},
			{Key: "log_format", Label: "Log Format", Description: "Log line format (console, json).", Type: "string"},
			{Key: "log_retention_count", Label: "Log Retention Count", Description: "Number of rotated log files to keep.", Type: "int"},
			{Key: "log_max_size_mb", Label: "Log Max Size", Description: "Rotate the log file after this many MB.", Type: "int"},
			{Key: "log_clipboard_text", Label: "Log Clipboard Text", Description: "Write full clipboard URLs to the log instead of redacting them.", Type: "bool"},
			{Key: "matchers_file", Label: "Matchers File", Description: "Site rule definitions. Leave empty to use matchers.yaml in the config dir, or the built-in rules.", Type: "string"},
		},
		"Resolver": {
			{Key: "enabled", Label: "Resolve Redirects", Description: "Follow share links to find the URL they point to.", Type: "bool"},
			{Key: "method", Label: "Method", Description: "HTTP method used to follow redirects (GET, HEAD).", Type: "string"},
			{Key: "max_hops", Label: "Max Hops", Description: "Maximum redirects followed for a single URL (1-50).", Type: "int"},
			{Key: "hop_timeout", Label: "Hop Timeout", Description: "Timeout for each request in a redirect chain (e.g., 3s).", Type: "duration"},
			{Key: "budget", Label: "Budget", Description: "Total time allowed to resolve one URL (e.g., 8s).", Type: "duration"},
			{Key: "user_agent", Label: "User Agent", Description: "Custom User-Agent string for HTTP requests. Leave empty for default.", Type: "string"},
			{Key: "enable_http2", Label: "HTTP/2", Description: "Allow HTTP/2 when following redirects.", Type: "bool"},
		},
	}
}

// CategoryOrder returns the order categories are listed in.
func CategoryOrder() []string {
	return []string{"General", "Resolver"}
}

// DefaultSettings returns a new Settings instance with sensible defaults.
func DefaultSettings() *Settings {
	return &Settings{
		General: GeneralSettings{
			PollInterval:      500 * time.Millisecond,
			CleanOnStart:      false,
			LogLevel:          "info",
			LogFormat:         string(logger.FormatConsole),
			LogRetentionCount: 5,
			LogMaxSizeMB:      10,
		},
		Resolver: ResolverSettings{
			Enabled:     true,
			Method:      http.MethodGet,
			MaxHops:     10,
			HopTimeout:  3 * time.Second,
			Budget:      8 * time.Second,
			UserAgent:   "", // Empty means use default UA
			EnableHTTP2: true,
		},
	}
}

// GetSettingsPath returns the path to the settings JSON file.
func GetSettingsPath() string {
	return filepath.Join(GetConfigDir(), "settings.json")
}

// LoadSettings loads settings from disk. Returns defaults if file doesn't exist.
func LoadSettings() (*Settings, error) {
	return LoadSettingsFile(GetSettingsPath())
}

// LoadSettingsFile loads and validates settings from path. Fields missing
// from the file keep their defaults.
func LoadSettingsFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	settings := DefaultSettings() // Start with defaults to fill any missing fields
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return settings, nil
}

// Set changes one setting, named by its JSON key with an optional category
// prefix ("max_hops" or "resolver.max_hops"). s is left unchanged when the
// value does not parse or the result fails validation.
func (s *Settings) Set(key, value string) error {
	category, meta, ok := findSetting(key)
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	v, err := parseSettingValue(meta, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: %w", meta.Key, err)
	}

	doc, err := json.Marshal(map[string]map[string]any{
		jsonSection(category): {meta.Key: v},
	})
	if err != nil {
		return err
	}
	updated := *s
	if err := json.Unmarshal(doc, &updated); err != nil {
		return fmt.Errorf("%s: %w", meta.Key, err)
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	*s = updated
	return nil
}

// findSetting resolves a key to its category and metadata.
func findSetting(key string) (string, SettingMeta, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	prefix, name, qualified := strings.Cut(key, ".")
	meta := GetSettingsMetadata()
	for _, category := range CategoryOrder() {
		if qualified && prefix != jsonSection(category) {
			continue
		}
		if !qualified {
			name = key
		}
		for _, m := range meta[category] {
			if m.Key == name {
				return category, m, true
			}
		}
	}
	return "", SettingMeta{}, false
}

func parseSettingValue(meta SettingMeta, value string) (any, error) {
	switch meta.Type {
	case "bool":
		return strconv.ParseBool(value)
	case "int":
		return strconv.Atoi(value)
	case "duration":
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	}

	switch meta.Key {
	case "log_format":
		f, err := logger.ParseFormat(value)
		return string(f), err
	case "log_level":
		level, err := logger.ParseLevel(value)
		return level.String(), err
	case "method":
		return strings.ToUpper(value), nil
	}
	return value, nil
}

// SaveSettings saves settings to disk atomically.
func SaveSettings(s *Settings) error {
	return SaveSettingsFile(s, GetSettingsPath())
}

// SaveSettingsFile writes s to path atomically.
func SaveSettingsFile(s *Settings, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: write to temp file, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tempPath, path)
}

// MatchersPath returns the matcher definitions file to load, or "" for the
// built-in definitions. An explicitly configured file must exist.
func (s *Settings) MatchersPath() (string, error) {
	if s.General.MatchersFile != "" {
		if _, err := os.Stat(s.General.MatchersFile); err != nil {
			return "", fmt.Errorf("matchers_file: %w", err)
		}
		return s.General.MatchersFile, nil
	}
	path := GetMatchersPath()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return "", nil
}

// ResolverOptions converts the resolver settings for the resolver package.
func (s *Settings) ResolverOptions(version string) resolver.Options {
	return resolver.Options{
		Method:      s.Resolver.Method,
		MaxHops:     s.Resolver.MaxHops,
		HopTimeout:  s.Resolver.HopTimeout,
		Budget:      s.Resolver.Budget,
		UserAgent:   s.Resolver.UserAgent,
		Version:     version,
		EnableHTTP2: s.Resolver.EnableHTTP2,
	}
}

// LoggerConfig converts the logging settings. File logging goes to the
// logs directory.
func (s *Settings) LoggerConfig() logger.Config {
	level, err := logger.ParseLevel(s.General.LogLevel)
	if err != nil {
		level = logger.DefaultConfig().Level
	}
	format, err := logger.ParseFormat(s.General.LogFormat)
	if err != nil {
		format = logger.DefaultConfig().Format
	}
	return logger.Config{
		Level:      level,
		Format:     format,
		Console:    true,
		File:       filepath.Join(GetLogsDir(), logger.FileName),
		MaxSizeMB:  s.General.LogMaxSizeMB,
		MaxBackups: s.General.LogRetentionCount,
	}
}

// Values flattens the settings into category -> key -> value, using the
// same keys as the JSON file.
func (s *Settings) Values() (map[string]map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]map[string]any, len(raw))
	for _, category := range CategoryOrder() {
		out[category] = raw[jsonSection(category)]
	}
	return out, nil
}

func jsonSection(category string) string {
	switch category {
	case "General":
		return "general"
	case "Resolver":
		return "resolver"
	}
	return category
}
