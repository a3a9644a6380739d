package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "stoptrackingme"

// GetConfigDir returns the directory holding settings.json and
// matchers.yaml.
func GetConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(appData, AppName)
	case "darwin": // MacOS
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", AppName)
	default: // Linux
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, _ := os.UserHomeDir()
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, AppName)
	}
}

// GetStateDir returns the directory for logs and other state. On Linux this
// follows XDG_STATE_HOME, elsewhere it is the config directory.
func GetStateDir() string {
	if runtime.GOOS != "linux" {
		return GetConfigDir()
	}
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, _ := os.UserHomeDir()
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, AppName)
}

// GetRuntimeDir returns the directory for the instance lock.
func GetRuntimeDir() string {
	if runtime.GOOS == "linux" {
		if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
			return filepath.Join(dir, AppName)
		}
	}
	return GetStateDir()
}

// Returns directory for logs
func GetLogsDir() string {
	return filepath.Join(GetStateDir(), "logs")
}

// GetMatchersPath returns the user matcher definitions file. It replaces the
// built-in definitions when present.
func GetMatchersPath() string {
	return filepath.Join(GetConfigDir(), "matchers.yaml")
}

// EnsureDirs creates all required directories
func EnsureDirs() error {
	dirs := []string{GetConfigDir(), GetStateDir(), GetLogsDir(), GetRuntimeDir()}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
