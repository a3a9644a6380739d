// Package service installs the clipboard monitor as a background service
// for the current user: a systemd user unit on Linux, a launchd agent on
// macOS and a Windows service elsewhere.
package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	svc "github.com/kardianos/service"
)

const (
	// Label names the service on every platform.
	Label = "net.landaire.stoptrackingme"
	// RestartDelaySec is how long the service manager waits before
	// restarting a crashed monitor.
	RestartDelaySec = 10
)

// ErrNotInstalled is returned when removing a service that is not installed.
var ErrNotInstalled = errors.New("service is not installed")

// Controller is the part of the platform service the commands drive.
type Controller interface {
	Install() error
	Uninstall() error
	Start() error
	Stop() error
	Status() (svc.Status, error)
}

// Options configures a Manager. Zero values are filled from the running
// process.
type Options struct {
	Platform   string // selects the service definition; runtime.GOOS by default
	Executable string
	Args       []string
	// New creates the platform service from its definition.
	New func(cfg *svc.Config) (Controller, error)
}

// Manager installs and controls the background service.
type Manager struct {
	cfg *svc.Config
	ctl Controller
}

// New returns a Manager for the current platform.
func New(opts Options) (*Manager, error) {
	if opts.Platform == "" {
		opts.Platform = runtime.GOOS
	}
	if opts.Executable == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to find executable: %w", err)
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		opts.Executable = exe
	}
	if opts.Args == nil {
		opts.Args = []string{"run"}
	}
	if opts.New == nil {
		opts.New = newSystemService
	}

	cfg := serviceConfig(opts.Platform, opts.Executable, opts.Args)
	ctl, err := opts.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("background service is not supported here: %w", err)
	}
	return &Manager{cfg: cfg, ctl: ctl}, nil
}

func newSystemService(cfg *svc.Config) (Controller, error) {
	return svc.New(&program{exit: os.Exit}, cfg)
}

// serviceConfig describes the service for platform.
func serviceConfig(platform, exe string, args []string) *svc.Config {
	cfg := &svc.Config{
		Name:        Label,
		DisplayName: "stoptrackingme",
		Description: "Strip tracking parameters from copied URLs",
		Executable:  exe,
		Arguments:   args,
		Option:      svc.KeyValue{},
	}

	switch platform {
	case "windows":
		cfg.Option["OnFailure"] = "restart"
		cfg.Option["OnFailureDelayDuration"] = fmt.Sprintf("%ds", RestartDelaySec)
	case "darwin":
		cfg.Option["UserService"] = true
		cfg.Option["LaunchdConfig"] = launchdConfig
	default:
		cfg.Option["UserService"] = true
		cfg.Option["SystemdScript"] = systemdScript
	}
	return cfg
}

// Name returns the name the service is registered under.
func (m *Manager) Name() string {
	return m.cfg.Name
}

// Install registers the service to start at login. It does not start it.
func (m *Manager) Install() error {
	return m.ctl.Install()
}

// Uninstall stops the service if it is running and removes it.
func (m *Manager) Uninstall() error {
	status, err := m.ctl.Status()
	if errors.Is(err, svc.ErrNotInstalled) {
		return ErrNotInstalled
	}
	if err == nil && status == svc.StatusRunning {
		if err := m.ctl.Stop(); err != nil {
			return fmt.Errorf("failed to stop service: %w", err)
		}
	}
	return m.ctl.Uninstall()
}

// Start starts the installed service.
func (m *Manager) Start() error {
	return m.ctl.Start()
}

// Stop stops the running service.
func (m *Manager) Stop() error {
	return m.ctl.Stop()
}
