package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/landaire/stoptrackingme/internal/clipboard"
	"github.com/landaire/stoptrackingme/internal/monitor"
	"github.com/landaire/stoptrackingme/internal/service"
)

// ErrAlreadyRunning is returned when another monitor holds the instance lock.
var ErrAlreadyRunning = errors.New("stoptrackingme is already running")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the clipboard and clean copied URLs",
	Long: `Watch the clipboard until interrupted. Every copied URL is rewritten
without its tracking parameters. This is what the background service runs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runMonitor(cmd *cobra.Command) error {
	a, err := initializeGlobalState(setupOptions{consoleLog: true})
	if err != nil {
		return err
	}

	isMaster, err := AcquireLock()
	if err != nil {
		return fmt.Errorf("error acquiring lock: %w", err)
	}
	if !isMaster {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := ReleaseLock(); err != nil {
			a.logger.Debug().Err(err).Msg("Error releasing lock")
		}
	}()

	clip, err := clipboard.New()
	if err != nil {
		return err
	}

	a.logger.Info().
		Str("version", Version).
		Str("matchers", a.source).
		Bool("resolve_redirects", a.settings.Resolver.Enabled).
		Msg("Starting stoptrackingme")

	m := monitor.New(clip, a.pipeline(true), monitor.Options{
		PollInterval:     a.settings.General.PollInterval,
		CleanOnStart:     a.settings.General.CleanOnStart,
		LogClipboardText: a.settings.General.LogClipboardText,
	}, a.logger)

	if service.Managed() {
		return service.RunManaged(m.Run)
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return m.Run(ctx)
}
