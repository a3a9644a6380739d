package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/landaire/stoptrackingme/internal/config"
	"github.com/landaire/stoptrackingme/internal/logger"
	"github.com/landaire/stoptrackingme/internal/pipeline"
	"github.com/landaire/stoptrackingme/internal/resolver"
	"github.com/landaire/stoptrackingme/internal/rules"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stoptrackingme",
	Short: "Strips tracking parameters from URLs copied to the clipboard",
	Long: `stoptrackingme watches the clipboard and replaces copied URLs with a copy
that has tracking parameters removed. Share links that only exist to track
you are followed to the page they point to.

Running without a command is the same as "stoptrackingme run".`,
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMonitor(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate("stoptrackingme version {{.Version}}\n")
}

// app is the state shared by commands that clean URLs.
type app struct {
	settings *config.Settings
	logger   zerolog.Logger
	registry *rules.Registry
	source   string // where the matcher definitions came from
}

// setupOptions controls how much of the environment a command needs.
type setupOptions struct {
	// consoleLog mirrors log lines to stderr. One-shot commands only log to
	// the file so their output stays readable.
	consoleLog bool
}

// initializeGlobalState prepares directories, settings, logging and the
// matcher registry. Any invalid setting or matcher definition is fatal.
func initializeGlobalState(opts setupOptions) (*app, error) {
	if err := config.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}

	logCfg := settings.LoggerConfig()
	logCfg.Console = opts.consoleLog
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	registry, source, err := loadRegistry(settings)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("source", source).Int("matchers", len(registry.Matchers())).Msg("Loaded matcher definitions")

	return &app{
		settings: settings,
		logger:   log,
		registry: registry,
		source:   source,
	}, nil
}

// loadRegistry loads the configured matcher definitions, falling back to
// the built-in ones when no user file exists.
func loadRegistry(settings *config.Settings) (*rules.Registry, string, error) {
	path, err := settings.MatchersPath()
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		reg, err := rules.Default()
		return reg, rules.DefaultSource, err
	}
	reg, err := rules.LoadFile(path)
	return reg, path, err
}

// pipeline builds the rewrite pipeline. Redirect resolution is left out
// when disabled in the settings or by the caller.
func (a *app) pipeline(resolve bool) *pipeline.Pipeline {
	var res pipeline.Resolver
	if resolve && a.settings.Resolver.Enabled {
		res = resolver.New(nil, a.settings.ResolverOptions(Version), a.logger)
	}
	return pipeline.New(a.registry, res, a.logger)
}
