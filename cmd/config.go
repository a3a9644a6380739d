package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/landaire/stoptrackingme/internal/config"
)

var configPathCmd = &cobra.Command{
	Use:   "config-path",
	Short: "Print where settings and matcher definitions are read from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Config path: %s\n", config.GetConfigDir())
		fmt.Fprintf(out, "Settings:    %s\n", config.GetSettingsPath())
		fmt.Fprintf(out, "Matchers:    %s\n", config.GetMatchersPath())
		fmt.Fprintf(out, "Logs:        %s\n", config.GetLogsDir())
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the current settings",
	Long: `Show every setting with its current value. Settings are read from
settings.json in the config directory; missing keys use their defaults.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadSettings()
		if err != nil {
			return err
		}
		values, err := settings.Values()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		meta := config.GetSettingsMetadata()
		for i, category := range config.CategoryOrder() {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, headerStyle.Render(category))
			for _, m := range meta[category] {
				fmt.Fprintf(out, "  %s = %v\n", labelStyle.Render(m.Key), formatValue(values[category][m.Key]))
				fmt.Fprintf(out, "    %s\n", mutedStyle.Render(m.Description))
			}
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change one setting and save it to settings.json. Keys are the names shown
by "stoptrackingme config", optionally prefixed with their section
(for example "resolver.max_hops"). A running monitor picks up the change
when it is restarted.`,
	Example: `  stoptrackingme config set poll_interval 1s
  stoptrackingme config set resolver.enabled false`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadSettings()
		if err != nil {
			return err
		}
		if err := settings.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := config.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", okStyle.Render("Saved"), args[0], args[1])
		return nil
	},
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return `""`
	case string:
		if v == "" {
			return `""`
		}
		return v
	case float64:
		// JSON numbers; every numeric setting is an integer
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprint(v)
}

func init() {
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configPathCmd, configCmd)
}
