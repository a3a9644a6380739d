package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/landaire/stoptrackingme/internal/config"
	"github.com/landaire/stoptrackingme/internal/rules"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check matcher definitions for errors",
	Long: `Load matcher definitions and report every problem found. Without a file,
the definitions the monitor would use are checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			reg    *rules.Registry
			source string
			err    error
		)
		if len(args) == 1 {
			source = args[0]
			reg, err = rules.LoadFile(source)
		} else {
			settings, serr := config.LoadSettings()
			if serr != nil {
				return serr
			}
			reg, source, err = loadRegistry(settings)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d matchers, %d global patterns\n",
			okStyle.Render("OK"), source, len(reg.Matchers()), len(reg.Global().Patterns()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
