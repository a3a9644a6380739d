package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/landaire/stoptrackingme/internal/rules"
)

var matchersCmd = &cobra.Command{
	Use:   "matchers",
	Short: "List the loaded site matchers and global parameters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := initializeGlobalState(setupOptions{})
		if err != nil {
			return err
		}
		printRegistry(cmd.OutOrStdout(), a.registry, a.source)
		return nil
	},
}

func printRegistry(w io.Writer, reg *rules.Registry, source string) {
	fmt.Fprintf(w, "%s %s\n\n", mutedStyle.Render("Loaded from"), source)

	fmt.Fprintln(w, headerStyle.Render("Global"))
	fmt.Fprintf(w, "  %s\n", strings.Join(reg.Global().Patterns(), ", "))

	for _, m := range reg.Matchers() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render(m.Name))

		hosts := make([]string, len(m.Hosts))
		for i, h := range m.Hosts {
			hosts[i] = h.String()
		}
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("hosts:   "), strings.Join(hosts, ", "))
		if len(m.Params) > 0 {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("params:  "), formatRules(m.Params))
		}
		if len(m.Segments) > 0 {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("segments:"), formatRules(m.Segments))
		}
		if m.ResolveRedirect {
			fmt.Fprintf(w, "  %s always\n", labelStyle.Render("resolve: "))
		} else if len(m.ResolvePaths) > 0 {
			paths := make([]string, len(m.ResolvePaths))
			for i, p := range m.ResolvePaths {
				paths[i] = p.String()
			}
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("resolve: "), strings.Join(paths, ", "))
		}
	}
}

func formatRules(rs []rules.Rule) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		switch r.Op {
		case rules.OpReplace:
			parts[i] = fmt.Sprintf("%s=%q", r.Pattern, r.With)
		case rules.OpRequestRedirect:
			parts[i] = r.Pattern.String() + " (redirect)"
		default:
			parts[i] = r.Pattern.String()
		}
	}
	return strings.Join(parts, ", ")
}

func init() {
	rootCmd.AddCommand(matchersCmd)
}
