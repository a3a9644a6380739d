package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/landaire/stoptrackingme/internal/clipboard"
	"github.com/landaire/stoptrackingme/internal/pipeline"
)

// ErrNoClipboardURL is returned by clean when no URL is given and the
// clipboard does not hold one.
var ErrNoClipboardURL = errors.New("clipboard does not contain a URL")

var cleanCmd = &cobra.Command{
	Use:   "clean [url]...",
	Short: "Clean URLs once and print the result",
	Long: `Clean the given URLs, or the URL currently on the clipboard when none are
given, and print one result per line. The clipboard is never modified.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		noResolve, _ := cmd.Flags().GetBool("no-resolve")

		inputs := args
		if len(inputs) == 0 {
			url := clipboard.ReadURL()
			if url == "" {
				return ErrNoClipboardURL
			}
			inputs = []string{url}
		}

		a, err := initializeGlobalState(setupOptions{})
		if err != nil {
			return err
		}
		p := a.pipeline(!noResolve)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		failed := 0
		for _, input := range inputs {
			tr := p.Explain(ctx, input)
			if !tr.Parsed {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s not a URL: %q\n", errorStyle.Render("Error:"), input)
				continue
			}
			if verbose {
				printTrace(out, tr)
				continue
			}
			fmt.Fprintln(out, tr.Result.String())
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d inputs were not URLs", failed, len(inputs))
		}
		return nil
	},
}

// printTrace shows every pipeline step for one input.
func printTrace(w io.Writer, tr pipeline.Trace) {
	fmt.Fprintln(w, headerStyle.Render(tr.Input))
	for _, step := range tr.Steps {
		line := step.URL
		if step.Detail != "" {
			if line != "" {
				line += " "
			}
			line += mutedStyle.Render("(" + step.Detail + ")")
		}
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%-8s", step.Stage)), line)
	}

	status := mutedStyle.Render("unchanged")
	if tr.Changed {
		status = okStyle.Render("cleaned")
	}
	fmt.Fprintf(w, "  %s %s %s\n\n", labelStyle.Render(fmt.Sprintf("%-8s", "result")), tr.Result.String(), status)
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolP("verbose", "v", false, "Show every step taken for each URL")
	cleanCmd.Flags().Bool("no-resolve", false, "Do not follow share links, only strip parameters")
}
