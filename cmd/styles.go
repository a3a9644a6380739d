package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/landaire/stoptrackingme/internal/rules"
)

// === Color Palette ===
var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#5d40c9", Dark: "#bd93f9"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "#0073a8", Dark: "#8be9fd"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#4a4a4a", Dark: "#a9b1d6"}
	colorOK     = lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#50fa7b"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#f57c00", Dark: "#ffb86c"}
	colorError  = lipgloss.AdaptiveColor{Light: "#d32f2f", Dark: "#ff5555"}
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	okStyle     = lipgloss.NewStyle().Foreground(colorOK)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarn)
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorError)
)

// printError reports a command failure, one line per matcher problem.
func printError(w io.Writer, err error) {
	problems := rules.Problems(err)
	if len(problems) == 0 {
		fmt.Fprintf(w, "%s %v\n", errorStyle.Render("Error:"), err)
		return
	}
	fmt.Fprintf(w, "%s invalid matcher definitions (%d problems)\n", errorStyle.Render("Error:"), len(problems))
	for _, p := range problems {
		fmt.Fprintf(w, "  %s %s\n", warnStyle.Render("-"), p.Error())
	}
}
