package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/landaire/stoptrackingme/internal/service"
)

var newServiceManager = func() (*service.Manager, error) {
	return service.New(service.Options{})
}

// serviceCommand builds a command that runs one service action and prints
// done on success.
func serviceCommand(use, short, failure string, action func(*service.Manager) error, done func(*service.Manager) string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newServiceManager()
			if err != nil {
				return err
			}
			if err := action(m); err != nil {
				return fmt.Errorf("%s: %w", failure, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), done(m))
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(
		serviceCommand("install-service", "Install stoptrackingme as a background service for the current user",
			"failed to install service", (*service.Manager).Install,
			func(m *service.Manager) string {
				return fmt.Sprintf("Successfully installed service %q. You can now start it with:\nstoptrackingme start-service",
					m.Name())
			}),
		serviceCommand("uninstall-service", "Stop and remove the background service",
			"failed to uninstall service", (*service.Manager).Uninstall,
			func(*service.Manager) string { return "Successfully uninstalled service" }),
		serviceCommand("start-service", "Start the installed background service",
			"failed to start service", (*service.Manager).Start,
			func(*service.Manager) string { return "Successfully started service" }),
		serviceCommand("stop-service", "Stop the running background service",
			"failed to stop service", (*service.Manager).Stop,
			func(*service.Manager) string { return "Successfully stopped service" }),
	)
}
