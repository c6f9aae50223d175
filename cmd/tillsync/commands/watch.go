package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/tillsync/internal/app"
	"go.trai.ch/tillsync/internal/core/domain"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "watch <kitchen|waiter|cashier>",
		Short:     "Show the live board of a role",
		Long:      "Show the live board of a role. Press r or F5 to refresh and q to quit.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.RoleKitchen), string(domain.RoleWaiter), string(domain.RoleCashier)},
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := domain.ParseRole(args[0])
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")
			return c.app.Watch(cmd.Context(), app.WatchOptions{
				ConfigPath: configPath(cmd),
				Role:       role,
				OutputMode: output,
			})
		},
	}
	cmd.Flags().StringP("output", "o", "auto", "Output mode: auto, tui or linear")
	return cmd
}
