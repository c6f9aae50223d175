package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/tillsync/internal/app"
)

func (c *CLI) newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh [resource...]",
		Short: "Fetch resources once and print them",
		Long: "Fetch resources once and print them. Without arguments the live resources are fetched: " +
			strings.Join(app.LiveResources, ", ") + ".",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Refresh(cmd.Context(), app.RefreshOptions{
				ConfigPath: configPath(cmd),
				Resources:  args,
			})
		},
	}
}
