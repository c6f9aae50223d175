package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/tillsync/internal/app"
	"go.trai.ch/tillsync/internal/core/domain"
)

func (c *CLI) newTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table <id> <available|occupied|reserved>",
		Short: "Change the status of a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := domain.ParseTableStatus(args[1])
			if err != nil {
				return err
			}
			return c.app.Table(cmd.Context(), app.TableOptions{
				ConfigPath: configPath(cmd),
				TableID:    id,
				Status:     status,
			})
		},
	}
}
