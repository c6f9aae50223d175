package commands

import (
	"strconv"

	"github.com/spf13/cobra"
	"go.trai.ch/tillsync/internal/app"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newOrderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order <id> <event>",
		Short: "Fire an event on an order",
		Long:  "Fire an event on an order: confirm, start_cooking, mark_ready, deliver or cancel.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ev, err := domain.ParseEvent(args[1])
			if err != nil {
				return err
			}
			roleName, _ := cmd.Flags().GetString("role")
			role, err := domain.ParseRole(roleName)
			if err != nil {
				return err
			}
			return c.app.Order(cmd.Context(), app.OrderOptions{
				ConfigPath: configPath(cmd),
				Role:       role,
				OrderID:    id,
				Event:      ev,
			})
		},
	}
	cmd.Flags().StringP("role", "r", string(domain.RoleCashier), "Role firing the event: kitchen, waiter or cashier")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, zerr.With(zerr.New("id must be a positive number"), "id", s)
	}
	return id, nil
}
