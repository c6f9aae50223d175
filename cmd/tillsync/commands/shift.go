package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/tillsync/internal/core/domain"
)

func (c *CLI) newShiftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shift",
		Short: "Open or close the cashier shift",
	}

	open := &cobra.Command{
		Use:   "open",
		Short: "Open a shift",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, _ := cmd.Flags().GetString("balance")
			balance, err := domain.ParseMoney(raw)
			if err != nil {
				return err
			}
			return c.app.ShiftOpen(cmd.Context(), configPath(cmd), balance)
		},
	}
	open.Flags().StringP("balance", "b", "", "Opening cash balance, e.g. 150000.00")
	_ = open.MarkFlagRequired("balance")

	closeCmd := &cobra.Command{
		Use:   "close",
		Short: "Close the active shift",
		Long:  "Close the active shift after checking its totals against the completed orders.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var closing *domain.Money
			if cmd.Flags().Changed("balance") {
				raw, _ := cmd.Flags().GetString("balance")
				m, err := domain.ParseMoney(raw)
				if err != nil {
					return err
				}
				closing = &m
			}
			return c.app.ShiftClose(cmd.Context(), configPath(cmd), closing)
		},
	}
	closeCmd.Flags().StringP("balance", "b", "", "Counted closing balance (default: the expected total)")

	cmd.AddCommand(open, closeCmd)
	return cmd
}
