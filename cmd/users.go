package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"botshop/config"

	"github.com/spf13/cobra"
)

// NewUsersCommand creates the users admin commands
func NewUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect sellers",
	}
	cmd.AddCommand(newUsersShowCommand())
	return cmd
}

func newUsersShowCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show <discord-user-id>",
		Short: "Show a seller's plan, wallet and recent ledger entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, config.Get(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.users.GetUser(ctx, args[0])
			if err != nil {
				return err
			}
			balance, err := a.ledger.GetBalance(ctx, user.DiscordUserID)
			if err != nil {
				return err
			}
			txs, err := a.ledger.ListTransactions(ctx, user.DiscordUserID, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User:      %s (%s)\n", user.Username, user.DiscordUserID)
			fmt.Fprintf(out, "Plan:      %s %s", user.Plan.Tier, user.Plan.Status)
			if user.Plan.ExpiresAt != nil {
				fmt.Fprintf(out, " until %s", user.Plan.ExpiresAt.Format(time.RFC3339))
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Wallet:    %s\n", formatCents(balance.WalletCents))
			fmt.Fprintf(out, "Sales:     %s\n", formatCents(balance.SalesCentsTotal))
			fmt.Fprintf(out, "Pending:   %s in %d withdrawal(s)\n", formatCents(balance.PendingWithdrawal), balance.PendingCount)
			if user.HasPayout() {
				fmt.Fprintf(out, "Payout:    %s (%s)\n", user.Payout.PixKey, user.Payout.PixKeyType)
			}

			if len(txs) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tTYPE\tAMOUNT\tBALANCE\tSTATUS")
			for _, tx := range txs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					tx.CreatedAt.Format(time.RFC3339),
					tx.Type,
					formatCents(tx.AmountCents),
					formatCents(tx.BalanceAfter),
					tx.Status,
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of ledger entries to show (0 for all)")
	return cmd
}
