package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"botshop/config"
	"botshop/models"

	"github.com/spf13/cobra"
)

// NewWithdrawalsCommand creates the withdrawals admin commands
func NewWithdrawalsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdrawals",
		Short: "Review and resolve seller withdrawals",
	}

	cmd.AddCommand(newWithdrawalsListCommand())
	cmd.AddCommand(newWithdrawalsCompleteCommand())
	cmd.AddCommand(newWithdrawalsRejectCommand())
	return cmd
}

func newWithdrawalsListCommand() *cobra.Command {
	var owner string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending withdrawals, oldest first",
		Example: `  botshop withdrawals list
  botshop withdrawals list --owner 290926444748734465 --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), config.Get(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			var withdrawals []*models.Withdrawal
			if owner != "" {
				withdrawals, err = a.ledger.ListWithdrawals(cmd.Context(), owner)
			} else {
				withdrawals, err = a.ledger.PendingWithdrawals(cmd.Context())
			}
			if err != nil {
				return err
			}

			if !all {
				pending := withdrawals[:0]
				for _, w := range withdrawals {
					if w.IsPending() {
						pending = append(pending, w)
					}
				}
				withdrawals = pending
			}
			return printWithdrawals(cmd.OutOrStdout(), withdrawals)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "only show withdrawals of this Discord user")
	cmd.Flags().BoolVar(&all, "all", false, "include resolved withdrawals (with --owner)")
	return cmd
}

func newWithdrawalsCompleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <withdrawal-id>",
		Short: "Mark a pending withdrawal as paid out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), config.Get(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			w, err := a.ledger.CompleteWithdrawal(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "withdrawal %s completed (%s)\n", w.ID, formatCents(w.AmountCents))
			return nil
		},
	}
}

func newWithdrawalsRejectCommand() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reject <withdrawal-id>",
		Short: "Reject a pending withdrawal and refund the seller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), config.Get(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			w, err := a.ledger.RejectWithdrawal(cmd.Context(), args[0], reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "withdrawal %s rejected, %s refunded\n", w.ID, formatCents(w.AmountCents))
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "reason shown to the seller")
	return cmd
}

func printWithdrawals(out io.Writer, withdrawals []*models.Withdrawal) error {
	if len(withdrawals) == 0 {
		_, err := fmt.Fprintln(out, "no withdrawals")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOWNER\tAMOUNT\tPIX\tSTATUS\tREQUESTED")
	for _, w := range withdrawals {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s (%s)\t%s\t%s\n",
			w.ID,
			w.OwnerDiscordUserID,
			formatCents(w.AmountCents),
			w.PixKey,
			w.PixKeyType,
			w.Status,
			w.CreatedAt.Format(time.RFC3339),
		)
	}
	return tw.Flush()
}

// formatCents renders an amount in cents as BRL
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%sR$ %d,%02d", sign, cents/100, cents%100)
}
