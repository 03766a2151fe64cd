package cmd

import (
	"fmt"

	"botshop/config"
	"botshop/database"

	"github.com/spf13/cobra"
)

// NewRepairCommand creates the repair command
func NewRepairCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Rewrite a missing, incomplete or unreadable store document",
		Long: `Open the store document and write back its repaired form.

An unreadable document is first moved aside to <path>.corrupt-<timestamp>
and replaced by an empty one. Do not run while "botshop run" owns the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Get().DataFile
			db, err := database.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer db.Close()

			switch db.LoadState() {
			case database.LoadStateOK:
				fmt.Fprintf(cmd.OutOrStdout(), "%s is healthy, nothing to do\n", path)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "%s was %s and has been rewritten\n", path, db.LoadState())
			}
			return nil
		},
	}
}
