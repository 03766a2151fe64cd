package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"botshop/config"

	"github.com/spf13/cobra"
)

// NewStockCommand creates the stock key admin commands
func NewStockCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Manage redeemable keys of a product",
	}

	cmd.AddCommand(newStockSummaryCommand())
	cmd.AddCommand(newStockAddCommand())
	cmd.AddCommand(newStockClearCommand())
	return cmd
}

func newStockSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <instance-id> <product-id>",
		Short: "Show key counts per bucket",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), config.Get(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			counts, err := a.inventory.StockSummary(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(counts) == 0 {
				_, err := fmt.Fprintln(out, "no stock")
				return err
			}
			for _, bucket := range sortedKeys(counts) {
				fmt.Fprintf(out, "%-20s %d\n", bucket, counts[bucket])
			}
			return nil
		},
	}
}

func newStockAddCommand() *cobra.Command {
	var bucket string
	var file string

	cmd := &cobra.Command{
		Use:   "add <instance-id> <product-id>",
		Short: "Add keys, one per line, read from --file or stdin",
		Example: `  botshop stock add 5f1c... vip --bucket monthly --file keys.txt
  cat keys.txt | botshop stock add 5f1c... vip`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open key file: %w", err)
				}
				defer f.Close()
				in = f
			}
			keys, err := readKeys(in)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), config.Get(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.inventory.AddStockKeys(cmd.Context(), args[0], args[1], bucket, keys)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d added to %s, %d already in bucket, %d in another bucket, %d total\n",
				result.Inserted, result.Bucket, result.SkippedInBucket, result.SkippedElsewhere, result.BucketSize)
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "default", "bucket receiving the keys")
	cmd.Flags().StringVar(&file, "file", "", "file with one key per line (default stdin)")
	return cmd
}

func newStockClearCommand() *cobra.Command {
	var bucket string

	cmd := &cobra.Command{
		Use:   "clear <instance-id> <product-id>",
		Short: "Remove every key of one bucket",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), config.Get(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			removed, err := a.inventory.ClearBucket(cmd.Context(), args[0], args[1], bucket)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d keys removed from %s\n", removed, bucket)
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "bucket to clear")
	_ = cmd.MarkFlagRequired("bucket")
	return cmd
}

// readKeys returns the non-blank lines of r
func readKeys(r io.Reader) ([]string, error) {
	var keys []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			keys = append(keys, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read keys: %w", err)
	}
	return keys, nil
}
