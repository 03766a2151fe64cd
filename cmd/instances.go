package cmd

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"botshop/config"
	"botshop/models"

	"github.com/spf13/cobra"
)

// NewInstancesCommand creates the instance admin commands
func NewInstancesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instances",
		Short: "Inspect bot instances and report their runtime status",
	}

	cmd.AddCommand(newInstancesListCommand())
	cmd.AddCommand(newInstancesStatusCommand())
	return cmd
}

func newInstancesListCommand() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List instances with their product and key counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), config.Get(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			instances, err := a.catalog.ListInstances(cmd.Context(), owner)
			if err != nil {
				return err
			}
			return printInstances(cmd.OutOrStdout(), instances)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "only show instances of this Discord user")
	return cmd
}

func newInstancesStatusCommand() *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "status <instance-id> <status>",
		Short: "Record a runtime status reported by the bot orchestrator",
		Long: `Record a runtime status reported by the bot orchestrator.

Known statuses: online, offline, erro, suspenso, nao_configurado.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), config.Get(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			instance, err := a.catalog.SetRuntimeStatus(cmd.Context(), args[0], models.RuntimeStatus(args[1]), code)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "instance %s is %s\n", instance.ID, instance.Runtime.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "orchestrator status code")
	return cmd
}

func printInstances(out io.Writer, instances []*models.Instance) error {
	if len(instances) == 0 {
		_, err := fmt.Fprintln(out, "no instances")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOWNER\tNAME\tSTATUS\tPRODUCTS\tKEYS")
	for _, inst := range instances {
		keys := 0
		for _, p := range inst.Products {
			for _, n := range p.Stock.Counts() {
				keys += n
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			inst.ID,
			inst.OwnerDiscordUserID,
			inst.Name,
			inst.Runtime.Status,
			len(inst.Products),
			keys,
		)
	}
	return tw.Flush()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
