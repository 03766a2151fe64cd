package cmd

import (
	"context"
	"fmt"

	"botshop/config"
	"botshop/database"
	"botshop/events"
	"botshop/metrics"
	"botshop/repository"
	"botshop/service"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	DataFile string
}

// NewRootCommand creates the botshop command tree
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "botshop",
		Short:         "Store and ledger for Discord bot shops",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if opts.DataFile != "" {
				cfg.DataFile = opts.DataFile
			}
			return cfg.ConfigureLogging()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DataFile, "data", "", "path to the store document (overrides DATA_FILE)")

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewWithdrawalsCommand())
	cmd.AddCommand(NewUsersCommand())
	cmd.AddCommand(NewInstancesCommand())
	cmd.AddCommand(NewStockCommand())
	cmd.AddCommand(NewDumpCommand())
	cmd.AddCommand(NewRepairCommand())

	return cmd
}

// app bundles an open store with the services built on it
type app struct {
	db        *database.DB
	eventBus  *events.Bus
	users     service.UserService
	ledger    service.LedgerService
	catalog   service.CatalogService
	inventory service.InventoryService
}

func openApp(ctx context.Context, cfg *config.Config, m *metrics.StoreMetrics) (*app, error) {
	db, err := database.Open(ctx, cfg.DataFile, database.WithMetrics(m))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	return &app{
		db:        db,
		eventBus:  eventBus,
		users:     service.NewUserService(uowFactory, cfg),
		ledger:    service.NewLedgerService(uowFactory, cfg),
		catalog:   service.NewCatalogService(uowFactory),
		inventory: service.NewInventoryService(uowFactory),
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}
