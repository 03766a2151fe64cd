package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"botshop/config"
	"botshop/metrics"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Open the store and serve metrics until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), config.Get())
		},
	}
}

// Run initializes and starts the application
func Run(ctx context.Context, cfg *config.Config) error {
	log.WithFields(log.Fields{
		"dataFile":    cfg.DataFile,
		"environment": cfg.Environment,
	}).Info("Starting botshop...")

	registry := metrics.NewRegistry()
	storeMetrics := metrics.NewStoreMetrics(registry)

	a, err := openApp(ctx, cfg, storeMetrics)
	if err != nil {
		return err
	}
	defer a.Close()

	registerEventLogging(a.eventBus)

	var server *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(registry))
		server = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.WithField("addr", cfg.MetricsAddr).Info("Serving metrics")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	go sweepPlans(ctx, a, cfg.PlanSweepInterval)

	log.Infof("Store is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	log.Info("Shutting down...")
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop metrics server: %w", err)
		}
	}
	return nil
}

// sweepPlans periodically marks lapsed plans expired
func sweepPlans(ctx context.Context, a *app, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.users.ExpirePlans(ctx)
			if err != nil {
				log.WithError(err).Error("Plan expiry sweep failed")
				continue
			}
			if n > 0 {
				log.WithField("expired", n).Info("Expired lapsed plans")
			}
		}
	}
}
