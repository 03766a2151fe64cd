package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"botshop/cmd"

	log "github.com/sirupsen/logrus"
)

func main() {
	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.NewRootCommand().ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("botshop failed")
		cancel()
		os.Exit(1)
	}
}
