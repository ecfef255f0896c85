package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sevigo/build-herald/internal/wire"
)

func main() {
	if err := run(); err != nil {
		slog.Error("build-herald stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := wire.InitializeApp()
	if err != nil {
		return fmt.Errorf("failed to assemble dispatcher: %w", err)
	}
	defer cleanup()

	// Start returns when the ingestion endpoint or the Kafka consumer fails,
	// or when ctx is cancelled by a signal.
	errc := make(chan error, 1)
	go func() { errc <- app.Start(ctx) }()

	var startErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining queued build events")
	case startErr = <-errc:
		if startErr != nil {
			slog.Error("event intake failed, shutting down", "error", startErr)
		}
	}
	stop()

	if err := app.Stop(); err != nil {
		return fmt.Errorf("failed to stop dispatcher cleanly: %w", err)
	}
	return startErr
}
