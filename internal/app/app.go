// Package app orchestrates the long-running components of build-herald: the
// HTTP ingestion server, the optional Kafka consumer and the event dispatcher
// feeding the reporters.
package app

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/build-herald/internal/config"
	"github.com/sevigo/build-herald/internal/core"
	"github.com/sevigo/build-herald/internal/events"
	"github.com/sevigo/build-herald/internal/jobs"
	"github.com/sevigo/build-herald/internal/reporter"
	"github.com/sevigo/build-herald/internal/server"
	"github.com/sevigo/build-herald/internal/telemetry"
)

// App holds the main application components.
type App struct {
	cfg        *config.Config
	server     *server.Server
	consumer   *events.Consumer
	dispatcher *jobs.Dispatcher
	reporters  []core.Reporter
	recorder   telemetry.Recorder
	logger     *slog.Logger
}

// NewApp assembles the application. consumer may be nil when no Kafka brokers
// are configured.
func NewApp(
	cfg *config.Config,
	srv *server.Server,
	consumer *events.Consumer,
	dispatcher *jobs.Dispatcher,
	reporters []core.Reporter,
	recorder telemetry.Recorder,
	logger *slog.Logger,
) *App {
	names := make([]string, 0, len(reporters))
	for _, r := range reporters {
		names = append(names, r.Name())
	}
	logger.Info("build-herald initialized",
		"reporters", names,
		"max_workers", cfg.MaxWorkers,
		"kafka", consumer != nil)

	return &App{
		cfg:        cfg,
		server:     srv,
		consumer:   consumer,
		dispatcher: dispatcher,
		reporters:  reporters,
		recorder:   recorder,
		logger:     logger,
	}
}

// Start runs the HTTP server and, when configured, the Kafka consumer. It
// blocks until Stop is called or one of them fails.
func (a *App) Start(ctx context.Context) error {
	a.logger.Info("starting build-herald",
		"server_port", a.cfg.Server.Port,
		"bitbucket", a.cfg.Bitbucket.URL)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(a.server.Start)
	if a.consumer != nil {
		g.Go(func() error {
			return a.consumer.Run(ctx)
		})
	}

	err := g.Wait()
	if err != nil {
		a.logger.Error("build-herald stopped unexpectedly", "error", err)
	}
	return err
}

// Stop shuts down the application cleanly. Sources stop first so no event is
// accepted after the dispatcher drains.
func (a *App) Stop() error {
	a.logger.Info("shutting down build-herald services")

	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
	}
	if a.consumer != nil {
		a.consumer.Close()
	}

	a.dispatcher.Stop()
	a.recorder.Close()

	for _, r := range a.reporters {
		if d, ok := r.(*reporter.Dispatcher); ok {
			stats := d.Stats()
			a.logger.Info("reporter totals",
				"reporter", d.Name(),
				"delivered", stats.Delivered,
				"dropped", stats.Dropped,
				"failed", stats.Failed,
				"errors", stats.Errors)
		}
	}

	if serverErr != nil {
		return serverErr
	}
	a.logger.Info("build-herald stopped successfully")
	return nil
}
