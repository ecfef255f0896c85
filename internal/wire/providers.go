package wire

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/wire"

	"github.com/sevigo/build-herald/internal/app"
	"github.com/sevigo/build-herald/internal/bitbucket"
	"github.com/sevigo/build-herald/internal/config"
	"github.com/sevigo/build-herald/internal/core"
	"github.com/sevigo/build-herald/internal/db"
	"github.com/sevigo/build-herald/internal/events"
	"github.com/sevigo/build-herald/internal/jobs"
	"github.com/sevigo/build-herald/internal/logger"
	"github.com/sevigo/build-herald/internal/reporter"
	"github.com/sevigo/build-herald/internal/server"
	"github.com/sevigo/build-herald/internal/storage"
	"github.com/sevigo/build-herald/internal/telemetry"
)

var AppSet = wire.NewSet(
	app.NewApp,
	server.NewServer,
	db.NewDatabase,
	jobs.NewNotifyJob,
	provideConfig,
	provideLogger,
	provideDBConfig,
	provideStore,
	provideRecorder,
	provideBitbucketClient,
	provideReporters,
	provideDispatcher,
	provideConsumer,
	wire.Bind(new(core.Job), new(*jobs.NotifyJob)),
	wire.Bind(new(core.EventDispatcher), new(*jobs.Dispatcher)),
)

// provideConfig loads and validates the configuration. Every problem is
// reported at once.
func provideConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return logger.NewLogger(cfg.LoggerConfig, nil)
}

func provideDBConfig(cfg *config.Config) *config.DBConfig {
	return cfg.Database
}

// provideStore returns a nil Store when no database is configured.
func provideStore(conn *db.DB) storage.Store {
	if conn == nil {
		return nil
	}
	return storage.NewStore(conn.DB)
}

func provideRecorder(cfg *config.Config, logger *slog.Logger) (telemetry.Recorder, error) {
	return telemetry.NewRecorder(telemetry.Config{
		WriteKey: cfg.Honeycomb.WriteKey,
		Dataset:  cfg.Honeycomb.Dataset,
	}, logger)
}

func provideBitbucketClient(cfg *config.Config) (*bitbucket.Client, error) {
	return bitbucket.NewClient(cfg.Bitbucket.Options())
}

func provideReporters(
	cfg *config.Config,
	client *bitbucket.Client,
	store storage.Store,
	recorder telemetry.Recorder,
	logger *slog.Logger,
) ([]core.Reporter, error) {
	shared := []reporter.Option{reporter.WithRecorder(recorder)}
	if store != nil {
		shared = append(shared, reporter.WithJournal(store))
	}
	return reporter.BuildAll(cfg.Reporters, client, cfg.Bitbucket.Verbose, logger, shared...)
}

func provideDispatcher(job core.Job, cfg *config.Config, logger *slog.Logger) *jobs.Dispatcher {
	return jobs.NewDispatcher(job, cfg.MaxWorkers, logger)
}

// provideConsumer returns nil when no Kafka brokers are configured.
func provideConsumer(cfg *config.Config, dispatcher core.EventDispatcher, logger *slog.Logger) (*events.Consumer, error) {
	if !cfg.Kafka.Enabled() {
		return nil, nil
	}
	return events.NewConsumer(events.KafkaConfig{
		Brokers:     cfg.Kafka.Brokers,
		Group:       cfg.Kafka.Group,
		TopicPrefix: cfg.Kafka.TopicPrefix,
	}, dispatcher, logger)
}
