package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/build-herald/internal/bitbucket"
	"github.com/sevigo/build-herald/internal/logger"
)

// Config holds the application's configuration values.
type Config struct {
	Server        ServerConfig
	LoggerConfig  logger.Config
	MaxWorkers    int
	ReportersFile string
	Bitbucket     BitbucketConfig
	Kafka         KafkaConfig
	Database      *DBConfig
	Honeycomb     HoneycombConfig
	Reporters     []ReporterConfig
}

// ServerConfig configures the HTTP ingestion endpoint.
type ServerConfig struct {
	Port string
	// IngestToken, when set, must be sent in the X-Herald-Token header.
	IngestToken string
}

// BitbucketConfig holds the connection settings shared by all reporters.
type BitbucketConfig struct {
	URL      string
	Username string
	Password string
	Token    string
	Verbose  bool
}

// Options converts the settings into client options.
func (b BitbucketConfig) Options() bitbucket.Options {
	return bitbucket.Options{
		BaseURL:  b.URL,
		Username: b.Username,
		Password: b.Password,
		Token:    b.Token,
	}
}

// KafkaConfig configures the optional Kafka event source.
type KafkaConfig struct {
	Brokers     []string
	Group       string
	TopicPrefix string
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// DBConfig configures the optional build state journal database.
type DBConfig struct {
	URL             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// HoneycombConfig configures the optional telemetry sink.
type HoneycombConfig struct {
	WriteKey string
	Dataset  string
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults and loads the reporter definitions. The result is not
// validated; call Validate before starting anything.
func LoadConfig() (*Config, error) {
	return load(viper.New(), ".env")
}

func load(v *viper.Viper, envFile string) (*Config, error) {
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("MAX_WORKERS", 4)
	v.SetDefault("REPORTERS_FILE", "reporters.yml")
	v.SetDefault("KAFKA_GROUP", "build-herald")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")
	v.SetDefault("HONEYCOMB_DATASET", "build-herald")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("SERVER_PORT"),
			IngestToken: v.GetString("INGEST_TOKEN"),
		},
		LoggerConfig: logger.Config{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: v.GetString("LOG_FORMAT"),
			Output: v.GetString("LOG_OUTPUT"),
			File:   v.GetString("LOG_FILE"),
		},
		MaxWorkers:    v.GetInt("MAX_WORKERS"),
		ReportersFile: v.GetString("REPORTERS_FILE"),
		Bitbucket: BitbucketConfig{
			URL:      v.GetString("BITBUCKET_URL"),
			Username: v.GetString("BITBUCKET_USERNAME"),
			Password: v.GetString("BITBUCKET_PASSWORD"),
			Token:    v.GetString("BITBUCKET_TOKEN"),
			Verbose:  v.GetBool("BITBUCKET_VERBOSE"),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			Group:       v.GetString("KAFKA_GROUP"),
			TopicPrefix: v.GetString("KAFKA_TOPIC_PREFIX"),
		},
		Database: &DBConfig{
			URL:             v.GetString("DATABASE_URL"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
		Honeycomb: HoneycombConfig{
			WriteKey: v.GetString("HONEYCOMB_WRITE_KEY"),
			Dataset:  v.GetString("HONEYCOMB_DATASET"),
		},
	}

	reporters, err := LoadReporters(cfg.ReportersFile)
	switch {
	case errors.Is(err, ErrConfigNotFound):
		slog.Debug("no reporters file found, using the default reporter", "path", cfg.ReportersFile)
	case err != nil:
		return nil, err
	}
	cfg.Reporters = reporters

	return cfg, nil
}

// Validate returns every configuration problem. An empty result means the
// dispatcher may be started.
func (c *Config) Validate() []error {
	var errs []error
	errs = append(errs, c.Bitbucket.Options().Validate()...)
	if c.MaxWorkers <= 0 {
		errs = append(errs, fmt.Errorf("MAX_WORKERS must be positive, got %d", c.MaxWorkers))
	}
	if c.Server.Port == "" {
		errs = append(errs, fmt.Errorf("SERVER_PORT must be set"))
	}
	if len(c.Reporters) == 0 {
		errs = append(errs, fmt.Errorf("at least one reporter must be configured"))
	}

	seen := make(map[string]bool, len(c.Reporters))
	for i, r := range c.Reporters {
		if seen[r.Name] {
			errs = append(errs, fmt.Errorf("reporter %d: duplicate name %q", i, r.Name))
		}
		seen[r.Name] = true
		for _, err := range r.Validate() {
			errs = append(errs, fmt.Errorf("reporter %q: %w", r.Name, err))
		}
	}
	return errs
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
