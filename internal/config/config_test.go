package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/build-herald/internal/bitbucket"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REPORTERS_FILE", filepath.Join(dir, "missing.yml"))

	cfg, err := load(viper.New(), filepath.Join(dir, ".env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.LoggerConfig.Level)
	assert.Equal(t, "text", cfg.LoggerConfig.Format)
	assert.Equal(t, 4, cfg.MaxWorkers)
	assert.Equal(t, "build-herald", cfg.Kafka.Group)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, DefaultReporters(), cfg.Reporters)
}

func TestLoad_EnvFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "BITBUCKET_URL=https://bitbucket.example.com\nBITBUCKET_TOKEN=secret\nMAX_WORKERS=8\n")
	reporters := writeFile(t, dir, "reporters.yml", "reporters:\n  - name: legacy\n    type: status\n")
	t.Setenv("REPORTERS_FILE", reporters)
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := load(viper.New(), envFile)
	require.NoError(t, err)

	assert.Equal(t, "https://bitbucket.example.com", cfg.Bitbucket.URL)
	assert.Equal(t, "secret", cfg.Bitbucket.Token)
	assert.Equal(t, 8, cfg.MaxWorkers)
	assert.Equal(t, "debug", cfg.LoggerConfig.Level)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	require.Len(t, cfg.Reporters, 1)
	assert.Equal(t, "legacy", cfg.Reporters[0].Name)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_BrokenReportersFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REPORTERS_FILE", writeFile(t, dir, "reporters.yml", "reporters: [\n"))

	_, err := load(viper.New(), filepath.Join(dir, ".env"))
	assert.ErrorIs(t, err, ErrConfigParsing)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{Port: "8080"},
			MaxWorkers: 2,
			Bitbucket:  BitbucketConfig{URL: "https://bitbucket.example.com", Username: "user", Password: "pass"},
			Reporters:  DefaultReporters(),
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   []string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name: "missing base url and both auth methods",
			mutate: func(c *Config) {
				c.Bitbucket.URL = ""
				c.Bitbucket.Token = "token"
			},
			want: []string{bitbucket.ErrMissingBaseURL.Error(), bitbucket.ErrAuthConflict.Error()},
		},
		{
			name:   "no workers",
			mutate: func(c *Config) { c.MaxWorkers = 0 },
			want:   []string{"MAX_WORKERS must be positive, got 0"},
		},
		{
			name:   "no reporters",
			mutate: func(c *Config) { c.Reporters = nil },
			want:   []string{"at least one reporter must be configured"},
		},
		{
			name: "duplicate and unknown reporters",
			mutate: func(c *Config) {
				c.Reporters = append(c.Reporters,
					ReporterConfig{Name: "bitbucket", Type: TypeStatus},
					ReporterConfig{Name: "other", Type: "slack", Events: []string{"finished", "started"}},
				)
			},
			want: []string{
				`reporter 1: duplicate name "bitbucket"`,
				`reporter "other": unknown type "slack" (expected status, core-api or pr-comment)`,
				`reporter "other": unknown event "started"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			errs := cfg.Validate()

			got := make([]string, 0, len(errs))
			for _, err := range errs {
				got = append(got, err.Error())
			}
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
