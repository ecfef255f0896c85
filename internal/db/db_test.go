package db

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/build-herald/internal/config"
)

func TestNewDatabase_JournalDisabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.DBConfig
	}{
		{name: "no database section", cfg: nil},
		{name: "empty url", cfg: &config.DBConfig{MaxOpenConns: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			db, cleanup, err := NewDatabase(tt.cfg, logger)
			require.NoError(t, err)
			require.NotNil(t, cleanup)
			assert.Nil(t, db)
			assert.NotPanics(t, cleanup)
			assert.Contains(t, buf.String(), "build state journal disabled")
		})
	}
}

func TestNewDatabase_InvalidURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	db, cleanup, err := NewDatabase(&config.DBConfig{URL: "postgres://%zz"}, logger)
	require.Error(t, err)
	assert.Nil(t, db)
	assert.NotPanics(t, cleanup)
}
