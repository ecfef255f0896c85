// Package storage persists the build state journal: the last lifecycle
// transition each reporter pushed for a build.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// import db drivers
	_ "github.com/lib/pq"

	"github.com/sevigo/build-herald/internal/core"
)

// ErrNotFound is returned when no state is recorded for a build.
var ErrNotFound = errors.New("build state not found")

// Store defines the interface for all database operations.
//
//go:generate mockgen -destination=../../mocks/mock_store.go -package=mocks . Store
type Store interface {
	SaveBuildState(ctx context.Context, state *core.BuildState) error
	GetBuildStates(ctx context.Context, buildID int64) ([]core.BuildState, error)
	ListRecentBuildStates(ctx context.Context, limit int) ([]core.BuildState, error)
}

type postgresStore struct {
	db *sqlx.DB
}

// NewStore creates a new Store
func NewStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

// SaveBuildState upserts the state a reporter pushed for a build. A repeated
// finished transition overwrites the previous one.
func (s *postgresStore) SaveBuildState(ctx context.Context, state *core.BuildState) error {
	query := `
		INSERT INTO build_states (reporter, build_id, builder_name, build_number, lifecycle, remote_state, revision, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (reporter, build_id) DO UPDATE SET
			builder_name = EXCLUDED.builder_name,
			build_number = EXCLUDED.build_number,
			lifecycle = EXCLUDED.lifecycle,
			remote_state = EXCLUDED.remote_state,
			revision = EXCLUDED.revision,
			updated_at = EXCLUDED.updated_at`
	_, err := s.db.ExecContext(ctx, query,
		state.Reporter, state.BuildID, state.BuilderName, state.BuildNumber,
		state.Lifecycle, state.RemoteState, state.Revision, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save build state for build %d: %w", state.BuildID, err)
	}
	return nil
}

// GetBuildStates returns the states every reporter recorded for a build.
func (s *postgresStore) GetBuildStates(ctx context.Context, buildID int64) ([]core.BuildState, error) {
	query := `
		SELECT id, reporter, build_id, builder_name, build_number, lifecycle, remote_state, revision, updated_at
		FROM build_states
		WHERE build_id = $1
		ORDER BY reporter`

	var states []core.BuildState
	if err := s.db.SelectContext(ctx, &states, query, buildID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(states) == 0 {
		return nil, ErrNotFound
	}
	return states, nil
}

// ListRecentBuildStates returns the most recently updated states.
func (s *postgresStore) ListRecentBuildStates(ctx context.Context, limit int) ([]core.BuildState, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, reporter, build_id, builder_name, build_number, lifecycle, remote_state, revision, updated_at
		FROM build_states
		ORDER BY updated_at DESC
		LIMIT $1`

	var states []core.BuildState
	if err := s.db.SelectContext(ctx, &states, query, limit); err != nil {
		return nil, err
	}
	return states, nil
}
