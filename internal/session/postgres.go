package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/genegpt-qa-server/internal/domain"
)

// PostgresBackend stores clinical-state snapshots in PostgreSQL for
// deployments that share sessions across replicas.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend wraps an existing connection pool. The schema is
// managed by the migrations under migrations/.
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

// Load implements Backend
func (b *PostgresBackend) Load(ctx context.Context, sessionID string) (*domain.ClinicalState, time.Time, error) {
	var (
		raw        []byte
		lastAccess time.Time
	)
	err := b.pool.QueryRow(ctx,
		"SELECT state, last_access FROM clinical_sessions WHERE session_id = $1",
		sessionID,
	).Scan(&raw, &lastAccess)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, time.Time{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load session: %w", err)
	}

	state := domain.NewClinicalState()
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode session state: %w", err)
	}
	return state, lastAccess, nil
}

// Save implements Backend
func (b *PostgresBackend) Save(ctx context.Context, sessionID string, state *domain.ClinicalState, lastAccess time.Time) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	_, err = b.pool.Exec(ctx, `
		INSERT INTO clinical_sessions (session_id, state, last_access)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE SET
			state = EXCLUDED.state,
			last_access = EXCLUDED.last_access`,
		sessionID, raw, lastAccess,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete implements Backend
func (b *PostgresBackend) Delete(ctx context.Context, sessionID string) error {
	if _, err := b.pool.Exec(ctx,
		"DELETE FROM clinical_sessions WHERE session_id = $1", sessionID,
	); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close implements Backend. The pool is owned by the database layer.
func (b *PostgresBackend) Close() error {
	return nil
}
