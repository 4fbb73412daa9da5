package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/genegpt-qa-server/internal/domain"
)

// SQLiteBackend stores clinical-state snapshots as JSON rows in a local
// SQLite database. The default backend.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (and creates if needed) the session database.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	b := &SQLiteBackend{db: db}
	if err := b.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clinical_sessions (
		session_id  TEXT PRIMARY KEY,
		state       TEXT NOT NULL,
		last_access TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_clinical_sessions_last_access
		ON clinical_sessions(last_access);
	`
	if _, err := b.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Load implements Backend
func (b *SQLiteBackend) Load(ctx context.Context, sessionID string) (*domain.ClinicalState, time.Time, error) {
	var (
		raw        string
		lastAccess time.Time
	)
	err := b.db.QueryRowContext(ctx,
		"SELECT state, last_access FROM clinical_sessions WHERE session_id = ?",
		sessionID,
	).Scan(&raw, &lastAccess)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load session: %w", err)
	}

	state := domain.NewClinicalState()
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode session state: %w", err)
	}
	return state, lastAccess, nil
}

// Save implements Backend
func (b *SQLiteBackend) Save(ctx context.Context, sessionID string, state *domain.ClinicalState, lastAccess time.Time) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	_, err = b.db.ExecContext(ctx, `
		INSERT INTO clinical_sessions (session_id, state, last_access)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			state = excluded.state,
			last_access = excluded.last_access`,
		sessionID, string(raw), lastAccess,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete implements Backend
func (b *SQLiteBackend) Delete(ctx context.Context, sessionID string) error {
	if _, err := b.db.ExecContext(ctx,
		"DELETE FROM clinical_sessions WHERE session_id = ?", sessionID,
	); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close implements Backend
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
