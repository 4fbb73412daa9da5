package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/genegpt-qa-server/internal/domain"
)

// Store is the answer audit log: every answered question is appended and
// can be listed per session for review.
type Store interface {
	Record(ctx context.Context, entry domain.HistoryEntry) error
	BySession(ctx context.Context, sessionID string, limit int) ([]domain.HistoryEntry, error)
	Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
	Close() error
}

// Dialect selects the SQL placeholder style.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const defaultListLimit = 50

// SQLStore implements Store on database/sql, shared by the SQLite and
// PostgreSQL backends.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore wraps an open database handle. Schema setup is the
// caller's concern (migrations for postgres, ensureSchema for sqlite).
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// rebind converts ? placeholders to $N for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Record appends one answered question.
func (s *SQLStore) Record(ctx context.Context, entry domain.HistoryEntry) error {
	query := s.rebind(`
		INSERT INTO answer_history (session_id, question, question_type, intent, gene_symbol, variant_token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		entry.SessionID,
		entry.Question,
		string(entry.QuestionType),
		string(entry.Intent),
		entry.GeneSymbol,
		entry.VariantToken,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record history entry: %w", err)
	}
	return nil
}

// BySession lists a session's answered questions, newest first.
func (s *SQLStore) BySession(ctx context.Context, sessionID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := s.rebind(`
		SELECT id, session_id, question, question_type, intent, gene_symbol, variant_token, created_at
		FROM answer_history
		WHERE session_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Recent lists the newest answered questions across all sessions.
func (s *SQLStore) Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := s.rebind(`
		SELECT id, session_id, question, question_type, intent, gene_symbol, variant_token, created_at
		FROM answer_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Close releases the underlying handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func scanEntries(rows *sql.Rows) ([]domain.HistoryEntry, error) {
	entries := []domain.HistoryEntry{}
	for rows.Next() {
		var entry domain.HistoryEntry
		var questionType, intent string
		if err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&entry.Question,
			&questionType,
			&intent,
			&entry.GeneSymbol,
			&entry.VariantToken,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entry.QuestionType = domain.QuestionType(questionType)
		entry.Intent = domain.Intent(intent)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return entries, nil
}
