package history

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genegpt-qa-server/internal/domain"
)

func testEntry() domain.HistoryEntry {
	return domain.HistoryEntry{
		SessionID:    "s1",
		Question:     "Is BRCA1 c.68_69del pathogenic?",
		QuestionType: domain.QuestionTypeVariant,
		Intent:       domain.IntentVariantQuestion,
		GeneSymbol:   "BRCA1",
		VariantToken: "c.68_69del",
		CreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db, DialectSQLite)
	entry := testEntry()

	mock.ExpectExec("INSERT INTO answer_history").
		WithArgs(entry.SessionID, entry.Question, "variant", "variant_question",
			entry.GeneSymbol, entry.VariantToken, entry.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Record(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db, DialectSQLite)

	mock.ExpectExec("INSERT INTO answer_history").
		WillReturnError(assert.AnError)

	err = store.Record(context.Background(), testEntry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record history entry")
}

func TestBySession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db, DialectSQLite)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "session_id", "question", "question_type", "intent",
		"gene_symbol", "variant_token", "created_at",
	}).
		AddRow(2, "s1", "What about screening?", "gene", "gene_question", "BRCA1", "", now).
		AddRow(1, "s1", "What does BRCA1 do?", "gene", "gene_question", "BRCA1", "", now.Add(-time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM answer_history").
		WithArgs("s1", 10).
		WillReturnRows(rows)

	entries, err := store.BySession(context.Background(), "s1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].ID)
	assert.Equal(t, domain.QuestionTypeGene, entries[0].QuestionType)
	assert.Equal(t, domain.IntentGeneQuestion, entries[0].Intent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBySessionDefaultLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db, DialectSQLite)

	mock.ExpectQuery("SELECT (.+) FROM answer_history").
		WithArgs("s1", defaultListLimit).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "session_id", "question", "question_type", "intent",
			"gene_symbol", "variant_token", "created_at",
		}))

	entries, err := store.BySession(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentPostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db, DialectPostgres)

	mock.ExpectQuery(`LIMIT \$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "session_id", "question", "question_type", "intent",
			"gene_symbol", "variant_token", "created_at",
		}).AddRow(1, "s2", "hello", "general", "general_question", "", "", time.Now()))

	entries, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s2", entries[0].SessionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRebind(t *testing.T) {
	sqlite := NewSQLStore(nil, DialectSQLite)
	postgres := NewSQLStore(nil, DialectPostgres)

	assert.Equal(t, "VALUES (?, ?)", sqlite.rebind("VALUES (?, ?)"))
	assert.Equal(t, "VALUES ($1, $2)", postgres.rebind("VALUES (?, ?)"))
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(t.TempDir() + "/history.db")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	entry := testEntry()
	require.NoError(t, store.Record(ctx, entry))

	second := entry
	second.SessionID = "s2"
	second.CreatedAt = entry.CreatedAt.Add(time.Minute)
	require.NoError(t, store.Record(ctx, second))

	entries, err := store.BySession(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.Question, entries[0].Question)
	assert.Equal(t, "BRCA1", entries[0].GeneSymbol)

	recent, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "s2", recent[0].SessionID)
}
