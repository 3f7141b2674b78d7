package datastore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sheetql/sheetql/internal/domain"
)

func newTestAuditStore(t *testing.T) *AuditStore {
	t.Helper()
	return NewAuditStore(filepath.Join(t.TempDir(), "audit.db"))
}

func TestAuditStoreAppendAssignsID(t *testing.T) {
	store := newTestAuditStore(t)

	rows := 5
	log := &domain.QueryLog{
		RequestID:     "req-1",
		CreatedAt:     time.Now().UTC(),
		Question:      "top customers",
		GeneratedSQL:  "SELECT * FROM customers",
		WasSuccessful: true,
		RowsReturned:  &rows,
		Actor:         "alice",
		Origin:        "127.0.0.1",
		Outcome:       domain.OutcomeSuccess,
	}
	require.NoError(t, store.Append(context.Background(), log))
	require.Positive(t, log.ID)

	records, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	require.Equal(t, "req-1", rec.RequestID)
	require.Equal(t, "top customers", rec.Question)
	require.True(t, rec.WasSuccessful)
	require.NotNil(t, rec.RowsReturned)
	require.Equal(t, 5, *rec.RowsReturned)
	require.Equal(t, domain.OutcomeSuccess, rec.Outcome)
}

func TestAuditStoreRecentNewestFirst(t *testing.T) {
	store := newTestAuditStore(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, question := range []string{"first", "second", "third"} {
		log := &domain.QueryLog{
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Question:  question,
			Outcome:   domain.OutcomeSuccess,
		}
		require.NoError(t, store.Append(context.Background(), log))
	}

	records, err := store.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "third", records[0].Question)
	require.Equal(t, "second", records[1].Question)
}

func TestAuditStoreByActor(t *testing.T) {
	store := newTestAuditStore(t)
	for _, actor := range []string{"alice", "bob", "alice"} {
		log := &domain.QueryLog{
			CreatedAt: time.Now().UTC(),
			Question:  "q",
			Actor:     actor,
			Outcome:   domain.OutcomeRejected,
		}
		require.NoError(t, store.Append(context.Background(), log))
	}

	records, err := store.ByActor(context.Background(), "alice", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		require.Equal(t, "alice", rec.Actor)
	}
}

func TestAuditStoreFailedAttemptHasNilRowCount(t *testing.T) {
	store := newTestAuditStore(t)
	log := &domain.QueryLog{
		CreatedAt:    time.Now().UTC(),
		Question:     "drop it",
		GeneratedSQL: "DROP TABLE customers;",
		Error:        `statement contains forbidden pattern "DROP "`,
		Outcome:      domain.OutcomeRejected,
	}
	require.NoError(t, store.Append(context.Background(), log))

	records, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.False(t, records[0].WasSuccessful)
	require.Nil(t, records[0].RowsReturned)
	require.Contains(t, records[0].Error, "forbidden pattern")
}

func TestAuditStoreClampsOversizedFields(t *testing.T) {
	store := newTestAuditStore(t)
	log := &domain.QueryLog{
		CreatedAt:    time.Now().UTC(),
		Question:     strings.Repeat("q", 2000),
		GeneratedSQL: strings.Repeat("s", 5000),
		Error:        strings.Repeat("e", 2000),
		Actor:        strings.Repeat("a", 200),
		Origin:       strings.Repeat("o", 100),
		Outcome:      domain.OutcomeExecutionFailure,
	}
	require.NoError(t, store.Append(context.Background(), log))

	records, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Question, 1000)
	require.Len(t, records[0].GeneratedSQL, 4000)
	require.Len(t, records[0].Error, 1000)
	require.Len(t, records[0].Actor, 100)
	require.Len(t, records[0].Origin, 50)
}

func TestAuditStoreFallsBackToFile(t *testing.T) {
	// Point the store at a directory so SQLite cannot use the path; the
	// store must degrade to the jsonl file next to it.
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	require.NoError(t, os.MkdirAll(dbPath, 0o755))

	store := NewAuditStore(dbPath)
	log := &domain.QueryLog{
		CreatedAt: time.Now().UTC(),
		Question:  "q",
		Outcome:   domain.OutcomeSuccess,
	}
	require.NoError(t, store.Append(context.Background(), log))

	records, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "q", records[0].Question)
}
