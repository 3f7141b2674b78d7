package datastore

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/sheetql/sheetql/internal/domain"
	"github.com/sheetql/sheetql/internal/ports"
)

// AuditStore persists query attempts in SQLite. When the database cannot be
// opened it degrades to an append-only jsonl file so audit records are not
// silently dropped.
type AuditStore struct {
	db       *sql.DB
	fallback *auditFile
	mu       sync.Mutex
}

// NewAuditStore opens (or creates) the audit database at path.
func NewAuditStore(path string) *AuditStore {
	db, err := Open(path)
	if err != nil {
		return &AuditStore{fallback: newAuditFile(path + ".jsonl")}
	}
	store := &AuditStore{db: db}
	if err := store.init(); err != nil {
		return &AuditStore{fallback: newAuditFile(path + ".jsonl")}
	}
	return store
}

func (s *AuditStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS query_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT,
		created_at TEXT NOT NULL,
		question TEXT NOT NULL,
		generated_sql TEXT NOT NULL,
		error TEXT,
		was_successful INTEGER NOT NULL,
		rows_returned INTEGER,
		actor TEXT,
		origin TEXT,
		outcome TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_query_logs_created_at ON query_logs(created_at);
	CREATE INDEX IF NOT EXISTS idx_query_logs_actor ON query_logs(actor);`)
	return err
}

// Append implements ports.AuditRepository. Records are write-once: there is
// no update path.
func (s *AuditStore) Append(ctx context.Context, log *domain.QueryLog) error {
	log.Clamp()
	if s.db == nil {
		return s.fallback.Append(log)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `INSERT INTO query_logs
		(request_id, created_at, question, generated_sql, error, was_successful, rows_returned, actor, origin, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.RequestID,
		log.CreatedAt.UTC().Format(time.RFC3339Nano),
		log.Question,
		log.GeneratedSQL,
		nullableString(log.Error),
		boolToInt(log.WasSuccessful),
		nullableInt(log.RowsReturned),
		nullableString(log.Actor),
		nullableString(log.Origin),
		string(log.Outcome),
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		log.ID = id
	}
	return nil
}

// Recent returns the newest records first.
func (s *AuditStore) Recent(ctx context.Context, limit int) ([]domain.QueryLog, error) {
	return s.query(ctx, "", limit)
}

// ByActor returns the newest records for one actor identifier.
func (s *AuditStore) ByActor(ctx context.Context, actor string, limit int) ([]domain.QueryLog, error) {
	return s.query(ctx, actor, limit)
}

func (s *AuditStore) query(ctx context.Context, actor string, limit int) ([]domain.QueryLog, error) {
	if s.db == nil {
		return s.fallback.Records(actor, limit)
	}
	builder := strings.Builder{}
	builder.WriteString(`SELECT id, request_id, created_at, question, generated_sql,
		error, was_successful, rows_returned, actor, origin, outcome FROM query_logs`)
	var args []interface{}
	if actor != "" {
		builder.WriteString(" WHERE actor = ?")
		args = append(args, actor)
	}
	builder.WriteString(" ORDER BY datetime(created_at) DESC, id DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.QueryLog
	for rows.Next() {
		var (
			rec          domain.QueryLog
			createdAt    string
			errText      sql.NullString
			success      int
			rowsReturned sql.NullInt64
			recActor     sql.NullString
			origin       sql.NullString
			outcome      string
		)
		if err := rows.Scan(&rec.ID, &rec.RequestID, &createdAt, &rec.Question, &rec.GeneratedSQL,
			&errText, &success, &rowsReturned, &recActor, &origin, &outcome); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = t
		}
		rec.Error = errText.String
		rec.WasSuccessful = success == 1
		if rowsReturned.Valid {
			n := int(rowsReturned.Int64)
			rec.RowsReturned = &n
		}
		rec.Actor = recActor.String
		rec.Origin = origin.String
		rec.Outcome = domain.Outcome(outcome)
		logs = append(logs, rec)
	}
	return logs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

var _ ports.AuditRepository = (*AuditStore)(nil)
