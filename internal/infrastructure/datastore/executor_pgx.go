package datastore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sheetql/sheetql/internal/domain"
	"github.com/sheetql/sheetql/internal/ports"
)

// PgxExecutor runs read-only statements against PostgreSQL over a pgx
// connection pool. Connections are acquired per request and released on
// every exit path.
type PgxExecutor struct {
	pool    *pgxpool.Pool
	maxRows int
}

// NewPgxExecutor builds a Postgres executor from an existing pool.
func NewPgxExecutor(pool *pgxpool.Pool, maxRows int) *PgxExecutor {
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}
	return &PgxExecutor{pool: pool, maxRows: maxRows}
}

// Execute implements ports.QueryExecutor.
func (e *PgxExecutor) Execute(ctx context.Context, sqlText string) (domain.ResultSet, error) {
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return domain.ResultSet{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sqlText)
	if err != nil {
		return domain.ResultSet{}, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := domain.ResultSet{Columns: make([]string, len(fields))}
	for i, field := range fields {
		result.Columns[i] = field.Name
	}

	for rows.Next() {
		if len(result.Rows) >= e.maxRows {
			break
		}
		values, err := rows.Values()
		if err != nil {
			return domain.ResultSet{}, err
		}
		row := make(domain.Row, len(result.Columns))
		for i, name := range result.Columns {
			row[name] = normalizePgxValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return domain.ResultSet{}, err
	}
	return result, nil
}

// normalizePgxValue flattens pgx-specific representations. UUID columns come
// back as [16]byte; render them in canonical form.
func normalizePgxValue(v any) any {
	switch value := v.(type) {
	case nil:
		return nil
	case [16]byte:
		return fmt.Sprintf("%x-%x-%x-%x-%x",
			value[0:4], value[4:6], value[6:8], value[8:10], value[10:16])
	case []byte:
		return string(value)
	default:
		return value
	}
}

var _ ports.QueryExecutor = (*PgxExecutor)(nil)
