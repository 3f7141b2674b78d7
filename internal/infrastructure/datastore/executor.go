package datastore

import (
	"context"
	"database/sql"

	"github.com/sheetql/sheetql/internal/domain"
	"github.com/sheetql/sheetql/internal/ports"
)

const defaultMaxRows = 1000

// SQLExecutor runs read-only statements over database/sql. The generated
// SQL has already passed the safety gate by the time it reaches Execute;
// the executor adds no validation of its own.
type SQLExecutor struct {
	db      *sql.DB
	maxRows int
}

// NewSQLExecutor builds an executor with a bounded result set.
func NewSQLExecutor(db *sql.DB, maxRows int) *SQLExecutor {
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}
	return &SQLExecutor{db: db, maxRows: maxRows}
}

// Execute implements ports.QueryExecutor. Column order follows the result
// schema; database NULL becomes a nil value, never an empty string. A
// failure during row iteration fails the whole call: no partial rows.
func (e *SQLExecutor) Execute(ctx context.Context, sqlText string) (domain.ResultSet, error) {
	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		return domain.ResultSet{}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return domain.ResultSet{}, err
	}

	result := domain.ResultSet{Columns: columns}
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if len(result.Rows) >= e.maxRows {
			break
		}
		if err := rows.Scan(pointers...); err != nil {
			return domain.ResultSet{}, err
		}
		row := make(domain.Row, len(columns))
		for i, name := range columns {
			row[name] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return domain.ResultSet{}, err
	}
	return result, nil
}

// normalizeValue maps driver types onto JSON-friendly scalars. NULL stays
// nil; byte slices become strings since every imported column is either
// numeric or text.
func normalizeValue(v any) any {
	switch value := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(value)
	default:
		return value
	}
}

var _ ports.QueryExecutor = (*SQLExecutor)(nil)
