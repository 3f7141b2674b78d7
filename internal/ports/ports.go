// Package ports defines the interfaces between the application core and the
// infrastructure adapters. The application layer depends only on these
// abstractions; concrete implementations (HTTP clients, SQLite/Postgres
// stores, file parsers) live under internal/infrastructure.
package ports

import (
	"context"
	"io"

	"github.com/sheetql/sheetql/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// CompletionStream is a lazy sequence of generated-text fragments. Next
// returns io.EOF once the provider signalled end of stream or the connection
// closed; fragments arrive in provider order.
type CompletionStream interface {
	Next() (domain.StreamFragment, error)
	Close() error
}

// CompletionProvider calls the completion service and returns the response
// as an incremental stream.
type CompletionProvider interface {
	Complete(ctx context.Context, system string, user string) (CompletionStream, error)
}

// PromptBuilder renders the model prompt for one query request.
type PromptBuilder interface {
	Build(question string, table string, schema string) (system string, user string, err error)
}

// SQLValidator decides whether a candidate statement is safe to execute.
// It is a denylist gate, not a parser: acceptance means no forbidden token
// was found, not that the statement is provably harmless.
type SQLValidator interface {
	Validate(sql string) domain.Verdict
}

// QueryExecutor runs one validated read-only statement against the data
// store and returns the full result set or a driver error. It never writes
// audit records and never returns partial rows.
type QueryExecutor interface {
	Execute(ctx context.Context, sql string) (domain.ResultSet, error)
}

// AuditRepository is the append-only store for query attempts.
type AuditRepository interface {
	Append(ctx context.Context, log *domain.QueryLog) error
	Recent(ctx context.Context, limit int) ([]domain.QueryLog, error)
	ByActor(ctx context.Context, actor string, limit int) ([]domain.QueryLog, error)
}

// SpreadsheetRepository manages the catalog of imported files and their
// materialized data tables.
type SpreadsheetRepository interface {
	Create(ctx context.Context, meta *domain.Spreadsheet, data domain.SheetData) error
	List(ctx context.Context) ([]domain.Spreadsheet, error)
	Get(ctx context.Context, id int64) (domain.Spreadsheet, error)
	Delete(ctx context.Context, id int64) error
	// SchemaFor returns the "Name TYPE, ..." column description of the data
	// table backing the named spreadsheet table.
	SchemaFor(ctx context.Context, tableName string) (string, error)
}

// SheetDecoder turns an uploaded file into rows ready for materialization.
type SheetDecoder interface {
	Decode(r io.Reader, hasHeader bool) (domain.SheetData, error)
}

// Logger provides structured logging for the application layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
