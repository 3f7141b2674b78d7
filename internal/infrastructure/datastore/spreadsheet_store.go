package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sheetql/sheetql/internal/domain"
	"github.com/sheetql/sheetql/internal/ports"
)

// SpreadsheetStore keeps the catalog of imported files and materializes
// their rows into real tables so generated SQL can query them directly.
type SpreadsheetStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSpreadsheetStore initializes the catalog table.
func NewSpreadsheetStore(db *sql.DB) (*SpreadsheetStore, error) {
	store := &SpreadsheetStore{db: db}
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS spreadsheets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_name TEXT NOT NULL,
		content_type TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		uploaded_at TEXT NOT NULL,
		description TEXT,
		table_name TEXT NOT NULL UNIQUE,
		schema_desc TEXT NOT NULL,
		row_count INTEGER NOT NULL
	);`)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Create registers the spreadsheet and loads its rows in one transaction.
// meta.TableName is derived from the file name when not set by the caller.
func (s *SpreadsheetStore) Create(ctx context.Context, meta *domain.Spreadsheet, data domain.SheetData) error {
	if len(data.Columns) == 0 {
		return fmt.Errorf("spreadsheet %q has no columns", meta.FileName)
	}
	if meta.TableName == "" {
		meta.TableName = TableName(meta.FileName)
	}
	if meta.UploadedAt.IsZero() {
		meta.UploadedAt = time.Now().UTC()
	}
	meta.RowCount = len(data.Rows)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO spreadsheets
		(file_name, content_type, file_size, uploaded_at, description, table_name, schema_desc, row_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.FileName,
		meta.ContentType,
		meta.FileSize,
		meta.UploadedAt.UTC().Format(time.RFC3339),
		nullableString(meta.Description),
		meta.TableName,
		data.SchemaDescription(),
		meta.RowCount,
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		meta.ID = id
	}

	if _, err := tx.ExecContext(ctx, createTableSQL(meta.TableName, data.Columns)); err != nil {
		return err
	}

	insert := insertSQL(meta.TableName, data.Columns)
	for _, row := range data.Rows {
		if _, err := tx.ExecContext(ctx, insert, row...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// List returns every catalog entry, newest upload first.
func (s *SpreadsheetStore) List(ctx context.Context) ([]domain.Spreadsheet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, file_name, content_type, file_size,
		uploaded_at, description, table_name, row_count
		FROM spreadsheets ORDER BY datetime(uploaded_at) DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sheets []domain.Spreadsheet
	for rows.Next() {
		sheet, err := scanSpreadsheet(rows)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet)
	}
	return sheets, rows.Err()
}

// Get returns one catalog entry by id.
func (s *SpreadsheetStore) Get(ctx context.Context, id int64) (domain.Spreadsheet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, file_name, content_type, file_size,
		uploaded_at, description, table_name, row_count
		FROM spreadsheets WHERE id = ?`, id)
	return scanSpreadsheet(row)
}

// Delete drops the data table and removes the catalog entry.
func (s *SpreadsheetStore) Delete(ctx context.Context, id int64) error {
	sheet, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(sheet.TableName))); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM spreadsheets WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// SchemaFor implements ports.SpreadsheetRepository.
func (s *SpreadsheetStore) SchemaFor(ctx context.Context, tableName string) (string, error) {
	var schema string
	err := s.db.QueryRowContext(ctx,
		`SELECT schema_desc FROM spreadsheets WHERE table_name = ?`, tableName).Scan(&schema)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no imported spreadsheet backs table %q", tableName)
	}
	return schema, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpreadsheet(row rowScanner) (domain.Spreadsheet, error) {
	var (
		sheet       domain.Spreadsheet
		uploadedAt  string
		description sql.NullString
	)
	err := row.Scan(&sheet.ID, &sheet.FileName, &sheet.ContentType, &sheet.FileSize,
		&uploadedAt, &description, &sheet.TableName, &sheet.RowCount)
	if err != nil {
		return domain.Spreadsheet{}, err
	}
	if t, err := time.Parse(time.RFC3339, uploadedAt); err == nil {
		sheet.UploadedAt = t
	}
	sheet.Description = description.String
	return sheet, nil
}

func createTableSQL(table string, columns []domain.SheetColumn) string {
	defs := make([]string, 0, len(columns))
	for _, col := range columns {
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdent(col.Name), col.Type))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
}

func insertSQL(table string, columns []domain.SheetColumn) string {
	names := make([]string, 0, len(columns))
	marks := make([]string, 0, len(columns))
	for _, col := range columns {
		names = append(names, quoteIdent(col.Name))
		marks = append(marks, "?")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(names, ", "), strings.Join(marks, ", "))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// TableName derives a safe table name from an uploaded file name.
func TableName(fileName string) string {
	base := fileName
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndexByte(base, '.'); idx > 0 {
		base = base[:idx]
	}
	return SanitizeIdent(base)
}

// SanitizeIdent lowercases and strips a candidate identifier down to
// [a-z0-9_], prefixing names that would start with a digit.
func SanitizeIdent(name string) string {
	var builder strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '_', r == ' ', r == '-':
			builder.WriteByte('_')
		}
	}
	out := builder.String()
	if out == "" {
		return "sheet"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "t_" + out
	}
	return out
}

var _ ports.SpreadsheetRepository = (*SpreadsheetStore)(nil)
