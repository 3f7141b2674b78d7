package domain

import "time"

// Spreadsheet is the catalog entry for one imported file.
type Spreadsheet struct {
	ID          int64     `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	FileSize    int64     `json:"file_size"`
	UploadedAt  time.Time `json:"uploaded_at"`
	Description string    `json:"description,omitempty"`
	// TableName is the relational table the rows were materialized into.
	TableName string `json:"table_name"`
	RowCount  int    `json:"row_count"`
}

// ColumnType is the inferred storage type for an imported column.
type ColumnType string

const (
	ColumnInteger ColumnType = "INTEGER"
	ColumnReal    ColumnType = "REAL"
	ColumnText    ColumnType = "TEXT"
)

// SheetColumn describes one column of an imported sheet.
type SheetColumn struct {
	Name string
	Type ColumnType
}

// SheetData is the decoded content of one spreadsheet file, ready to be
// materialized into a table.
type SheetData struct {
	SheetName string
	Columns   []SheetColumn
	// Rows hold cell values in column order; nil marks an empty cell.
	Rows [][]any
}

// SchemaDescription renders the column list in the "Name TYPE, ..." form the
// prompt builder embeds into the model prompt.
func (d SheetData) SchemaDescription() string {
	out := ""
	for i, col := range d.Columns {
		if i > 0 {
			out += ", "
		}
		out += col.Name + " " + string(col.Type)
	}
	return out
}
