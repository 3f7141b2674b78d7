// Package ingest decodes uploaded spreadsheet files (CSV, Excel) into
// typed row sets ready for materialization into the data store.
package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sheetql/sheetql/internal/domain"
)

// buildSheetData assembles typed sheet data from raw string cells. The
// header row (or generated names) gives column names; each column's type is
// inferred from its non-empty values: all integers -> INTEGER, all numeric
// -> REAL, otherwise TEXT. Empty cells become NULL.
func buildSheetData(sheetName string, records [][]string, hasHeader bool) (domain.SheetData, error) {
	if len(records) == 0 {
		return domain.SheetData{}, fmt.Errorf("sheet %q is empty", sheetName)
	}

	width := 0
	for _, record := range records {
		if len(record) > width {
			width = len(record)
		}
	}
	if width == 0 {
		return domain.SheetData{}, fmt.Errorf("sheet %q has no columns", sheetName)
	}

	var header []string
	body := records
	if hasHeader {
		header = records[0]
		body = records[1:]
	}
	names := columnNames(header, width)

	types := make([]domain.ColumnType, width)
	for i := range types {
		types[i] = inferColumnType(body, i)
	}

	columns := make([]domain.SheetColumn, width)
	for i := range columns {
		columns[i] = domain.SheetColumn{Name: names[i], Type: types[i]}
	}

	rows := make([][]any, 0, len(body))
	for _, record := range body {
		row := make([]any, width)
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(record) {
				cell = strings.TrimSpace(record[i])
			}
			row[i] = convertCell(cell, types[i])
		}
		rows = append(rows, row)
	}

	return domain.SheetData{SheetName: sheetName, Columns: columns, Rows: rows}, nil
}

// columnNames sanitizes header names, fills in gaps, and deduplicates.
func columnNames(header []string, width int) []string {
	names := make([]string, width)
	seen := map[string]int{}
	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = sanitizeColumn(header[i])
		}
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name]++
		names[i] = name
	}
	return names
}

func sanitizeColumn(name string) string {
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
	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = "c_" + out
	}
	return out
}

func inferColumnType(rows [][]string, col int) domain.ColumnType {
	sawValue := false
	allInt := true
	allReal := true
	for _, record := range rows {
		if col >= len(record) {
			continue
		}
		cell := strings.TrimSpace(record[col])
		if cell == "" {
			continue
		}
		sawValue = true
		if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			allReal = false
		}
		if !allReal {
			break
		}
	}
	switch {
	case !sawValue:
		return domain.ColumnText
	case allInt:
		return domain.ColumnInteger
	case allReal:
		return domain.ColumnReal
	default:
		return domain.ColumnText
	}
}

func convertCell(cell string, typ domain.ColumnType) any {
	if cell == "" {
		return nil
	}
	switch typ {
	case domain.ColumnInteger:
		if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
			return n
		}
	case domain.ColumnReal:
		if f, err := strconv.ParseFloat(cell, 64); err == nil {
			return f
		}
	}
	return cell
}
