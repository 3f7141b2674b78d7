package ingest

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/sheetql/sheetql/internal/domain"
	"github.com/sheetql/sheetql/internal/ports"
)

// CSVDecoder decodes comma-separated files.
type CSVDecoder struct{}

// NewCSVDecoder builds a CSV decoder.
func NewCSVDecoder() *CSVDecoder {
	return &CSVDecoder{}
}

// Decode implements ports.SheetDecoder. Ragged rows are tolerated; short
// rows pad with NULL.
func (d *CSVDecoder) Decode(r io.Reader, hasHeader bool) (domain.SheetData, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return domain.SheetData{}, fmt.Errorf("parse csv: %w", err)
	}
	return buildSheetData("Sheet1", records, hasHeader)
}

var _ ports.SheetDecoder = (*CSVDecoder)(nil)
