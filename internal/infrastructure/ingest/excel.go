package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/sheetql/sheetql/internal/domain"
	"github.com/sheetql/sheetql/internal/ports"
)

// ExcelDecoder decodes .xlsx workbooks. Only the first worksheet is
// imported, matching the CSV path's single-table model.
type ExcelDecoder struct{}

// NewExcelDecoder builds an Excel decoder.
func NewExcelDecoder() *ExcelDecoder {
	return &ExcelDecoder{}
}

// Decode implements ports.SheetDecoder.
func (d *ExcelDecoder) Decode(r io.Reader, hasHeader bool) (domain.SheetData, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return domain.SheetData{}, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return domain.SheetData{}, fmt.Errorf("workbook has no sheets")
	}
	name := sheets[0]

	records, err := book.GetRows(name)
	if err != nil {
		return domain.SheetData{}, fmt.Errorf("read sheet %q: %w", name, err)
	}
	return buildSheetData(name, records, hasHeader)
}

var _ ports.SheetDecoder = (*ExcelDecoder)(nil)
