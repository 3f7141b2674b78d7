package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sheetql/sheetql/internal/domain"
	"github.com/sheetql/sheetql/internal/infrastructure/ingest"
	"github.com/sheetql/sheetql/internal/pkg/logger"
	"github.com/sheetql/sheetql/internal/ports"
)

func newTestImporter(sheets *memSheets) *Service {
	return &Service{
		Decoders: map[string]ports.SheetDecoder{".csv": ingest.NewCSVDecoder()},
		Sheets:   sheets,
		Logger:   logger.NewStd(false),
	}
}

func TestImportCSV(t *testing.T) {
	sheets := &memSheets{}
	svc := newTestImporter(sheets)

	meta, err := svc.Import(context.Background(), Input{
		Reader:      strings.NewReader("id,name\n1,Acme\n2,Globex\n"),
		FileName:    "customers.csv",
		ContentType: "text/csv",
		FileSize:    25,
		HasHeader:   true,
	})
	require.NoError(t, err)

	require.Equal(t, "customers.csv", meta.FileName)
	require.Len(t, sheets.created, 1)
	require.Equal(t, 2, len(sheets.lastData.Rows))
	require.Equal(t, "id INTEGER, name TEXT", sheets.lastData.SchemaDescription())
}

func TestImportUnsupportedExtension(t *testing.T) {
	svc := newTestImporter(&memSheets{})

	_, err := svc.Import(context.Background(), Input{
		Reader:   strings.NewReader("x"),
		FileName: "notes.txt",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), `unsupported file type ".txt"`)
}

func TestImportMissingInputs(t *testing.T) {
	svc := newTestImporter(&memSheets{})

	_, err := svc.Import(context.Background(), Input{FileName: "a.csv"})
	require.Error(t, err)

	_, err = svc.Import(context.Background(), Input{Reader: strings.NewReader("x")})
	require.Error(t, err)
}

func TestImportTableNameOverride(t *testing.T) {
	sheets := &memSheets{}
	svc := newTestImporter(sheets)

	_, err := svc.Import(context.Background(), Input{
		Reader:    strings.NewReader("a\n1\n"),
		FileName:  "weird name.csv",
		TableName: "clean_name",
		HasHeader: true,
	})
	require.NoError(t, err)
	require.Equal(t, "clean_name", sheets.created[0].TableName)
}

type memSheets struct {
	created  []domain.Spreadsheet
	lastData domain.SheetData
}

func (m *memSheets) Create(_ context.Context, meta *domain.Spreadsheet, data domain.SheetData) error {
	meta.ID = int64(len(m.created) + 1)
	meta.RowCount = len(data.Rows)
	m.created = append(m.created, *meta)
	m.lastData = data
	return nil
}

func (m *memSheets) List(context.Context) ([]domain.Spreadsheet, error) {
	return m.created, nil
}

func (m *memSheets) Get(_ context.Context, id int64) (domain.Spreadsheet, error) {
	for _, sheet := range m.created {
		if sheet.ID == id {
			return sheet, nil
		}
	}
	return domain.Spreadsheet{}, errors.New("not found")
}

func (m *memSheets) Delete(_ context.Context, id int64) error {
	for i, sheet := range m.created {
		if sheet.ID == id {
			m.created = append(m.created[:i], m.created[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memSheets) SchemaFor(_ context.Context, tableName string) (string, error) {
	for _, sheet := range m.created {
		if sheet.TableName == tableName {
			return m.lastData.SchemaDescription(), nil
		}
	}
	return "", errors.New("not found")
}
