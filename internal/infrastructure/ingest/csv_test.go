package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sheetql/sheetql/internal/domain"
)

func TestCSVDecodeWithHeader(t *testing.T) {
	input := "Id,Name,Total\n1,Acme,120.5\n2,Globex,99\n"

	data, err := NewCSVDecoder().Decode(strings.NewReader(input), true)
	require.NoError(t, err)

	require.Equal(t, []domain.SheetColumn{
		{Name: "id", Type: domain.ColumnInteger},
		{Name: "name", Type: domain.ColumnText},
		{Name: "total", Type: domain.ColumnReal},
	}, data.Columns)

	require.Len(t, data.Rows, 2)
	require.Equal(t, []any{int64(1), "Acme", 120.5}, data.Rows[0])
	require.Equal(t, []any{int64(2), "Globex", 99.0}, data.Rows[1])
}

func TestCSVDecodeWithoutHeader(t *testing.T) {
	input := "1,Acme\n2,Globex\n"

	data, err := NewCSVDecoder().Decode(strings.NewReader(input), false)
	require.NoError(t, err)

	require.Equal(t, "column_1", data.Columns[0].Name)
	require.Equal(t, "column_2", data.Columns[1].Name)
	require.Len(t, data.Rows, 2)
}

func TestCSVDecodeEmptyCellsBecomeNull(t *testing.T) {
	input := "id,note\n1,hello\n2,\n"

	data, err := NewCSVDecoder().Decode(strings.NewReader(input), true)
	require.NoError(t, err)
	require.Equal(t, "hello", data.Rows[0][1])
	require.Nil(t, data.Rows[1][1])
}

func TestCSVDecodeRaggedRowsPad(t *testing.T) {
	input := "a,b,c\n1,2,3\n4,5\n"

	data, err := NewCSVDecoder().Decode(strings.NewReader(input), true)
	require.NoError(t, err)
	require.Len(t, data.Rows, 2)
	require.Len(t, data.Rows[1], 3)
	require.Nil(t, data.Rows[1][2])
}

func TestCSVDecodeEmptyInput(t *testing.T) {
	_, err := NewCSVDecoder().Decode(strings.NewReader(""), true)
	require.Error(t, err)
}

func TestColumnNameSanitizationAndDedupe(t *testing.T) {
	input := "Order Total,Order Total,2024,!!!\nx,y,z,w\n"

	data, err := NewCSVDecoder().Decode(strings.NewReader(input), true)
	require.NoError(t, err)

	names := make([]string, len(data.Columns))
	for i, col := range data.Columns {
		names[i] = col.Name
	}
	require.Equal(t, []string{"order_total", "order_total_2", "c_2024", "column_4"}, names)
}

func TestTypeInference(t *testing.T) {
	cases := []struct {
		name  string
		cells []string
		want  domain.ColumnType
	}{
		{"integers", []string{"1", "2", "-3"}, domain.ColumnInteger},
		{"mixed numeric", []string{"1", "2.5"}, domain.ColumnReal},
		{"text wins", []string{"1", "abc"}, domain.ColumnText},
		{"blanks ignored", []string{"", "7", ""}, domain.ColumnInteger},
		{"all blank", []string{"", ""}, domain.ColumnText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows := make([][]string, len(tc.cells))
			for i, cell := range tc.cells {
				rows[i] = []string{cell}
			}
			require.Equal(t, tc.want, inferColumnType(rows, 0))
		})
	}
}
