package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTemplateBuilderRendersPrompt(t *testing.T) {
	builder, err := NewTemplateBuilder()
	require.NoError(t, err)

	system, user, err := builder.Build("top 5 customers", "Customers", "Id int, Name text, Total decimal")
	require.NoError(t, err)

	require.Contains(t, system, "SQL query generator")
	require.Contains(t, system, "Only generate SELECT queries")
	require.Contains(t, user, `table named "Customers"`)
	require.Contains(t, user, "Id int, Name text, Total decimal")
	require.Contains(t, user, `"top 5 customers"`)
}

func TestTemplateBuilderPreconditions(t *testing.T) {
	builder, err := NewTemplateBuilder()
	require.NoError(t, err)

	cases := []struct {
		name     string
		question string
		table    string
		schema   string
	}{
		{"empty question", "", "t", "a int"},
		{"whitespace question", "   ", "t", "a int"},
		{"empty table", "q", "", "a int"},
		{"empty schema", "q", "t", "\t "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := builder.Build(tc.question, tc.table, tc.schema)
			require.Error(t, err)
		})
	}
}

func TestTemplateBuilderTrimsInputs(t *testing.T) {
	builder, err := NewTemplateBuilder()
	require.NoError(t, err)

	_, user, err := builder.Build("  count rows  ", " orders ", " id int ")
	require.NoError(t, err)
	require.Contains(t, user, `table named "orders"`)
	require.False(t, strings.Contains(user, `" orders "`))
}
