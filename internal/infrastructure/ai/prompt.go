package ai

import (
	"bytes"
	"errors"
	"strings"
	"text/template"

	"github.com/sheetql/sheetql/internal/ports"
)

// systemPrompt states the generation rules the model is asked to follow.
// The 100-row limit and ORDER BY requirement live here, not in the
// validator: they are prompt guidance, not enforced gates.
const systemPrompt = `You are a SQL query generator. Your task is to convert natural language questions into SQL queries.

Rules:
1. Only generate SELECT queries
2. Always limit the results to 100 rows unless specified otherwise
3. Never include DROP, DELETE, or other destructive operations
4. Use parameterized queries where possible
5. Handle date formats carefully (use ISO 8601 format: YYYY-MM-DD)
6. For string comparisons, use LOWER() for case-insensitive matching
7. Always include an ORDER BY clause for consistent results
8. If the query involves dates, always include a date range filter`

const userPromptTemplate = `I have a SQL table named "{{.Table}}" with the following schema:
{{.Schema}}

Please generate a SQL query for the following question:
"{{.Question}}"

Respond with only the SQL query, no explanations or markdown formatting.
The query should be properly formatted and easy to read.`

// TemplateBuilder renders query prompts from a text/template.
type TemplateBuilder struct {
	tmpl *template.Template
}

// NewTemplateBuilder compiles the built-in prompt template.
func NewTemplateBuilder() (*TemplateBuilder, error) {
	tmpl, err := template.New("query").Parse(userPromptTemplate)
	if err != nil {
		return nil, err
	}
	return &TemplateBuilder{tmpl: tmpl}, nil
}

type promptData struct {
	Question string
	Table    string
	Schema   string
}

// Build implements ports.PromptBuilder. All three inputs are hard
// preconditions; empty or whitespace values fail before any provider call.
func (b *TemplateBuilder) Build(question string, table string, schema string) (string, string, error) {
	question = strings.TrimSpace(question)
	table = strings.TrimSpace(table)
	schema = strings.TrimSpace(schema)
	switch {
	case question == "":
		return "", "", errors.New("question must not be empty")
	case table == "":
		return "", "", errors.New("table name must not be empty")
	case schema == "":
		return "", "", errors.New("schema description must not be empty")
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, promptData{Question: question, Table: table, Schema: schema}); err != nil {
		return "", "", err
	}
	return systemPrompt, buf.String(), nil
}

var _ ports.PromptBuilder = (*TemplateBuilder)(nil)
