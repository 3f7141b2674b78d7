package domain

import "context"

// Outcome identifies which branch of the query pipeline a request ended on.
type Outcome string

const (
	OutcomePrecondition     Outcome = "precondition"
	OutcomeProviderFailure  Outcome = "provider_failure"
	OutcomeRejected         Outcome = "rejected"
	OutcomeExecutionFailure Outcome = "execution_failure"
	OutcomeCancelled        Outcome = "cancelled"
	OutcomeSuccess          Outcome = "success"
)

// QueryRequest captures one natural-language question against an imported table.
type QueryRequest struct {
	Context context.Context
	// Question is the user's natural-language query.
	Question string
	// Table is the data table the generated SQL should target.
	Table string
	// Schema describes the table columns for prompt construction. When empty
	// the orchestrator resolves it from the spreadsheet catalog.
	Schema string
	// Actor and Origin identify who asked and from where; both optional.
	Actor  string
	Origin string
	// OnFragment, when set, receives generated-text deltas in arrival order
	// while the response is still streaming.
	OnFragment func(fragment string)
}

// Row maps column names to scalar values. A nil value is a SQL NULL; a
// missing key means the column was not part of the result.
type Row map[string]any

// QueryResult is the transient per-request result returned to the caller.
type QueryResult struct {
	Success      bool
	Outcome      Outcome
	Columns      []string
	Rows         []Row
	GeneratedSQL string
	Error        string
}

// ResultSet is the executor's raw tabular output before it is folded into a
// QueryResult.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

// Verdict is the safety validator's decision about a candidate statement.
type Verdict struct {
	Allowed bool
	// SQL is the accepted statement, original casing preserved.
	SQL string
	// Reason explains a rejection in human-readable form.
	Reason string
	// Matched lists the denylist tokens that fired.
	Matched []string
}

// StreamFragment is one chunk of generated text from the completion stream.
type StreamFragment struct {
	Content string
}
