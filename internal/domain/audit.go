package domain

import "time"

// Column bounds for audit records. Values beyond these are truncated before
// persistence so an oversized model response cannot fail the audit write.
const (
	MaxQuestionLen = 1000
	MaxSQLLen      = 4000
	MaxErrorLen    = 1000
	MaxActorLen    = 100
	MaxOriginLen   = 50
)

// QueryLog is the immutable audit record for one query attempt. It is built
// in memory while the request progresses and persisted exactly once after
// the outcome is known.
type QueryLog struct {
	ID            int64     `json:"id"`
	RequestID     string    `json:"request_id"`
	CreatedAt     time.Time `json:"created_at"`
	Question      string    `json:"question"`
	GeneratedSQL  string    `json:"generated_sql"`
	Error         string    `json:"error,omitempty"`
	WasSuccessful bool      `json:"was_successful"`
	// RowsReturned is nil unless the statement executed successfully.
	RowsReturned *int    `json:"rows_returned,omitempty"`
	Actor        string  `json:"actor,omitempty"`
	Origin       string  `json:"origin,omitempty"`
	Outcome      Outcome `json:"outcome"`
}

// Clamp enforces the column bounds in place.
func (l *QueryLog) Clamp() {
	l.Question = truncate(l.Question, MaxQuestionLen)
	l.GeneratedSQL = truncate(l.GeneratedSQL, MaxSQLLen)
	l.Error = truncate(l.Error, MaxErrorLen)
	l.Actor = truncate(l.Actor, MaxActorLen)
	l.Origin = truncate(l.Origin, MaxOriginLen)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
