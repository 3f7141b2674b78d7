// Package query orchestrates the natural-language-to-SQL pipeline:
// prompt construction, streamed completion, safety validation, execution,
// and the audit write.
package query

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sheetql/sheetql/internal/domain"
	"github.com/sheetql/sheetql/internal/ports"
)

const defaultHistoryLimit = 50

// Service composes the pipeline stages. Pipeline branches (precondition,
// provider failure, rejection, execution failure, cancellation) come back
// as outcomes inside QueryResult, not as Go errors; the error return is
// reserved for unusable wiring.
type Service struct {
	Prompt    ports.PromptBuilder
	Provider  ports.CompletionProvider
	Validator ports.SQLValidator
	Executor  ports.QueryExecutor
	Audit     ports.AuditRepository
	Sheets    ports.SpreadsheetRepository
	Logger    ports.Logger
}

// Execute processes one natural-language query end to end. Exactly one
// audit record is written for every request that passes the precondition
// gate, regardless of which later stage failed.
func (s *Service) Execute(req domain.QueryRequest) (domain.QueryResult, error) {
	if s.Prompt == nil || s.Provider == nil || s.Validator == nil ||
		s.Executor == nil || s.Audit == nil || s.Logger == nil {
		return domain.QueryResult{}, errors.New("query.Service dependencies not satisfied")
	}

	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}

	schema := strings.TrimSpace(req.Schema)
	if schema == "" && s.Sheets != nil && strings.TrimSpace(req.Table) != "" {
		if resolved, err := s.Sheets.SchemaFor(ctx, strings.TrimSpace(req.Table)); err == nil {
			schema = resolved
		}
	}

	// Precondition gate: nothing has been attempted yet, so a failure here
	// writes no audit record.
	system, user, err := s.Prompt.Build(req.Question, req.Table, schema)
	if err != nil {
		return domain.QueryResult{
			Outcome: domain.OutcomePrecondition,
			Error:   err.Error(),
		}, nil
	}

	log := &domain.QueryLog{
		RequestID: uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Question:  strings.TrimSpace(req.Question),
		Actor:     req.Actor,
		Origin:    req.Origin,
	}

	s.Logger.Info("calling completion provider", map[string]interface{}{
		"request_id": log.RequestID,
		"table":      req.Table,
	})

	stream, err := s.Provider.Complete(ctx, system, user)
	if err != nil {
		if cancelled(ctx, err) {
			return s.finish(ctx, log, cancelledResult("")), nil
		}
		return s.finish(ctx, log, domain.QueryResult{
			Outcome: domain.OutcomeProviderFailure,
			Error:   fmt.Sprintf("AI service unavailable: %v", err),
		}), nil
	}

	sqlText, streamErr := s.assemble(stream, req.OnFragment)
	if streamErr != nil {
		if cancelled(ctx, streamErr) {
			return s.finish(ctx, log, cancelledResult(sqlText)), nil
		}
		return s.finish(ctx, log, domain.QueryResult{
			Outcome:      domain.OutcomeProviderFailure,
			GeneratedSQL: sqlText,
			Error:        fmt.Sprintf("AI service unavailable: %v", streamErr),
		}), nil
	}

	verdict := s.Validator.Validate(sqlText)
	if !verdict.Allowed {
		// The offending text is captured verbatim so the audit trail shows
		// exactly what the model produced.
		return s.finish(ctx, log, domain.QueryResult{
			Outcome:      domain.OutcomeRejected,
			GeneratedSQL: sqlText,
			Error:        verdict.Reason,
		}), nil
	}

	resultSet, err := s.Executor.Execute(ctx, verdict.SQL)
	if err != nil {
		if cancelled(ctx, err) {
			return s.finish(ctx, log, cancelledResult(verdict.SQL)), nil
		}
		return s.finish(ctx, log, domain.QueryResult{
			Outcome:      domain.OutcomeExecutionFailure,
			GeneratedSQL: verdict.SQL,
			Error:        err.Error(),
		}), nil
	}

	return s.finish(ctx, log, domain.QueryResult{
		Success:      true,
		Outcome:      domain.OutcomeSuccess,
		Columns:      resultSet.Columns,
		Rows:         resultSet.Rows,
		GeneratedSQL: verdict.SQL,
	}), nil
}

// History returns the newest audit records.
func (s *Service) History(ctx context.Context, limit int) ([]domain.QueryLog, error) {
	if s.Audit == nil {
		return nil, errors.New("query.Service dependencies not satisfied")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.Audit.Recent(ctx, limit)
}

// HistoryByActor returns the newest audit records for one actor.
func (s *Service) HistoryByActor(ctx context.Context, actor string, limit int) ([]domain.QueryLog, error) {
	if s.Audit == nil {
		return nil, errors.New("query.Service dependencies not satisfied")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.Audit.ByActor(ctx, actor, limit)
}

// assemble drains the completion stream in arrival order, forwarding each
// fragment to onFragment when set. On error it returns whatever text was
// assembled so the audit record can capture it.
func (s *Service) assemble(stream ports.CompletionStream, onFragment func(string)) (string, error) {
	defer stream.Close()
	var builder strings.Builder
	for {
		frag, err := stream.Next()
		if err == io.EOF {
			return strings.TrimSpace(builder.String()), nil
		}
		if err != nil {
			return strings.TrimSpace(builder.String()), err
		}
		builder.WriteString(frag.Content)
		if onFragment != nil {
			onFragment(frag.Content)
		}
	}
}

// finish fills the audit record from the result and appends it exactly
// once. The append uses a detached context so a cancelled request still
// leaves its terminal record; an append failure is logged and never
// overrides the result already computed.
func (s *Service) finish(ctx context.Context, log *domain.QueryLog, result domain.QueryResult) domain.QueryResult {
	log.GeneratedSQL = result.GeneratedSQL
	log.WasSuccessful = result.Success
	log.Outcome = result.Outcome
	log.Error = result.Error
	if result.Success {
		n := len(result.Rows)
		log.RowsReturned = &n
	}
	if err := s.Audit.Append(context.WithoutCancel(ctx), log); err != nil {
		s.Logger.Error("audit append failed", err, map[string]interface{}{
			"request_id": log.RequestID,
		})
	}
	return result
}

func cancelledResult(sqlText string) domain.QueryResult {
	return domain.QueryResult{
		Outcome:      domain.OutcomeCancelled,
		GeneratedSQL: sqlText,
		Error:        "request cancelled",
	}
}

func cancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
