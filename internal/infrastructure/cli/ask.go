package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sheetql/sheetql/internal/app"
	"github.com/sheetql/sheetql/internal/domain"
)

func newAskCommand(container *app.Container) *cobra.Command {
	var (
		table   string
		schema  string
		actor   string
		timeout time.Duration
		stream  bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a natural-language question about an imported table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			req := domain.QueryRequest{
				Context:  ctx,
				Question: strings.Join(args, " "),
				Table:    table,
				Schema:   schema,
				Actor:    actor,
				Origin:   "cli",
			}
			if stream {
				req.OnFragment = func(fragment string) {
					fmt.Fprint(cmd.OutOrStdout(), fragment)
				}
			}

			result, err := container.QueryService.Execute(req)
			if err != nil {
				return err
			}
			if stream {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return renderResult(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&table, "table", "t", "", "Table the question is about (required)")
	cmd.Flags().StringVar(&schema, "schema", "", "Override the schema description sent to the model")
	cmd.Flags().StringVar(&actor, "actor", "", "Actor identity recorded in the audit log")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall request timeout")
	cmd.Flags().BoolVar(&stream, "stream", false, "Print the generated SQL as it streams in")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func renderResult(out io.Writer, result domain.QueryResult) error {
	if !result.Success {
		fmt.Fprintf(out, "query failed (%s): %s\n", result.Outcome, result.Error)
		if result.GeneratedSQL != "" {
			fmt.Fprintf(out, "generated SQL: %s\n", result.GeneratedSQL)
		}
		return fmt.Errorf("query did not succeed")
	}

	fmt.Fprintf(out, "SQL: %s\n\n", result.GeneratedSQL)
	fmt.Fprintln(out, strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(result.Columns))
		for i, col := range result.Columns {
			value, ok := row[col]
			switch {
			case !ok, value == nil:
				cells[i] = "NULL"
			default:
				cells[i] = fmt.Sprintf("%v", value)
			}
		}
		fmt.Fprintln(out, strings.Join(cells, "\t"))
	}
	fmt.Fprintf(out, "\n%d row(s)\n", len(result.Rows))
	return nil
}
