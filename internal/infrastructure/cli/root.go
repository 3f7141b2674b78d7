// Package cli wires the cobra command tree for the sheetql binary.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sheetql/sheetql/internal/app"
)

// Options holds CLI-level configuration.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.ConfigPath, opts.Verbose)
	if err != nil {
		return nil, err
	}

	root := &cobra.Command{
		Use:   "sheetql",
		Short: "sheetql - ask questions about your spreadsheets in plain language",
		Long: "sheetql imports spreadsheet files into a local database and answers\n" +
			"natural-language questions by generating, validating and running SQL.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand(container))
	root.AddCommand(newAskCommand(container))
	root.AddCommand(newImportCommand(container))
	root.AddCommand(newHistoryCommand(container))
	root.AddCommand(newSheetsCommand(container))
	root.AddCommand(newVersionCommand())
	return root, nil
}
