package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sheetql/sheetql/internal/app"
	"github.com/sheetql/sheetql/internal/application/importer"
	"github.com/sheetql/sheetql/internal/domain"
	"github.com/sheetql/sheetql/internal/infrastructure/httpapi"
)

// Version is stamped at build time.
var Version = "dev"

func newServeCommand(container *app.Container) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := listen
			if addr == "" {
				addr = container.Config.Server.Listen
			}
			server := httpapi.NewServer(container.QueryService, container.Importer, container.Logger)
			fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", addr)
			return server.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides config)")
	return cmd
}

func newImportCommand(container *app.Container) *cobra.Command {
	var (
		table       string
		description string
		noHeader    bool
	)

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a CSV or Excel file into the data store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()

			info, err := file.Stat()
			if err != nil {
				return err
			}

			sheet, err := container.Importer.Import(cmd.Context(), importer.Input{
				Reader:      file,
				FileName:    filepath.Base(path),
				ContentType: contentTypeFor(path),
				FileSize:    info.Size(),
				Description: description,
				TableName:   table,
				HasHeader:   !noHeader,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%s) as table %q: %d rows\n",
				sheet.FileName, humanize.Bytes(uint64(sheet.FileSize)), sheet.TableName, sheet.RowCount)
			return nil
		},
	}

	cmd.Flags().StringVarP(&table, "table", "t", "", "Table name (defaults to the file name)")
	cmd.Flags().StringVar(&description, "description", "", "Catalog description")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "Treat the first row as data, not column names")
	return cmd
}

func newHistoryCommand(container *app.Container) *cobra.Command {
	var (
		limit int
		actor string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent query audit records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printHistory(cmd, container, actor, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Max records to show")
	cmd.Flags().StringVar(&actor, "actor", "", "Filter by actor identity")
	return cmd
}

func printHistory(cmd *cobra.Command, container *app.Container, actor string, limit int) error {
	var (
		logs []domain.QueryLog
		err  error
	)
	if actor != "" {
		logs, err = container.QueryService.HistoryByActor(cmd.Context(), actor, limit)
	} else {
		logs, err = container.QueryService.History(cmd.Context(), limit)
	}
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No queries recorded yet.")
		return nil
	}

	for _, log := range logs {
		status := "FAILED"
		if log.WasSuccessful {
			status = "ok"
		}
		rows := "-"
		if log.RowsReturned != nil {
			rows = fmt.Sprintf("%d", *log.RowsReturned)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %-6s rows=%-5s %s\n",
			humanize.Time(log.CreatedAt), status, rows, log.Question)
		if log.GeneratedSQL != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "        %s\n", log.GeneratedSQL)
		}
		if log.Error != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "        error: %s\n", log.Error)
		}
	}
	return nil
}

func newSheetsCommand(container *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "List imported spreadsheets",
		RunE: func(cmd *cobra.Command, args []string) error {
			sheets, err := container.Importer.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(sheets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No spreadsheets imported yet.")
				return nil
			}
			for _, sheet := range sheets {
				fmt.Fprintf(cmd.OutOrStdout(), "#%d %-30s table=%-20s %6d rows  %8s  %s\n",
					sheet.ID, sheet.FileName, sheet.TableName, sheet.RowCount,
					humanize.Bytes(uint64(sheet.FileSize)), humanize.Time(sheet.UploadedAt))
			}
			return nil
		},
	}
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sheetql version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "sheetql", Version)
		},
	}
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
