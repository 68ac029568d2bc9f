package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/onehub-labs/onehub/internal/session"
	"github.com/onehub-labs/onehub/internal/transfer"
	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/plugin"
)

// NewImportCommand creates the data-import command.
func NewImportCommand() *cobra.Command {
	var (
		database        string
		tableName       string
		format          string
		truncate        bool
		continueOnError bool
		noHeader        bool
		delimiter       string
	)

	cmd := &cobra.Command{
		Use:   "import <connection> <file>",
		Short: "Load a SQL dump, CSV or JSON file into a connection",
		Long: `Load data into a stored connection.

The file kind comes from its extension (.sql, .csv, .json) unless
--format overrides it. SQL dumps replay statement by statement;
CSV and JSON load rows into --table.`,
		Example: `  onehub import prod dump.sql
  onehub import prod users.csv --table users --truncate
  onehub import prod users.json --table users --continue-on-error`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := format
			if kind == "" {
				kind = strings.TrimPrefix(filepath.Ext(args[1]), ".")
			}
			switch kind {
			case "sql", "csv", "json":
			default:
				return fmt.Errorf("cannot tell the file kind of %q: use --format sql|csv|json", args[1])
			}

			file, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open input: %w", err)
			}
			defer func() { _ = file.Close() }()

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			rec, err := resolveConnection(ctx, cmdCtx.Store, args[0])
			if err != nil {
				return err
			}
			cfg, err := databaseConfig(rec)
			if err != nil {
				return err
			}
			p, err := plugin.New(cfg, cmdCtx.Logger)
			if err != nil {
				return err
			}

			r := cmdCtx.Renderer
			return cmdCtx.Sessions.WithSession(ctx, rec.ID, cfg, database, func(s *session.Session) error {
				var rep *transfer.Report
				switch kind {
				case "sql":
					execOpts := core.DefaultExecOptions()
					execOpts.StopOnError = !continueOnError
					execOpts.MaxRows = 0
					results, err := transfer.ImportSQL(ctx, s.Conn, file, execOpts, func(prog core.StreamProgress) {
						if prog.Result.IsError() {
							r.Warning(fmt.Sprintf("statement %d/%d failed: %s", prog.Current, prog.Total, prog.Result.Message))
						}
					})
					if err != nil {
						return err
					}
					rep = transfer.Summarize(results, 0)
				case "csv":
					opts := transfer.CSVOptions{
						Table:           tableName,
						NoHeader:        noHeader,
						Truncate:        truncate,
						ContinueOnError: continueOnError,
					}
					if delimiter != "" {
						opts.Delimiter = []rune(delimiter)[0]
					}
					rep, err = transfer.ImportCSV(ctx, p, s.Conn, file, opts)
					if err != nil {
						return err
					}
				case "json":
					rep, err = transfer.ImportJSON(ctx, p, s.Conn, file, transfer.JSONOptions{
						Table:           tableName,
						Truncate:        truncate,
						ContinueOnError: continueOnError,
					})
					if err != nil {
						return err
					}
				}

				for _, msg := range rep.Errors {
					r.Warning(msg)
				}
				if !rep.Success() {
					r.Error(fmt.Sprintf("Imported %d rows with %d errors", rep.RowsImported, len(rep.Errors)))
					return fmt.Errorf("import finished with %d errors", len(rep.Errors))
				}
				r.Success(fmt.Sprintf("Imported %d rows", rep.RowsImported))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&database, "database", "d", "", "Database to load into")
	cmd.Flags().StringVarP(&tableName, "table", "t", "", "Target table (required for CSV and JSON)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Override the file kind (sql|csv|json)")
	cmd.Flags().BoolVar(&truncate, "truncate", false, "Empty the table before loading")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "Keep loading after a failed row or statement")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "CSV input has no header record")
	cmd.Flags().StringVar(&delimiter, "delimiter", "", "CSV field separator (default comma)")

	return cmd
}
