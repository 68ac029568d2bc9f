package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/onehub-labs/onehub/internal/session"
	"github.com/onehub-labs/onehub/internal/transfer"
	"github.com/onehub-labs/onehub/pkg/core"
)

// NewExportCommand creates the result-export command.
func NewExportCommand() *cobra.Command {
	var (
		sqlText   string
		database  string
		format    string
		outFile   string
		tableName string
		noHeader  bool
		pretty    bool
		maxRows   int
	)

	cmd := &cobra.Command{
		Use:   "export <connection>",
		Short: "Export a query result to CSV, JSON or a SQL dump",
		Example: `  onehub export prod --sql "SELECT * FROM users" -O users.csv
  onehub export prod --sql "SELECT * FROM users" --format sql --table users`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sqlText == "" {
				return fmt.Errorf("--sql is required")
			}

			// Pick the format from the output extension when not given.
			f := transfer.FormatCSV
			if format != "" {
				var err error
				f, err = transfer.ParseFormat(format)
				if err != nil {
					return err
				}
			} else if outFile != "" {
				if guessed, ok := transfer.FormatFromPath(outFile); ok {
					f = guessed
				}
			}

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

			w := cmd.OutOrStdout()
			if outFile != "" {
				file, err := os.Create(outFile)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer func() { _ = file.Close() }()
				w = file
			}

			opts := core.DefaultExecOptions()
			opts.MaxRows = maxRows

			exportOpts := transfer.ExportOptions{
				Format:         f,
				IncludeHeaders: !noHeader,
				TableName:      tableName,
				PrettyJSON:     pretty,
				NullLiteral:    cmdCtx.Cfg.Export.NullLiteral,
			}

			err = cmdCtx.Sessions.WithSession(ctx, rec.ID, cfg, database, func(s *session.Session) error {
				res, err := s.Conn.Query(ctx, sqlText, nil, opts)
				if err != nil {
					return err
				}
				if res.IsError() {
					return fmt.Errorf("query failed: %s", res.Message)
				}
				if err := transfer.ExportResult(w, res, exportOpts); err != nil {
					return err
				}
				if outFile != "" {
					cmdCtx.Renderer.Success(fmt.Sprintf("Exported %d rows to %s", len(res.Rows), outFile))
				}
				return nil
			})
			return err
		},
	}

	cmd.Flags().StringVarP(&sqlText, "sql", "s", "", "Query to export (required)")
	cmd.Flags().StringVarP(&database, "database", "d", "", "Database to run against")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Export format (csv|json|sql, default from -O extension)")
	cmd.Flags().StringVarP(&outFile, "out", "O", "", "Write to file instead of stdout")
	cmd.Flags().StringVar(&tableName, "table", "", "INSERT target for SQL dumps")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "Skip the CSV header record")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent JSON output")
	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "Row cap (0 = unlimited)")
	_ = cmd.MarkFlagRequired("sql")

	return cmd
}
