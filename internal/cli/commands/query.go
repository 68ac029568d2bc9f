package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/onehub-labs/onehub/internal/session"
	"github.com/onehub-labs/onehub/pkg/core"
)

// NewQueryCommand creates the one-shot query command.
func NewQueryCommand() *cobra.Command {
	var (
		sqlText       string
		sqlFile       string
		database      string
		format        string
		maxRows       int
		stream        bool
		transactional bool
	)

	cmd := &cobra.Command{
		Use:   "query <connection>",
		Short: "Run SQL against a stored connection",
		Long: `Run a SQL script against a stored connection.

The script comes from --sql, --file, or stdin when --file is "-".
Scripts may hold multiple statements; each is rendered in order.`,
		Example: `  onehub query prod --sql "SELECT * FROM users LIMIT 10"
  onehub query prod --file migration.sql --stream
  cat report.sql | onehub query prod --file - --format csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			script, err := readScript(cmd.InOrStdin(), sqlText, sqlFile)
			if err != nil {
				return err
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

			opts := core.DefaultExecOptions()
			opts.MaxRows = maxRows
			opts.Transactional = transactional

			w, errW := cmd.OutOrStdout(), cmd.ErrOrStderr()
			return cmdCtx.Sessions.WithSession(ctx, rec.ID, cfg, database, func(s *session.Session) error {
				if stream {
					return streamScript(ctx, w, errW, s, script, opts, format)
				}
				results, err := s.Conn.Execute(ctx, script, opts)
				if err != nil {
					return err
				}
				return renderResults(w, errW, results, format)
			})
		},
	}

	cmd.Flags().StringVarP(&sqlText, "sql", "s", "", "SQL to run")
	cmd.Flags().StringVarP(&sqlFile, "file", "f", "", `Script file ("-" for stdin)`)
	cmd.Flags().StringVarP(&database, "database", "d", "", "Database to run against")
	cmd.Flags().StringVar(&format, "format", "table", "Output format (table|json|csv|md)")
	cmd.Flags().IntVar(&maxRows, "max-rows", 1000, "Row cap per query statement (0 = unlimited)")
	cmd.Flags().BoolVar(&stream, "stream", false, "Print each statement result as it finishes")
	cmd.Flags().BoolVar(&transactional, "transactional", false, "Run the script in one transaction")
	cmd.MarkFlagsMutuallyExclusive("sql", "file")

	return cmd
}

// readScript resolves the SQL source: --sql, --file, stdin via "-", or piped
// stdin when neither flag is set.
func readScript(stdin io.Reader, sqlText, sqlFile string) (string, error) {
	switch {
	case sqlText != "":
		return sqlText, nil
	case sqlFile == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	case sqlFile != "":
		data, err := os.ReadFile(sqlFile)
		if err != nil {
			return "", fmt.Errorf("failed to read script: %w", err)
		}
		return string(data), nil
	}

	// No source flag: accept piped stdin, reject an interactive terminal.
	if f, ok := stdin.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "", fmt.Errorf("no SQL given: use --sql, --file, or pipe a script on stdin")
		}
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("no SQL given: use --sql, --file, or pipe a script on stdin")
	}
	return string(data), nil
}

// streamScript renders each statement result as soon as it finishes, with a
// progress prefix. Failed statements are tallied so the exit code reflects
// partial failure.
func streamScript(ctx context.Context, w, errW io.Writer, s *session.Session, script string, opts core.ExecOptions, format string) error {
	var failed, total int
	err := s.Conn.ExecuteStream(ctx, script, opts, func(p core.StreamProgress) {
		total = p.Total
		if p.Total > 1 && format != "json" {
			_, _ = fmt.Fprintf(w, "-- statement %d/%d\n", p.Current, p.Total)
		}
		if p.Result.IsError() {
			failed++
			_, _ = fmt.Fprintf(errW, "statement %d failed: %s\n", p.Current, p.Result.Message)
			return
		}
		if format == "json" {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			_ = enc.Encode(p.Result)
			return
		}
		_ = renderResult(w, p.Result, format)
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d statements failed", failed, total)
	}
	return nil
}
