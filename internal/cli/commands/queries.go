package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/onehub-labs/onehub/internal/cli/output"
	"github.com/onehub-labs/onehub/internal/session"
	"github.com/onehub-labs/onehub/internal/store"
	"github.com/onehub-labs/onehub/pkg/core"
)

// NewQueriesCommand creates the queries command group.
func NewQueriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queries",
		Short: "Manage saved queries",
		Long: `Manage SQL queries saved per connection.

Query names are unique within their connection.`,
	}

	cmd.AddCommand(newQueriesListCommand())
	cmd.AddCommand(newQueriesSaveCommand())
	cmd.AddCommand(newQueriesDeleteCommand())
	cmd.AddCommand(newQueriesRunCommand())

	return cmd
}

func newQueriesListCommand() *cobra.Command {
	var connection string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved queries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			var queries []*store.Query
			if connection != "" {
				rec, err := resolveConnection(ctx, cmdCtx.Store, connection)
				if err != nil {
					return err
				}
				queries, err = cmdCtx.Store.ListQueriesByConnection(ctx, rec.ID)
				if err != nil {
					return err
				}
			} else {
				queries, err = cmdCtx.Store.ListQueries(ctx)
				if err != nil {
					return err
				}
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(queries)
			}

			r.Header(1, fmt.Sprintf("Saved queries (%d total)", len(queries)))
			if len(queries) == 0 {
				r.Muted("No saved queries.")
				return nil
			}
			for _, q := range queries {
				detail := ""
				if q.DatabaseName != nil && *q.DatabaseName != "" {
					detail = "on " + *q.DatabaseName
				}
				r.Printf("  %-28s %s\n", q.Name, r.Styles().Muted.Render(detail))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&connection, "connection", "c", "", "Only queries saved for this connection")
	return cmd
}

func newQueriesSaveCommand() *cobra.Command {
	var (
		connection string
		sqlText    string
		sqlFile    string
		database   string
	)

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save a query for a connection",
		Example: `  onehub queries save "daily orders" -c analytics --sql "SELECT * FROM orders WHERE day = current_date"
  onehub queries save report -c analytics --file report.sql -d sales`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			content := sqlText
			if sqlFile != "" {
				raw, err := os.ReadFile(sqlFile)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", sqlFile, err)
				}
				content = string(raw)
			}
			if content == "" {
				return fmt.Errorf("query content required (--sql or --file)")
			}

			ctx := cmd.Context()
			rec, err := resolveConnection(ctx, cmdCtx.Store, connection)
			if err != nil {
				return err
			}

			q := &store.Query{
				Name:         args[0],
				SQLContent:   content,
				ConnectionID: rec.ID,
			}
			if database != "" {
				q.DatabaseName = &database
			}
			if err := cmdCtx.Store.CreateQuery(ctx, q); err != nil {
				return err
			}

			cmdCtx.Renderer.Success(fmt.Sprintf("Saved query %q for connection %q", q.Name, rec.Name))
			return nil
		},
	}

	cmd.Flags().StringVarP(&connection, "connection", "c", "", "Connection the query belongs to")
	cmd.Flags().StringVar(&sqlText, "sql", "", "Query text")
	cmd.Flags().StringVar(&sqlFile, "file", "", "Read query text from a file")
	cmd.Flags().StringVarP(&database, "database", "d", "", "Database the query targets")
	_ = cmd.MarkFlagRequired("connection")

	return cmd
}

func newQueriesDeleteCommand() *cobra.Command {
	var connection string

	cmd := &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved query",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			rec, err := resolveConnection(ctx, cmdCtx.Store, connection)
			if err != nil {
				return err
			}
			q, err := cmdCtx.Store.GetQueryByName(ctx, rec.ID, args[0])
			if err != nil {
				return err
			}
			if err := cmdCtx.Store.DeleteQuery(ctx, q.ID); err != nil {
				return err
			}

			cmdCtx.Renderer.Success(fmt.Sprintf("Deleted query %q", q.Name))
			return nil
		},
	}

	cmd.Flags().StringVarP(&connection, "connection", "c", "", "Connection the query belongs to")
	_ = cmd.MarkFlagRequired("connection")
	return cmd
}

func newQueriesRunCommand() *cobra.Command {
	var (
		connection string
		format     string
		maxRows    int
	)

	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Execute a saved query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			rec, err := resolveConnection(ctx, cmdCtx.Store, connection)
			if err != nil {
				return err
			}
			q, err := cmdCtx.Store.GetQueryByName(ctx, rec.ID, args[0])
			if err != nil {
				return err
			}
			cfg, err := databaseConfig(rec)
			if err != nil {
				return err
			}

			database := ""
			if q.DatabaseName != nil {
				database = *q.DatabaseName
			}

			opts := core.DefaultExecOptions()
			if cmd.Flags().Changed("max-rows") {
				opts.MaxRows = maxRows
			}

			return cmdCtx.Sessions.WithSession(ctx, rec.ID, cfg, database, func(s *session.Session) error {
				results, err := s.Conn.Execute(ctx, q.SQLContent, opts)
				if err != nil {
					return err
				}
				return renderResults(cmd.OutOrStdout(), cmd.ErrOrStderr(), results, format)
			})
		},
	}

	cmd.Flags().StringVarP(&connection, "connection", "c", "", "Connection to run against")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().IntVar(&maxRows, "max-rows", 1000, "Row cap for query statements (0 = unlimited)")
	_ = cmd.MarkFlagRequired("connection")
	return cmd
}
