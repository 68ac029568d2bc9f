package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/onehub-labs/onehub/internal/session"
	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/plugin"
)

// NewShellCommand creates the interactive SQL shell.
func NewShellCommand() *cobra.Command {
	var (
		database string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "shell <connection>",
		Short: "Open an interactive SQL shell on a stored connection",
		Long: `Open an interactive SQL shell on a stored connection.

Statements run when a line ends with a semicolon; until then input is
buffered across lines. Dot-commands inspect the session: type .help
inside the shell for the list. History and table-name completion are
built in.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
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
			// The shell holds one session for its whole lifetime so USE and
			// session variables stick.
			s, err := cmdCtx.Sessions.Acquire(ctx, rec.ID, cfg, database)
			if err != nil {
				return err
			}
			defer cmdCtx.Sessions.Release(ctx, s)

			sh := &shell{
				cmd:     cmd,
				plugin:  s.Plugin,
				session: s,
				name:    rec.Name,
				format:  format,
			}
			return sh.run(ctx, cmdCtx.Cfg.StorePath)
		},
	}

	cmd.Flags().StringVarP(&database, "database", "d", "", "Database to start in")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Result format (table|json|csv|md)")

	return cmd
}

// shell is the state of one interactive session.
type shell struct {
	cmd     *cobra.Command
	plugin  plugin.Plugin
	session *session.Session
	name    string
	format  string
}

func (sh *shell) run(ctx context.Context, storePath string) error {
	out := sh.cmd.OutOrStdout()

	// History lives next to the metadata store.
	historyFile := ""
	if storePath != ":memory:" {
		historyFile = filepath.Join(filepath.Dir(storePath), "shell_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          sh.prompt(ctx),
		HistoryFile:     historyFile,
		AutoComplete:    sh.completer(ctx),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(out, "OneHub shell (connection: %s)\n", sh.name)
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(sh.prompt(ctx))
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			quit := sh.dotCommand(ctx, line)
			if quit {
				break
			}
			rl.SetPrompt(sh.prompt(ctx))
			continue
		}

		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString(" ")
			rl.SetPrompt("   ...> ")
			continue
		}
		rl.SetPrompt(sh.prompt(ctx))

		script := buf.String()
		buf.Reset()

		sh.execute(ctx, script)
		_, _ = fmt.Fprintln(out)
	}

	return nil
}

// prompt shows the active database when the backend knows one.
func (sh *shell) prompt(ctx context.Context) string {
	if db, err := sh.session.Conn.CurrentDatabase(ctx); err == nil && db != "" {
		return fmt.Sprintf("%s/%s> ", sh.name, db)
	}
	return sh.name + "> "
}

func (sh *shell) execute(ctx context.Context, script string) {
	results, err := sh.session.Conn.Execute(ctx, script, core.DefaultExecOptions())
	if err != nil {
		_, _ = fmt.Fprintf(sh.cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}
	// Statement errors are already in the results; a shell keeps going.
	_ = renderResults(sh.cmd.OutOrStdout(), sh.cmd.ErrOrStderr(), results, sh.format)
}

// dotCommand handles one meta command and reports whether to exit.
func (sh *shell) dotCommand(ctx context.Context, line string) bool {
	out, errOut := sh.cmd.OutOrStdout(), sh.cmd.ErrOrStderr()
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		sh.printHelp(out)

	case ".tables":
		tables, err := sh.plugin.ListTables(ctx, sh.session.Conn, "")
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return false
		}
		for _, t := range tables {
			_, _ = fmt.Fprintln(out, t.Name)
		}

	case ".views":
		views, err := sh.plugin.ListViews(ctx, sh.session.Conn, "")
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return false
		}
		for _, v := range views {
			_, _ = fmt.Fprintln(out, v.Name)
		}

	case ".databases":
		dbs, err := sh.plugin.ListDatabases(ctx, sh.session.Conn)
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return false
		}
		for _, db := range dbs {
			_, _ = fmt.Fprintln(out, db)
		}

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errOut, "Usage: .schema <table>")
			return false
		}
		if err := sh.showSchema(ctx, parts[1]); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		}

	case ".use":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errOut, "Usage: .use <database>")
			return false
		}
		if err := sh.session.Conn.SwitchDatabase(ctx, parts[1]); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return false
		}
		sh.session.Database = parts[1]
		_, _ = fmt.Fprintf(out, "Switched to %s\n", parts[1])

	case ".format":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(out, "Format: %s\n", sh.format)
			return false
		}
		if err := validateFormat(parts[1]); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return false
		}
		sh.format = parts[1]
		_, _ = fmt.Fprintf(out, "Format set to %s\n", sh.format)

	case ".clear":
		_, _ = fmt.Fprint(out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func (sh *shell) showSchema(ctx context.Context, tableName string) error {
	out := sh.cmd.OutOrStdout()

	cols, err := sh.plugin.ListColumns(ctx, sh.session.Conn, "", tableName)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("table %q not found", tableName)
	}

	_, _ = fmt.Fprintf(out, "Table: %s\n", tableName)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type", "Nullable", "Default"})
	for _, col := range cols {
		nullable := "YES"
		if !col.Nullable {
			nullable = "NO"
		}
		dflt := ""
		if col.DefaultValue != nil {
			dflt = *col.DefaultValue
		}
		if col.PrimaryKey {
			if dflt != "" {
				dflt += " "
			}
			dflt += "(primary key)"
		}
		t.AppendRow(table.Row{col.Name, col.DataType, nullable, dflt})
	}
	t.Render()

	indexes, err := sh.plugin.ListIndexes(ctx, sh.session.Conn, "", tableName)
	if err == nil && len(indexes) > 0 {
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, "Indexes:")
		for _, idx := range indexes {
			unique := ""
			if idx.Unique {
				unique = " (unique)"
			}
			_, _ = fmt.Fprintf(out, "  %s%s [%s]\n", idx.Name, unique, strings.Join(idx.Columns, ", "))
		}
	}

	return nil
}

func (sh *shell) printHelp(w io.Writer) {
	help := `
Commands:
  .help            Show this help message
  .tables          List tables in the current database
  .views           List views in the current database
  .databases       List databases on the server
  .schema <name>   Show columns and indexes for a table
  .use <db>        Switch the active database
  .format [f]      Show or set the result format (table|json|csv|md)
  .clear           Clear the screen
  .quit / .exit    Exit the shell

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// completer offers table names and dot-commands. Introspection failures
// degrade to dot-commands only.
func (sh *shell) completer(ctx context.Context) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface

	if tables, err := sh.plugin.ListTables(ctx, sh.session.Conn, ""); err == nil {
		for _, t := range tables {
			items = append(items, readline.PcItem(t.Name))
		}
	}

	var tableItems []readline.PrefixCompleterInterface
	for _, it := range items {
		tableItems = append(tableItems, it)
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".views"),
		readline.PcItem(".databases"),
		readline.PcItem(".schema", tableItems...),
		readline.PcItem(".use"),
		readline.PcItem(".format"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
