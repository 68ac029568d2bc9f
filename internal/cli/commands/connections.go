package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/onehub-labs/onehub/internal/cli/output"
	"github.com/onehub-labs/onehub/internal/store"
	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/plugin"
)

// NewConnectionsCommand creates the connections command group.
func NewConnectionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connections",
		Aliases: []string{"conn"},
		Short:   "Manage stored connections",
		Long: `Manage stored connection profiles.

Connections are named, typed configurations for reaching a backend.
Database connections can be tested, queried and explored; other kinds
(redis, ssh_sftp, mongodb) are stored for the GUI shell and passed
through untouched.`,
	}

	cmd.AddCommand(newConnectionsListCommand())
	cmd.AddCommand(newConnectionsAddCommand())
	cmd.AddCommand(newConnectionsRemoveCommand())
	cmd.AddCommand(newConnectionsTestCommand())
	cmd.AddCommand(newConnectionsExportCommand())
	cmd.AddCommand(newConnectionsImportCommand())

	return cmd
}

func newConnectionsListCommand() *cobra.Command {
	var workspace string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored connections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			var conns []*store.Connection
			if workspace != "" {
				ws, err := findWorkspaceByName(ctx, cmdCtx.Store, workspace)
				if err != nil {
					return err
				}
				conns, err = cmdCtx.Store.ListConnectionsByWorkspace(ctx, ws.ID)
				if err != nil {
					return err
				}
			} else {
				conns, err = cmdCtx.Store.ListConnections(ctx)
				if err != nil {
					return err
				}
			}

			return renderConnectionList(cmdCtx.Renderer, conns)
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Only connections in this workspace")
	return cmd
}

func renderConnectionList(r *output.Renderer, conns []*store.Connection) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(conns)
	}

	r.Header(1, fmt.Sprintf("Connections (%d total)", len(conns)))
	if len(conns) == 0 {
		r.Muted("No connections stored. Add one with 'onehub connections add'.")
		return nil
	}

	for _, c := range conns {
		detail := string(c.Type)
		if c.Type == store.ConnectionDatabase {
			if p, err := c.DatabaseParams(); err == nil {
				detail = p.DBType + " " + p.Config().Addr()
			}
		}
		r.Printf("  %-24s %s\n", c.Name, r.Styles().Muted.Render(detail))
	}
	return nil
}

func newConnectionsAddCommand() *cobra.Command {
	var (
		dbType    string
		host      string
		port      int
		username  string
		password  string
		database  string
		path      string
		options   []string
		workspace string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a database connection",
		Long: `Store a new database connection profile.

When --password is omitted and a username is set, the password is read
from the terminal without echo.`,
		Example: `  # A local PostgreSQL database
  onehub connections add analytics --type postgres --host localhost --username app --database analytics

  # A SQLite file
  onehub connections add scratch --type sqlite --path ./scratch.db

  # DuckDB with options
  onehub connections add lake --type duckdb --path ./lake.duckdb`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if !plugin.IsRegistered(dbType) {
				return fmt.Errorf("unknown database type %q (known: %s)",
					dbType, strings.Join(plugin.ListPlugins(), ", "))
			}

			if password == "" && username != "" && !cmd.Flags().Changed("password") {
				password, err = promptPassword(cmd)
				if err != nil {
					return err
				}
			}

			opts, err := parseOptions(options)
			if err != nil {
				return err
			}

			params := store.DatabaseParams{
				DBType:       dbType,
				Host:         host,
				Port:         port,
				Username:     username,
				Password:     password,
				DatabaseName: database,
				Path:         path,
				Options:      opts,
			}
			encoded, err := params.Encode()
			if err != nil {
				return err
			}

			rec := &store.Connection{
				Name:   args[0],
				Type:   store.ConnectionDatabase,
				Params: encoded,
			}

			ctx := cmd.Context()
			if workspace != "" {
				ws, err := findWorkspaceByName(ctx, cmdCtx.Store, workspace)
				if err != nil {
					return err
				}
				rec.WorkspaceID = &ws.ID
			}

			if err := cmdCtx.Store.CreateConnection(ctx, rec); err != nil {
				return err
			}

			cmdCtx.Renderer.Success(fmt.Sprintf("Added connection %q (%s)", rec.Name, dbType))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dbType, "type", "t", "", "Database type (mysql|postgres|sqlite|duckdb)")
	cmd.Flags().StringVar(&host, "host", "", "Server host")
	cmd.Flags().IntVar(&port, "port", 0, "Server port (0 uses the backend default)")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	cmd.Flags().StringVarP(&database, "database", "d", "", "Default database")
	cmd.Flags().StringVar(&path, "path", "", "Database file path (sqlite, duckdb)")
	cmd.Flags().StringArrayVar(&options, "option", nil, "Driver option as key=value (repeatable)")
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace to assign the connection to")
	_ = cmd.MarkFlagRequired("type")

	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return plugin.ListPlugins(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func newConnectionsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a stored connection and its saved queries",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			cmdCtx.Sessions.RemoveAll(rec.ID)
			if err := cmdCtx.Store.DeleteConnection(ctx, rec.ID); err != nil {
				return err
			}

			cmdCtx.Renderer.Success(fmt.Sprintf("Removed connection %q", rec.Name))
			return nil
		},
	}
}

func newConnectionsTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test <name>",
		Short: "Test a stored connection by dialing and pinging it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			r := cmdCtx.Renderer
			spinner := r.NewSpinner(fmt.Sprintf("Connecting to %s...", cfg.Addr()))
			spinner.Start()

			start := time.Now()
			err = testDial(cmd, cfg, cmdCtx)
			elapsed := time.Since(start)

			if err != nil {
				spinner.Fail(fmt.Sprintf("Connection %q failed: %v", rec.Name, err))
				return fmt.Errorf("connection test failed: %w", err)
			}
			spinner.Success(fmt.Sprintf("Connection %q OK (%s)", rec.Name, elapsed.Round(time.Millisecond)))
			return nil
		},
	}
}

func testDial(cmd *cobra.Command, cfg core.Config, cmdCtx *CommandContext) error {
	ctx := cmd.Context()

	p, err := plugin.New(cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	conn, err := p.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	return conn.Ping(ctx)
}

// connectionExport is the YAML document used by export/import.
type connectionExport struct {
	Name      string               `yaml:"name"`
	Type      store.ConnectionType `yaml:"type"`
	Workspace string               `yaml:"workspace,omitempty"`
	Database  *core.Config         `yaml:"database,omitempty"`
	Params    string               `yaml:"params,omitempty"`
}

func newConnectionsExportCommand() *cobra.Command {
	var (
		outPath     string
		withSecrets bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export connection definitions as YAML",
		Long: `Write all stored connections as a YAML document.

Passwords are redacted unless --with-secrets is set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			conns, err := cmdCtx.Store.ListConnections(ctx)
			if err != nil {
				return err
			}

			workspaces, err := cmdCtx.Store.ListWorkspaces(ctx)
			if err != nil {
				return err
			}
			workspaceName := make(map[string]string, len(workspaces))
			for _, ws := range workspaces {
				workspaceName[ws.ID] = ws.Name
			}

			docs := make([]connectionExport, 0, len(conns))
			for _, c := range conns {
				doc := connectionExport{Name: c.Name, Type: c.Type}
				if c.WorkspaceID != nil {
					doc.Workspace = workspaceName[*c.WorkspaceID]
				}
				if c.Type == store.ConnectionDatabase {
					cfg, err := c.Config()
					if err != nil {
						return err
					}
					if !withSecrets {
						cfg.Password = ""
					}
					doc.Database = &cfg
				} else {
					doc.Params = c.Params
				}
				docs = append(docs, doc)
			}

			raw, err := yaml.Marshal(docs)
			if err != nil {
				return fmt.Errorf("failed to encode connections: %w", err)
			}

			if outPath == "" || outPath == "-" {
				_, err = cmd.OutOrStdout().Write(raw)
				return err
			}
			if err := os.WriteFile(outPath, raw, 0600); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Exported %d connection(s) to %s", len(docs), outPath))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "O", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&withSecrets, "with-secrets", false, "Include passwords in the export")
	return cmd
}

func newConnectionsImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import connection definitions from YAML",
		Long: `Read a YAML document written by 'connections export' and create the
connections it describes. Existing names are skipped. Workspaces named
by the document are created when missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			var docs []connectionExport
			if err := yaml.Unmarshal(raw, &docs); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}

			ctx := cmd.Context()
			r := cmdCtx.Renderer
			imported := 0
			for _, doc := range docs {
				if doc.Name == "" {
					return errors.New("connection without a name in import document")
				}

				rec := &store.Connection{Name: doc.Name, Type: doc.Type}
				if doc.Type == store.ConnectionDatabase {
					if doc.Database == nil {
						return fmt.Errorf("connection %q has no database section", doc.Name)
					}
					params := paramsFromConfig(*doc.Database)
					rec.Params, err = params.Encode()
					if err != nil {
						return err
					}
				} else {
					rec.Params = doc.Params
				}

				if doc.Workspace != "" {
					ws, err := ensureWorkspace(ctx, cmdCtx.Store, doc.Workspace)
					if err != nil {
						return err
					}
					rec.WorkspaceID = &ws.ID
				}

				err = cmdCtx.Store.CreateConnection(ctx, rec)
				switch {
				case errors.Is(err, store.ErrDuplicateName):
					r.Warning(fmt.Sprintf("Skipped %q: name already exists", doc.Name))
					continue
				case err != nil:
					return err
				}
				imported++
			}

			r.Success(fmt.Sprintf("Imported %d of %d connection(s)", imported, len(docs)))
			return nil
		},
	}
}

// paramsFromConfig is the inverse of DatabaseParams.Config for imports.
func paramsFromConfig(cfg core.Config) store.DatabaseParams {
	return store.DatabaseParams{
		DBType:       cfg.Type,
		Host:         cfg.Host,
		Port:         cfg.Port,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DatabaseName: cfg.Database,
		Path:         cfg.Path,
		Options:      cfg.Options,
		Params:       cfg.Params,
	}
}

// promptPassword reads a password from the terminal without echo. Falls
// back to an empty password when stdin is not a terminal.
func promptPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	raw, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

// parseOptions turns repeated key=value flags into a map.
func parseOptions(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	opts := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid option %q, expected key=value", pair)
		}
		opts[key] = value
	}
	return opts, nil
}

// findWorkspaceByName looks a workspace up by its unique name.
func findWorkspaceByName(ctx context.Context, st *store.Store, name string) (*store.Workspace, error) {
	workspaces, err := st.ListWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	for _, ws := range workspaces {
		if ws.Name == name {
			return ws, nil
		}
	}
	return nil, fmt.Errorf("workspace %q: %w", name, store.ErrNotFound)
}

// ensureWorkspace finds a workspace by name, creating it when missing.
func ensureWorkspace(ctx context.Context, st *store.Store, name string) (*store.Workspace, error) {
	ws, err := findWorkspaceByName(ctx, st, name)
	if err == nil {
		return ws, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	ws = &store.Workspace{Name: name}
	if err := st.CreateWorkspace(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}
