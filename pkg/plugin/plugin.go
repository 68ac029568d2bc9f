// Package plugin defines the contract that all database backends implement.
//
// A Plugin knows how to dial its engine, introspect schema objects and build
// dialect-correct DDL. A Conn is one live session against that engine and
// carries the execution protocol (scripts, single statements, streaming).
// Concrete implementations live in pkg/plugins/ subdirectories and register
// themselves in init(); import a backend with a blank identifier to make it
// available:
//
//	import _ "github.com/onehub-labs/onehub/pkg/plugins/sqlite"
package plugin

import (
	"context"

	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/sqltext"
)

// Plugin is the backend contract. Implementations embed BasePlugin for the
// statement helpers and DDL defaults and override what their dialect needs.
type Plugin interface {
	// Type returns the registry identifier ("mysql", "postgres", ...).
	Type() string

	// QuoteRune returns the identifier quote character for the dialect.
	QuoteRune() string

	// QuoteIdentifier quotes an identifier, escaping embedded quotes.
	QuoteIdentifier(name string) string

	// Connect dials the backend and returns a live session.
	Connect(ctx context.Context, cfg core.Config) (Conn, error)

	// SupportsSchemas reports whether databases contain named schemas.
	SupportsSchemas() bool

	// SupportsSequences reports whether the engine has sequence objects.
	SupportsSequences() bool

	// Introspection. The database argument selects the catalog to inspect;
	// engines without catalog switching ignore it.
	ListDatabases(ctx context.Context, conn Conn) ([]string, error)
	ListDatabasesDetailed(ctx context.Context, conn Conn) ([]core.DatabaseInfo, error)
	ListSchemas(ctx context.Context, conn Conn, database string) ([]string, error)
	ListTables(ctx context.Context, conn Conn, database string) ([]core.TableInfo, error)
	ListColumns(ctx context.Context, conn Conn, database, table string) ([]core.ColumnInfo, error)
	ListIndexes(ctx context.Context, conn Conn, database, table string) ([]core.IndexInfo, error)
	ListForeignKeys(ctx context.Context, conn Conn, database, table string) ([]core.ForeignKeyInfo, error)
	ListViews(ctx context.Context, conn Conn, database string) ([]core.ViewInfo, error)
	ListFunctions(ctx context.Context, conn Conn, database string) ([]core.RoutineInfo, error)
	ListProcedures(ctx context.Context, conn Conn, database string) ([]core.RoutineInfo, error)
	ListTriggers(ctx context.Context, conn Conn, database string) ([]core.TriggerInfo, error)
	ListTableTriggers(ctx context.Context, conn Conn, database, table string) ([]core.TriggerInfo, error)
	ListSequences(ctx context.Context, conn Conn, database string) ([]core.SequenceInfo, error)

	// Statement helpers, defaulted by BasePlugin to pkg/sqltext.
	SplitScript(script string) []string
	IsQueryStatement(sql string) bool
	ClassifyStatement(sql string) sqltext.StatementType
	AnalyzeSelectEditability(sql string) string

	// DDL builders.
	BuildCreateDatabaseSQL(op core.DatabaseOperation) (string, error)
	BuildModifyDatabaseSQL(op core.DatabaseOperation) (string, error)
	BuildDropDatabaseSQL(name string) string
	BuildCreateSchemaSQL(name string) string
	BuildDropSchemaSQL(name string) string
	BuildColumnDefinition(col core.ColumnInfo, includeName bool) string
	DropTableSQL(table string) string
	TruncateTableSQL(table string) string
	RenameTableSQL(oldName, newName string) string
	DropViewSQL(view string) string

	// Catalog hooks for the GUI's create-database / create-table forms.
	Charsets() []core.CharsetInfo
	Collations(charset string) []core.CollationInfo
	DataTypes() []core.DataTypeInfo
}

// Conn is one live session against a backend. Sessions are single-user:
// the session manager hands a Conn to one caller at a time.
type Conn interface {
	// Ping verifies the session is alive (default probe: SELECT 1).
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error

	// Execute splits a script, classifies each statement and runs them in
	// order. Queries return ResultQuery with the row cap applied, other
	// statements ResultExec with a summary message. A failing statement
	// becomes a ResultError and, when opts.StopOnError is set, ends the
	// script. The returned error reports infrastructure failures only.
	Execute(ctx context.Context, script string, opts core.ExecOptions) ([]core.Result, error)

	// Query runs a single statement with optional driver-level args.
	Query(ctx context.Context, sql string, args []any, opts core.ExecOptions) (core.Result, error)

	// ExecuteStream is Execute with a per-statement progress callback.
	// When opts.Transactional is set the script runs in one transaction
	// that rolls back on the first failing statement.
	ExecuteStream(ctx context.Context, script string, opts core.ExecOptions, fn core.StreamFunc) error

	// CurrentDatabase returns the session's active database.
	CurrentDatabase(ctx context.Context) (string, error)

	// SwitchDatabase changes the session's active database in place.
	// Engines without in-session switching return UnsupportedError.
	SwitchDatabase(ctx context.Context, name string) error

	// SupportsDatabaseSwitch reports whether SwitchDatabase works without
	// reconnecting.
	SupportsDatabaseSwitch() bool
}
