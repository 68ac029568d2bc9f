// Package postgres implements the PostgreSQL backend.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/plugin"
)

// Plugin is the PostgreSQL backend. Identifiers are double-quoted; schemas
// and sequences are first-class. A session is bound to one database for its
// lifetime, so database switching requires a reconnect.
type Plugin struct {
	plugin.BasePlugin
}

// New builds the PostgreSQL plugin. A nil logger discards.
func New(logger *slog.Logger) *Plugin {
	return &Plugin{BasePlugin: plugin.NewBasePlugin("postgres", `"`, logger)}
}

var _ plugin.Plugin = (*Plugin)(nil)

// SupportsSchemas reports that databases contain named schemas.
func (p *Plugin) SupportsSchemas() bool { return true }

// SupportsSequences reports that sequences are first-class objects.
func (p *Plugin) SupportsSequences() bool { return true }

func (p *Plugin) ListDatabases(ctx context.Context, conn plugin.Conn) ([]string, error) {
	rows, err := plugin.QueryRows(ctx, conn,
		"SELECT datname FROM pg_database WHERE datistemplate = false ORDER BY datname")
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name := plugin.Cell(row, 0); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

const databasesDetailedSQL = `SELECT
    d.datname,
    pg_encoding_to_char(d.encoding),
    d.datcollate,
    pg_size_pretty(pg_database_size(d.datname)),
    (SELECT COUNT(*) FROM pg_tables WHERE schemaname = 'public'),
    shobj_description(d.oid, 'pg_database')
FROM pg_database d
WHERE d.datistemplate = false
ORDER BY d.datname`

func (p *Plugin) ListDatabasesDetailed(ctx context.Context, conn plugin.Conn) ([]core.DatabaseInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn, databasesDetailedSQL)
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}

	dbs := make([]core.DatabaseInfo, 0, len(rows))
	for _, row := range rows {
		name := plugin.Cell(row, 0)
		if name == "" {
			continue
		}
		dbs = append(dbs, core.DatabaseInfo{
			Name:       name,
			Charset:    plugin.CellPtr(row, 1),
			Collation:  plugin.CellPtr(row, 2),
			Size:       plugin.CellPtr(row, 3),
			TableCount: plugin.CellInt64(row, 4),
			Comment:    plugin.CellPtr(row, 5),
		})
	}
	return dbs, nil
}

const schemasSQL = `SELECT schema_name FROM information_schema.schemata
WHERE schema_name NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
ORDER BY schema_name`

func (p *Plugin) ListSchemas(ctx context.Context, conn plugin.Conn, database string) ([]string, error) {
	rows, err := plugin.QueryRows(ctx, conn, schemasSQL)
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name := plugin.Cell(row, 0); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// The session is already bound to a database, so table introspection ignores
// the database argument and walks every visible schema.
const tablesSQL = `SELECT
    t.tablename,
    t.schemaname,
    obj_description((quote_ident(t.schemaname) || '.' || quote_ident(t.tablename))::regclass),
    (SELECT reltuples::bigint FROM pg_class c JOIN pg_namespace n ON c.relnamespace = n.oid
     WHERE c.relname = t.tablename AND n.nspname = t.schemaname)
FROM pg_tables t
WHERE t.schemaname NOT IN ('pg_catalog', 'information_schema')
ORDER BY t.schemaname, t.tablename`

func (p *Plugin) ListTables(ctx context.Context, conn plugin.Conn, database string) ([]core.TableInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn, tablesSQL)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	tables := make([]core.TableInfo, 0, len(rows))
	for _, row := range rows {
		t := core.TableInfo{
			Name:     plugin.Cell(row, 0),
			RowCount: plugin.CellInt64(row, 3),
		}
		if s := plugin.Cell(row, 1); s != "" {
			t.Schema = core.StrPtr(s)
		}
		if s := plugin.Cell(row, 2); s != "" {
			t.Comment = core.StrPtr(s)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

const columnsSQL = `SELECT column_name, data_type, is_nullable, column_default,
    (SELECT COUNT(*) FROM information_schema.key_column_usage kcu
     WHERE kcu.table_name = c.table_name AND kcu.column_name = c.column_name
     AND kcu.table_schema = 'public' AND EXISTS
     (SELECT 1 FROM information_schema.table_constraints tc
      WHERE tc.constraint_name = kcu.constraint_name AND tc.constraint_type = 'PRIMARY KEY')) > 0 AS is_primary
FROM information_schema.columns c
WHERE table_schema = 'public' AND table_name = $1
ORDER BY ordinal_position`

func (p *Plugin) ListColumns(ctx context.Context, conn plugin.Conn, database, table string) ([]core.ColumnInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn, columnsSQL, table)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}

	cols := make([]core.ColumnInfo, 0, len(rows))
	for i, row := range rows {
		def := plugin.CellPtr(row, 3)
		cols = append(cols, core.ColumnInfo{
			Name:         plugin.Cell(row, 0),
			DataType:     plugin.Cell(row, 1),
			Nullable:     plugin.CellBool(row, 2),
			DefaultValue: def,
			PrimaryKey:   plugin.CellBool(row, 4),
			// serial columns default to nextval('..._seq').
			AutoIncrement: def != nil && strings.HasPrefix(*def, "nextval"),
			Position:      i + 1,
		})
	}
	return cols, nil
}

const indexesSQL = `SELECT i.relname, a.attname, ix.indisunique
FROM pg_class t
JOIN pg_index ix ON t.oid = ix.indrelid
JOIN pg_class i ON i.oid = ix.indexrelid
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
WHERE t.relname = $1 AND t.relkind = 'r'
ORDER BY i.relname, a.attnum`

func (p *Plugin) ListIndexes(ctx context.Context, conn plugin.Conn, database, table string) ([]core.IndexInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn, indexesSQL, table)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}

	var indexes []core.IndexInfo
	pos := make(map[string]int)
	for _, row := range rows {
		name := plugin.Cell(row, 0)
		i, ok := pos[name]
		if !ok {
			i = len(indexes)
			pos[name] = i
			indexes = append(indexes, core.IndexInfo{
				Name:      name,
				Unique:    plugin.CellBool(row, 2),
				IndexType: core.StrPtr("btree"),
			})
		}
		indexes[i].Columns = append(indexes[i].Columns, plugin.Cell(row, 1))
	}
	return indexes, nil
}

const viewsSQL = `SELECT table_name, table_schema, view_definition
FROM information_schema.views
WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
ORDER BY table_schema, table_name`

func (p *Plugin) ListViews(ctx context.Context, conn plugin.Conn, database string) ([]core.ViewInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn, viewsSQL)
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}

	views := make([]core.ViewInfo, 0, len(rows))
	for _, row := range rows {
		v := core.ViewInfo{
			Name:       plugin.Cell(row, 0),
			Definition: plugin.CellPtr(row, 2),
		}
		if s := plugin.Cell(row, 1); s != "" {
			v.Schema = core.StrPtr(s)
		}
		views = append(views, v)
	}
	return views, nil
}

const functionsSQL = `SELECT routine_name, data_type FROM information_schema.routines
WHERE routine_schema = 'public' AND routine_type = 'FUNCTION'
ORDER BY routine_name`

func (p *Plugin) ListFunctions(ctx context.Context, conn plugin.Conn, database string) ([]core.RoutineInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn, functionsSQL)
	if err != nil {
		return nil, fmt.Errorf("list functions: %w", err)
	}

	funcs := make([]core.RoutineInfo, 0, len(rows))
	for _, row := range rows {
		funcs = append(funcs, core.RoutineInfo{
			Name:       plugin.Cell(row, 0),
			Kind:       core.RoutineFunction,
			ReturnType: plugin.CellPtr(row, 1),
		})
	}
	return funcs, nil
}

const proceduresSQL = `SELECT routine_name FROM information_schema.routines
WHERE routine_schema = 'public' AND routine_type = 'PROCEDURE'
ORDER BY routine_name`

func (p *Plugin) ListProcedures(ctx context.Context, conn plugin.Conn, database string) ([]core.RoutineInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn, proceduresSQL)
	if err != nil {
		return nil, fmt.Errorf("list procedures: %w", err)
	}

	procs := make([]core.RoutineInfo, 0, len(rows))
	for _, row := range rows {
		procs = append(procs, core.RoutineInfo{
			Name: plugin.Cell(row, 0),
			Kind: core.RoutineProcedure,
		})
	}
	return procs, nil
}

const triggersSQL = `SELECT trigger_name, event_object_table, event_manipulation, action_timing
FROM information_schema.triggers
WHERE trigger_schema = 'public'
ORDER BY trigger_name`

func (p *Plugin) ListTriggers(ctx context.Context, conn plugin.Conn, database string) ([]core.TriggerInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn, triggersSQL)
	if err != nil {
		return nil, fmt.Errorf("list triggers: %w", err)
	}
	return triggersFromRows(rows), nil
}

const tableTriggersSQL = `SELECT trigger_name, event_object_table, event_manipulation, action_timing
FROM information_schema.triggers
WHERE trigger_schema = 'public' AND event_object_table = $1
ORDER BY trigger_name`

func (p *Plugin) ListTableTriggers(ctx context.Context, conn plugin.Conn, database, table string) ([]core.TriggerInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn, tableTriggersSQL, table)
	if err != nil {
		return nil, fmt.Errorf("list table triggers: %w", err)
	}
	return triggersFromRows(rows), nil
}

func triggersFromRows(rows [][]*string) []core.TriggerInfo {
	triggers := make([]core.TriggerInfo, 0, len(rows))
	for _, row := range rows {
		triggers = append(triggers, core.TriggerInfo{
			Name:      plugin.Cell(row, 0),
			TableName: plugin.Cell(row, 1),
			Event:     plugin.Cell(row, 2),
			Timing:    plugin.Cell(row, 3),
		})
	}
	return triggers
}

const sequencesSQL = `SELECT sequence_name, start_value::bigint, increment::bigint, minimum_value::bigint, maximum_value::bigint
FROM information_schema.sequences
WHERE sequence_schema = 'public'
ORDER BY sequence_name`

func (p *Plugin) ListSequences(ctx context.Context, conn plugin.Conn, database string) ([]core.SequenceInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn, sequencesSQL)
	if err != nil {
		return nil, fmt.Errorf("list sequences: %w", err)
	}

	seqs := make([]core.SequenceInfo, 0, len(rows))
	for _, row := range rows {
		seqs = append(seqs, core.SequenceInfo{
			Name:       plugin.Cell(row, 0),
			StartValue: plugin.CellInt64(row, 1),
			Increment:  plugin.CellInt64(row, 2),
			MinValue:   plugin.CellInt64(row, 3),
			MaxValue:   plugin.CellInt64(row, 4),
		})
	}
	return seqs, nil
}

// BuildCreateDatabaseSQL renders CREATE DATABASE with optional owner,
// encoding and template attributes.
func (p *Plugin) BuildCreateDatabaseSQL(op core.DatabaseOperation) (string, error) {
	if op.DatabaseName == "" {
		return "", fmt.Errorf("database name is required")
	}

	sql := "CREATE DATABASE " + p.QuoteIdentifier(op.DatabaseName)
	if owner := op.FieldValues["owner"]; owner != "" {
		sql += " OWNER " + p.QuoteIdentifier(owner)
	}

	encoding := op.FieldValues["encoding"]
	if encoding == "" {
		encoding = "UTF8"
	}
	sql += fmt.Sprintf(" ENCODING '%s'", encoding)

	if template := op.FieldValues["template"]; template != "" {
		sql += " TEMPLATE " + p.QuoteIdentifier(template)
	}
	return sql, nil
}

// BuildModifyDatabaseSQL renders ALTER DATABASE for an owner change.
func (p *Plugin) BuildModifyDatabaseSQL(op core.DatabaseOperation) (string, error) {
	if op.DatabaseName == "" {
		return "", fmt.Errorf("database name is required")
	}
	if owner := op.FieldValues["owner"]; owner != "" {
		return "ALTER DATABASE " + p.QuoteIdentifier(op.DatabaseName) + " OWNER TO " + p.QuoteIdentifier(owner), nil
	}
	return "", fmt.Errorf("no database attributes to modify")
}

// DataTypes lists the column types offered by the create-table form.
func (p *Plugin) DataTypes() []core.DataTypeInfo {
	return []core.DataTypeInfo{
		{Name: "SMALLINT", Description: "Small integer (-32768 to 32767)"},
		{Name: "INTEGER", Description: "Standard integer"},
		{Name: "BIGINT", Description: "Large integer"},
		{Name: "NUMERIC(10,2)", Description: "Exact decimal number"},
		{Name: "REAL", Description: "Single-precision floating-point"},
		{Name: "DOUBLE PRECISION", Description: "Double-precision floating-point"},
		{Name: "SERIAL", Description: "Auto-incrementing integer"},
		{Name: "BIGSERIAL", Description: "Auto-incrementing large integer"},
		{Name: "CHAR(255)", Description: "Fixed-length string"},
		{Name: "VARCHAR(255)", Description: "Variable-length string"},
		{Name: "TEXT", Description: "Unlimited-length text"},
		{Name: "DATE", Description: "Date (YYYY-MM-DD)"},
		{Name: "TIME", Description: "Time of day"},
		{Name: "TIMESTAMP", Description: "Date and time"},
		{Name: "TIMESTAMPTZ", Description: "Date and time with timezone"},
		{Name: "INTERVAL", Description: "Time span"},
		{Name: "BOOLEAN", Description: "True/False"},
		{Name: "BYTEA", Description: "Binary data"},
		{Name: "JSON", Description: "JSON document"},
		{Name: "JSONB", Description: "Binary JSON (indexed)"},
		{Name: "XML", Description: "XML document"},
		{Name: "UUID", Description: "Universally unique identifier"},
		{Name: "INET", Description: "IP address"},
		{Name: "CIDR", Description: "Network address"},
		{Name: "MACADDR", Description: "MAC address"},
	}
}
