// Package duckdb implements the DuckDB backend.
package duckdb

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/plugin"
)

// Plugin is the DuckDB backend. Databases are attached catalogs (one file
// each), every catalog carries named schemas, and introspection reads the
// duckdb_* table functions. The catalog filter in each query resolves an
// empty database argument to the session's current catalog.
type Plugin struct {
	plugin.BasePlugin
}

// New builds the DuckDB plugin. A nil logger discards.
func New(logger *slog.Logger) *Plugin {
	return &Plugin{BasePlugin: plugin.NewBasePlugin("duckdb", `"`, logger)}
}

var _ plugin.Plugin = (*Plugin)(nil)

func (p *Plugin) SupportsSchemas() bool { return true }

func (p *Plugin) SupportsSequences() bool { return true }

func (p *Plugin) ListDatabases(ctx context.Context, conn plugin.Conn) ([]string, error) {
	rows, err := plugin.QueryRows(ctx, conn,
		"SELECT database_name FROM duckdb_databases() WHERE NOT internal ORDER BY database_name")
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
    d.database_name,
    d.path,
    (SELECT COUNT(*) FROM duckdb_tables() t
     WHERE t.database_name = d.database_name AND NOT t.internal)
FROM duckdb_databases() d
WHERE NOT d.internal
ORDER BY d.database_name`

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
			Name: name,
			// The backing file path; in-memory catalogs report NULL.
			Comment:    plugin.CellPtr(row, 1),
			TableCount: plugin.CellInt64(row, 2),
		})
	}
	return dbs, nil
}

const schemasSQL = `SELECT schema_name
FROM duckdb_schemas()
WHERE NOT internal
  AND database_name = COALESCE(NULLIF(?, ''), current_database())
ORDER BY schema_name`

func (p *Plugin) ListSchemas(ctx context.Context, conn plugin.Conn, database string) ([]string, error) {
	rows, err := plugin.QueryRows(ctx, conn, schemasSQL, database)
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

const tablesSQL = `SELECT table_name, schema_name, estimated_size
FROM duckdb_tables()
WHERE NOT internal
  AND database_name = COALESCE(NULLIF(?, ''), current_database())
ORDER BY schema_name, table_name`

func (p *Plugin) ListTables(ctx context.Context, conn plugin.Conn, database string) ([]core.TableInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn, tablesSQL, database)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	tables := make([]core.TableInfo, 0, len(rows))
	for _, row := range rows {
		t := core.TableInfo{
			Name:     plugin.Cell(row, 0),
			RowCount: plugin.CellInt64(row, 2),
		}
		if s := plugin.Cell(row, 1); s != "" {
			t.Schema = core.StrPtr(s)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

const columnsSQL = `SELECT column_name, data_type, is_nullable, column_default, column_index
FROM duckdb_columns()
WHERE NOT internal
  AND database_name = COALESCE(NULLIF(?, ''), current_database())
  AND table_name = ?
ORDER BY column_index`

const primaryKeySQL = `SELECT UNNEST(constraint_column_names)
FROM duckdb_constraints()
WHERE database_name = COALESCE(NULLIF(?, ''), current_database())
  AND table_name = ?
  AND constraint_type = 'PRIMARY KEY'`

func (p *Plugin) ListColumns(ctx context.Context, conn plugin.Conn, database, table string) ([]core.ColumnInfo, error) {
	pkRows, err := plugin.QueryRows(ctx, conn, primaryKeySQL, database, table)
	if err != nil {
		return nil, fmt.Errorf("list primary key: %w", err)
	}
	pk := make(map[string]bool, len(pkRows))
	for _, row := range pkRows {
		pk[plugin.Cell(row, 0)] = true
	}

	rows, err := plugin.QueryRows(ctx, conn, columnsSQL, database, table)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}

	cols := make([]core.ColumnInfo, 0, len(rows))
	for i, row := range rows {
		col := core.ColumnInfo{
			Name:         plugin.Cell(row, 0),
			DataType:     plugin.Cell(row, 1),
			Nullable:     plugin.CellBool(row, 2),
			DefaultValue: plugin.CellPtr(row, 3),
			Position:     i + 1,
		}
		col.PrimaryKey = pk[col.Name]
		// Sequence-backed columns default to nextval('...'); DuckDB has no
		// other auto-increment mechanism.
		col.AutoIncrement = col.DefaultValue != nil && strings.HasPrefix(*col.DefaultValue, "nextval")
		cols = append(cols, col)
	}
	return cols, nil
}

const indexesSQL = `SELECT index_name, is_unique
FROM duckdb_indexes()
WHERE database_name = COALESCE(NULLIF(?, ''), current_database())
  AND table_name = ?
ORDER BY index_name`

// ListIndexes reports index names and uniqueness. duckdb_indexes() exposes
// no stable per-column listing, so Columns stays empty.
func (p *Plugin) ListIndexes(ctx context.Context, conn plugin.Conn, database, table string) ([]core.IndexInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn, indexesSQL, database, table)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}

	indexes := make([]core.IndexInfo, 0, len(rows))
	for _, row := range rows {
		indexes = append(indexes, core.IndexInfo{
			Name:   plugin.Cell(row, 0),
			Unique: plugin.CellBool(row, 1),
		})
	}
	return indexes, nil
}

const viewsSQL = `SELECT view_name, schema_name, sql
FROM duckdb_views()
WHERE NOT internal
  AND database_name = COALESCE(NULLIF(?, ''), current_database())
ORDER BY schema_name, view_name`

func (p *Plugin) ListViews(ctx context.Context, conn plugin.Conn, database string) ([]core.ViewInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn, viewsSQL, database)
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

const functionsSQL = `SELECT DISTINCT function_name, schema_name, return_type
FROM duckdb_functions()
WHERE NOT internal
  AND database_name = COALESCE(NULLIF(?, ''), current_database())
ORDER BY function_name`

// ListFunctions reports user-defined macros; built-in functions are internal
// and filtered out.
func (p *Plugin) ListFunctions(ctx context.Context, conn plugin.Conn, database string) ([]core.RoutineInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn, functionsSQL, database)
	if err != nil {
		return nil, fmt.Errorf("list functions: %w", err)
	}

	routines := make([]core.RoutineInfo, 0, len(rows))
	for _, row := range rows {
		r := core.RoutineInfo{
			Name:       plugin.Cell(row, 0),
			Kind:       core.RoutineFunction,
			ReturnType: plugin.CellPtr(row, 2),
		}
		if s := plugin.Cell(row, 1); s != "" {
			r.Schema = core.StrPtr(s)
		}
		routines = append(routines, r)
	}
	return routines, nil
}

// ListProcedures returns nothing: DuckDB has no stored procedures.
func (p *Plugin) ListProcedures(ctx context.Context, conn plugin.Conn, database string) ([]core.RoutineInfo, error) {
	return nil, nil
}

// ListTriggers returns nothing: DuckDB has no triggers.
func (p *Plugin) ListTriggers(ctx context.Context, conn plugin.Conn, database string) ([]core.TriggerInfo, error) {
	return nil, nil
}

const sequencesSQL = `SELECT sequence_name, start_value, increment_by, min_value, max_value
FROM duckdb_sequences()
WHERE database_name = COALESCE(NULLIF(?, ''), current_database())
ORDER BY sequence_name`

func (p *Plugin) ListSequences(ctx context.Context, conn plugin.Conn, database string) ([]core.SequenceInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn, sequencesSQL, database)
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

// BuildCreateDatabaseSQL is unsupported: DuckDB databases are files, added
// to a session with ATTACH rather than created by DDL.
func (p *Plugin) BuildCreateDatabaseSQL(op core.DatabaseOperation) (string, error) {
	return "", &plugin.UnsupportedError{Op: "create database", Type: "duckdb"}
}

// BuildDropDatabaseSQL returns no statement; dropping means detaching or
// deleting the file.
func (p *Plugin) BuildDropDatabaseSQL(name string) string { return "" }

func (p *Plugin) DataTypes() []core.DataTypeInfo {
	return []core.DataTypeInfo{
		{Name: "BOOLEAN", Description: "True/False"},
		{Name: "TINYINT", Description: "1-byte signed integer"},
		{Name: "SMALLINT", Description: "2-byte signed integer"},
		{Name: "INTEGER", Description: "4-byte signed integer"},
		{Name: "BIGINT", Description: "8-byte signed integer"},
		{Name: "HUGEINT", Description: "16-byte signed integer"},
		{Name: "UINTEGER", Description: "4-byte unsigned integer"},
		{Name: "UBIGINT", Description: "8-byte unsigned integer"},
		{Name: "REAL", Description: "Single-precision float"},
		{Name: "DOUBLE", Description: "Double-precision float"},
		{Name: "DECIMAL(18,3)", Description: "Fixed-point decimal"},
		{Name: "VARCHAR", Description: "Variable-length string"},
		{Name: "BLOB", Description: "Binary data"},
		{Name: "DATE", Description: "Date"},
		{Name: "TIME", Description: "Time of day"},
		{Name: "TIMESTAMP", Description: "Date and time"},
		{Name: "TIMESTAMPTZ", Description: "Date and time with time zone"},
		{Name: "INTERVAL", Description: "Time span"},
		{Name: "UUID", Description: "Universally unique identifier"},
		{Name: "JSON", Description: "JSON document"},
	}
}
