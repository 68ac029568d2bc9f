// Package mysql implements the MySQL backend.
package mysql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/plugin"
)

// Plugin is the MySQL backend. Identifiers are backtick-quoted and databases
// are the only namespace level: MySQL schemas and databases are the same
// thing, so SupportsSchemas stays false.
type Plugin struct {
	plugin.BasePlugin
}

// New builds the MySQL plugin. A nil logger discards.
func New(logger *slog.Logger) *Plugin {
	return &Plugin{BasePlugin: plugin.NewBasePlugin("mysql", "`", logger)}
}

var _ plugin.Plugin = (*Plugin)(nil)

// resolveDatabase falls back to the session's active database when the
// caller doesn't name one.
func resolveDatabase(ctx context.Context, conn plugin.Conn, database string) (string, error) {
	if database != "" {
		return database, nil
	}
	return conn.CurrentDatabase(ctx)
}

func (p *Plugin) ListDatabases(ctx context.Context, conn plugin.Conn) ([]string, error) {
	rows, err := plugin.QueryRows(ctx, conn,
		"SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA ORDER BY SCHEMA_NAME")
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
    s.SCHEMA_NAME,
    s.DEFAULT_CHARACTER_SET_NAME,
    s.DEFAULT_COLLATION_NAME,
    COUNT(t.TABLE_NAME)
FROM INFORMATION_SCHEMA.SCHEMATA s
LEFT JOIN INFORMATION_SCHEMA.TABLES t
    ON s.SCHEMA_NAME = t.TABLE_SCHEMA AND t.TABLE_TYPE = 'BASE TABLE'
GROUP BY s.SCHEMA_NAME, s.DEFAULT_CHARACTER_SET_NAME, s.DEFAULT_COLLATION_NAME
ORDER BY s.SCHEMA_NAME`

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
			TableCount: plugin.CellInt64(row, 3),
		})
	}
	return dbs, nil
}

const tablesSQL = `SELECT TABLE_NAME, TABLE_COMMENT, ENGINE, TABLE_ROWS, TABLE_COLLATION
FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_NAME`

func (p *Plugin) ListTables(ctx context.Context, conn plugin.Conn, database string) ([]core.TableInfo, error) {
	db, err := resolveDatabase(ctx, conn, database)
	if err != nil {
		return nil, err
	}

	rows, err := plugin.QueryRows(ctx, conn, tablesSQL, db)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	tables := make([]core.TableInfo, 0, len(rows))
	for _, row := range rows {
		t := core.TableInfo{Name: plugin.Cell(row, 0)}
		if s := plugin.Cell(row, 1); s != "" {
			t.Comment = core.StrPtr(s)
		}
		if s := plugin.Cell(row, 2); s != "" {
			t.Engine = core.StrPtr(s)
		}
		t.RowCount = plugin.CellInt64(row, 3)
		if coll := plugin.Cell(row, 4); coll != "" {
			t.Collation = core.StrPtr(coll)
			// "utf8mb4_general_ci" carries its charset up front.
			if i := strings.Index(coll, "_"); i > 0 {
				t.Charset = core.StrPtr(coll[:i])
			}
		}
		tables = append(tables, t)
	}
	return tables, nil
}

const columnsSQL = `SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_KEY, COLUMN_DEFAULT, COLUMN_COMMENT, EXTRA, ORDINAL_POSITION
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`

func (p *Plugin) ListColumns(ctx context.Context, conn plugin.Conn, database, table string) ([]core.ColumnInfo, error) {
	db, err := resolveDatabase(ctx, conn, database)
	if err != nil {
		return nil, err
	}

	rows, err := plugin.QueryRows(ctx, conn, columnsSQL, db, table)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}

	cols := make([]core.ColumnInfo, 0, len(rows))
	for i, row := range rows {
		col := core.ColumnInfo{
			Name:          plugin.Cell(row, 0),
			DataType:      plugin.Cell(row, 1),
			Nullable:      plugin.CellBool(row, 2),
			PrimaryKey:    plugin.Cell(row, 3) == "PRI",
			DefaultValue:  plugin.CellPtr(row, 4),
			AutoIncrement: strings.Contains(plugin.Cell(row, 6), "auto_increment"),
			Position:      i + 1,
		}
		if s := plugin.Cell(row, 5); s != "" {
			col.Comment = core.StrPtr(s)
		}
		if pos := plugin.CellInt64(row, 7); pos != nil {
			col.Position = int(*pos)
		}
		cols = append(cols, col)
	}
	return cols, nil
}

const indexesSQL = `SELECT INDEX_NAME, COLUMN_NAME, NON_UNIQUE, INDEX_TYPE
FROM INFORMATION_SCHEMA.STATISTICS
WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
ORDER BY INDEX_NAME, SEQ_IN_INDEX`

func (p *Plugin) ListIndexes(ctx context.Context, conn plugin.Conn, database, table string) ([]core.IndexInfo, error) {
	db, err := resolveDatabase(ctx, conn, database)
	if err != nil {
		return nil, err
	}

	rows, err := plugin.QueryRows(ctx, conn, indexesSQL, db, table)
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
			idx := core.IndexInfo{Name: name, Unique: plugin.Cell(row, 2) == "0"}
			if t := plugin.Cell(row, 3); t != "" {
				idx.IndexType = core.StrPtr(t)
			}
			indexes = append(indexes, idx)
		}
		indexes[i].Columns = append(indexes[i].Columns, plugin.Cell(row, 1))
	}
	return indexes, nil
}

const foreignKeysSQL = `SELECT k.CONSTRAINT_NAME, k.COLUMN_NAME, k.REFERENCED_TABLE_NAME, k.REFERENCED_COLUMN_NAME, r.UPDATE_RULE, r.DELETE_RULE
FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE k
JOIN INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS r
    ON k.CONSTRAINT_NAME = r.CONSTRAINT_NAME AND k.CONSTRAINT_SCHEMA = r.CONSTRAINT_SCHEMA
WHERE k.TABLE_SCHEMA = ? AND k.TABLE_NAME = ? AND k.REFERENCED_TABLE_NAME IS NOT NULL
ORDER BY k.CONSTRAINT_NAME, k.ORDINAL_POSITION`

func (p *Plugin) ListForeignKeys(ctx context.Context, conn plugin.Conn, database, table string) ([]core.ForeignKeyInfo, error) {
	db, err := resolveDatabase(ctx, conn, database)
	if err != nil {
		return nil, err
	}

	rows, err := plugin.QueryRows(ctx, conn, foreignKeysSQL, db, table)
	if err != nil {
		return nil, fmt.Errorf("list foreign keys: %w", err)
	}

	var fks []core.ForeignKeyInfo
	pos := make(map[string]int)
	for _, row := range rows {
		name := plugin.Cell(row, 0)
		i, ok := pos[name]
		if !ok {
			i = len(fks)
			pos[name] = i
			fk := core.ForeignKeyInfo{Name: name, RefTable: plugin.Cell(row, 2)}
			if s := plugin.Cell(row, 4); s != "" {
				fk.OnUpdate = core.StrPtr(s)
			}
			if s := plugin.Cell(row, 5); s != "" {
				fk.OnDelete = core.StrPtr(s)
			}
			fks = append(fks, fk)
		}
		fks[i].Columns = append(fks[i].Columns, plugin.Cell(row, 1))
		fks[i].RefColumns = append(fks[i].RefColumns, plugin.Cell(row, 3))
	}
	return fks, nil
}

const viewsSQL = `SELECT TABLE_NAME, VIEW_DEFINITION
FROM INFORMATION_SCHEMA.VIEWS
WHERE TABLE_SCHEMA = ?
ORDER BY TABLE_NAME`

func (p *Plugin) ListViews(ctx context.Context, conn plugin.Conn, database string) ([]core.ViewInfo, error) {
	db, err := resolveDatabase(ctx, conn, database)
	if err != nil {
		return nil, err
	}

	rows, err := plugin.QueryRows(ctx, conn, viewsSQL, db)
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}

	views := make([]core.ViewInfo, 0, len(rows))
	for _, row := range rows {
		views = append(views, core.ViewInfo{
			Name:       plugin.Cell(row, 0),
			Definition: plugin.CellPtr(row, 1),
		})
	}
	return views, nil
}

const functionsSQL = `SELECT ROUTINE_NAME, DTD_IDENTIFIER
FROM INFORMATION_SCHEMA.ROUTINES
WHERE ROUTINE_SCHEMA = ? AND ROUTINE_TYPE = 'FUNCTION'
ORDER BY ROUTINE_NAME`

func (p *Plugin) ListFunctions(ctx context.Context, conn plugin.Conn, database string) ([]core.RoutineInfo, error) {
	db, err := resolveDatabase(ctx, conn, database)
	if err != nil {
		return nil, err
	}

	rows, err := plugin.QueryRows(ctx, conn, functionsSQL, db)
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

const proceduresSQL = `SELECT ROUTINE_NAME
FROM INFORMATION_SCHEMA.ROUTINES
WHERE ROUTINE_SCHEMA = ? AND ROUTINE_TYPE = 'PROCEDURE'
ORDER BY ROUTINE_NAME`

func (p *Plugin) ListProcedures(ctx context.Context, conn plugin.Conn, database string) ([]core.RoutineInfo, error) {
	db, err := resolveDatabase(ctx, conn, database)
	if err != nil {
		return nil, err
	}

	rows, err := plugin.QueryRows(ctx, conn, proceduresSQL, db)
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

const triggersSQL = `SELECT TRIGGER_NAME, EVENT_OBJECT_TABLE, EVENT_MANIPULATION, ACTION_TIMING
FROM INFORMATION_SCHEMA.TRIGGERS
WHERE TRIGGER_SCHEMA = ?
ORDER BY TRIGGER_NAME`

func (p *Plugin) ListTriggers(ctx context.Context, conn plugin.Conn, database string) ([]core.TriggerInfo, error) {
	db, err := resolveDatabase(ctx, conn, database)
	if err != nil {
		return nil, err
	}

	rows, err := plugin.QueryRows(ctx, conn, triggersSQL, db)
	if err != nil {
		return nil, fmt.Errorf("list triggers: %w", err)
	}
	return triggersFromRows(rows), nil
}

const tableTriggersSQL = `SELECT TRIGGER_NAME, EVENT_OBJECT_TABLE, EVENT_MANIPULATION, ACTION_TIMING
FROM INFORMATION_SCHEMA.TRIGGERS
WHERE TRIGGER_SCHEMA = ? AND EVENT_OBJECT_TABLE = ?
ORDER BY TRIGGER_NAME`

func (p *Plugin) ListTableTriggers(ctx context.Context, conn plugin.Conn, database, table string) ([]core.TriggerInfo, error) {
	db, err := resolveDatabase(ctx, conn, database)
	if err != nil {
		return nil, err
	}

	rows, err := plugin.QueryRows(ctx, conn, tableTriggersSQL, db, table)
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

// BuildCreateDatabaseSQL renders CREATE DATABASE with optional charset and
// collation attributes.
func (p *Plugin) BuildCreateDatabaseSQL(op core.DatabaseOperation) (string, error) {
	if op.DatabaseName == "" {
		return "", fmt.Errorf("database name is required")
	}

	sql := "CREATE DATABASE " + p.QuoteIdentifier(op.DatabaseName)
	if charset := op.FieldValues["charset"]; charset != "" {
		sql += " CHARACTER SET " + charset
	}
	if collation := op.FieldValues["collation"]; collation != "" {
		sql += " COLLATE " + collation
	}
	return sql, nil
}

// BuildModifyDatabaseSQL renders ALTER DATABASE for charset and collation
// changes.
func (p *Plugin) BuildModifyDatabaseSQL(op core.DatabaseOperation) (string, error) {
	if op.DatabaseName == "" {
		return "", fmt.Errorf("database name is required")
	}

	var parts []string
	if charset := op.FieldValues["charset"]; charset != "" {
		parts = append(parts, "CHARACTER SET "+charset)
	}
	if collation := op.FieldValues["collation"]; collation != "" {
		parts = append(parts, "COLLATE "+collation)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no database attributes to modify")
	}
	return "ALTER DATABASE " + p.QuoteIdentifier(op.DatabaseName) + " " + strings.Join(parts, " "), nil
}

// Charsets lists the character sets offered by the create-database form.
func (p *Plugin) Charsets() []core.CharsetInfo {
	return []core.CharsetInfo{
		{Name: "utf8mb4", Description: "UTF-8 Unicode (4-byte)", DefaultCollation: "utf8mb4_general_ci"},
		{Name: "utf8mb3", Description: "UTF-8 Unicode (3-byte)", DefaultCollation: "utf8mb3_general_ci"},
		{Name: "latin1", Description: "Western European (cp1252)", DefaultCollation: "latin1_swedish_ci"},
		{Name: "ascii", Description: "US ASCII", DefaultCollation: "ascii_general_ci"},
		{Name: "binary", Description: "Binary pseudo charset", DefaultCollation: "binary"},
	}
}

// Collations lists the collations for a charset, the default first.
func (p *Plugin) Collations(charset string) []core.CollationInfo {
	switch charset {
	case "utf8mb4":
		return []core.CollationInfo{
			{Name: "utf8mb4_general_ci", Charset: charset, Default: true},
			{Name: "utf8mb4_unicode_ci", Charset: charset},
			{Name: "utf8mb4_0900_ai_ci", Charset: charset},
			{Name: "utf8mb4_bin", Charset: charset},
		}
	case "utf8mb3":
		return []core.CollationInfo{
			{Name: "utf8mb3_general_ci", Charset: charset, Default: true},
			{Name: "utf8mb3_unicode_ci", Charset: charset},
			{Name: "utf8mb3_bin", Charset: charset},
		}
	case "latin1":
		return []core.CollationInfo{
			{Name: "latin1_swedish_ci", Charset: charset, Default: true},
			{Name: "latin1_general_ci", Charset: charset},
			{Name: "latin1_bin", Charset: charset},
		}
	case "ascii":
		return []core.CollationInfo{
			{Name: "ascii_general_ci", Charset: charset, Default: true},
			{Name: "ascii_bin", Charset: charset},
		}
	case "binary":
		return []core.CollationInfo{
			{Name: "binary", Charset: charset, Default: true},
		}
	}
	return nil
}

// DataTypes lists the column types offered by the create-table form.
func (p *Plugin) DataTypes() []core.DataTypeInfo {
	return []core.DataTypeInfo{
		{Name: "TINYINT", Description: "Very small integer (-128 to 127)"},
		{Name: "SMALLINT", Description: "Small integer (-32768 to 32767)"},
		{Name: "MEDIUMINT", Description: "Medium integer (-8388608 to 8388607)"},
		{Name: "INT", Description: "Standard integer (-2147483648 to 2147483647)"},
		{Name: "BIGINT", Description: "Large integer"},
		{Name: "DECIMAL(10,2)", Description: "Fixed-point number"},
		{Name: "FLOAT", Description: "Single-precision floating-point"},
		{Name: "DOUBLE", Description: "Double-precision floating-point"},
		{Name: "CHAR(255)", Description: "Fixed-length string"},
		{Name: "VARCHAR(255)", Description: "Variable-length string"},
		{Name: "TINYTEXT", Description: "Very small text (255 bytes)"},
		{Name: "TEXT", Description: "Text (65,535 bytes)"},
		{Name: "MEDIUMTEXT", Description: "Medium text (16MB)"},
		{Name: "LONGTEXT", Description: "Large text (4GB)"},
		{Name: "DATE", Description: "Date (YYYY-MM-DD)"},
		{Name: "TIME", Description: "Time (HH:MM:SS)"},
		{Name: "DATETIME", Description: "Date and time"},
		{Name: "TIMESTAMP", Description: "Timestamp with timezone"},
		{Name: "YEAR", Description: "Year (1901-2155)"},
		{Name: "BINARY(255)", Description: "Fixed-length binary"},
		{Name: "VARBINARY(255)", Description: "Variable-length binary"},
		{Name: "TINYBLOB", Description: "Very small BLOB (255 bytes)"},
		{Name: "BLOB", Description: "BLOB (65KB)"},
		{Name: "MEDIUMBLOB", Description: "Medium BLOB (16MB)"},
		{Name: "LONGBLOB", Description: "Large BLOB (4GB)"},
		{Name: "BOOLEAN", Description: "Boolean (TINYINT(1))"},
		{Name: "JSON", Description: "JSON document"},
		{Name: "ENUM('value1','value2')", Description: "Enumeration"},
		{Name: "SET('value1','value2')", Description: "Set of values"},
	}
}
