// Package sqlite implements the SQLite backend.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/plugin"
)

// Plugin is the SQLite backend. A session sees one logical database ("main",
// plus anything attached); databases are files, so create and drop have no
// SQL form here.
type Plugin struct {
	plugin.BasePlugin
}

// New builds the SQLite plugin. A nil logger discards.
func New(logger *slog.Logger) *Plugin {
	return &Plugin{BasePlugin: plugin.NewBasePlugin("sqlite", `"`, logger)}
}

var _ plugin.Plugin = (*Plugin)(nil)

func (p *Plugin) ListDatabases(ctx context.Context, conn plugin.Conn) ([]string, error) {
	rows, err := plugin.QueryRows(ctx, conn, "PRAGMA database_list")
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}

	// PRAGMA database_list yields seq, name, file.
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name := plugin.Cell(row, 1); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (p *Plugin) ListDatabasesDetailed(ctx context.Context, conn plugin.Conn) ([]core.DatabaseInfo, error) {
	names, err := p.ListDatabases(ctx, conn)
	if err != nil {
		return nil, err
	}

	dbs := make([]core.DatabaseInfo, 0, len(names))
	for _, name := range names {
		dbs = append(dbs, core.DatabaseInfo{Name: name})
	}
	return dbs, nil
}

func (p *Plugin) ListTables(ctx context.Context, conn plugin.Conn, database string) ([]core.TableInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	tables := make([]core.TableInfo, 0, len(rows))
	for _, row := range rows {
		tables = append(tables, core.TableInfo{Name: plugin.Cell(row, 0)})
	}
	return tables, nil
}

func (p *Plugin) ListColumns(ctx context.Context, conn plugin.Conn, database, table string) ([]core.ColumnInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn,
		fmt.Sprintf("PRAGMA table_info(%s)", p.QuoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}

	// AUTOINCREMENT never shows up in table_info; it only exists in the
	// original CREATE TABLE text.
	autoinc := tableUsesAutoincrement(ctx, conn, table)

	// PRAGMA table_info yields cid, name, type, notnull, dflt_value, pk.
	cols := make([]core.ColumnInfo, 0, len(rows))
	for i, row := range rows {
		col := core.ColumnInfo{
			Name:         plugin.Cell(row, 1),
			DataType:     plugin.Cell(row, 2),
			Nullable:     !plugin.CellBool(row, 3),
			DefaultValue: plugin.CellPtr(row, 4),
			PrimaryKey:   plugin.CellBool(row, 5),
			Position:     i + 1,
		}
		col.AutoIncrement = autoinc && col.PrimaryKey && strings.EqualFold(col.DataType, "INTEGER")
		cols = append(cols, col)
	}
	return cols, nil
}

func tableUsesAutoincrement(ctx context.Context, conn plugin.Conn, table string) bool {
	rows, err := plugin.QueryRows(ctx, conn,
		"SELECT sql FROM sqlite_master WHERE type='table' AND name = ?", table)
	if err != nil || len(rows) == 0 {
		return false
	}
	return strings.Contains(strings.ToUpper(plugin.Cell(rows[0], 0)), "AUTOINCREMENT")
}

func (p *Plugin) ListIndexes(ctx context.Context, conn plugin.Conn, database, table string) ([]core.IndexInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn,
		fmt.Sprintf("PRAGMA index_list(%s)", p.QuoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}

	// PRAGMA index_list yields seq, name, unique, origin, partial.
	indexes := make([]core.IndexInfo, 0, len(rows))
	for _, row := range rows {
		name := plugin.Cell(row, 1)
		idx := core.IndexInfo{Name: name, Unique: plugin.CellBool(row, 2)}

		infoRows, err := plugin.QueryRows(ctx, conn,
			fmt.Sprintf("PRAGMA index_info(%s)", p.QuoteIdentifier(name)))
		if err == nil {
			// PRAGMA index_info yields seqno, cid, name.
			for _, info := range infoRows {
				if col := plugin.Cell(info, 2); col != "" {
					idx.Columns = append(idx.Columns, col)
				}
			}
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

func (p *Plugin) ListForeignKeys(ctx context.Context, conn plugin.Conn, database, table string) ([]core.ForeignKeyInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn,
		fmt.Sprintf("PRAGMA foreign_key_list(%s)", p.QuoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("list foreign keys: %w", err)
	}

	// PRAGMA foreign_key_list yields id, seq, table, from, to, on_update,
	// on_delete, match. Multi-column keys repeat the id.
	var fks []core.ForeignKeyInfo
	pos := make(map[string]int)
	for _, row := range rows {
		id := plugin.Cell(row, 0)
		i, ok := pos[id]
		if !ok {
			i = len(fks)
			pos[id] = i
			fk := core.ForeignKeyInfo{
				Name:     fmt.Sprintf("fk_%s_%s", table, id),
				RefTable: plugin.Cell(row, 2),
			}
			if s := plugin.Cell(row, 5); s != "" {
				fk.OnUpdate = core.StrPtr(s)
			}
			if s := plugin.Cell(row, 6); s != "" {
				fk.OnDelete = core.StrPtr(s)
			}
			fks = append(fks, fk)
		}
		fks[i].Columns = append(fks[i].Columns, plugin.Cell(row, 3))
		fks[i].RefColumns = append(fks[i].RefColumns, plugin.Cell(row, 4))
	}
	return fks, nil
}

func (p *Plugin) ListViews(ctx context.Context, conn plugin.Conn, database string) ([]core.ViewInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn,
		"SELECT name, sql FROM sqlite_master WHERE type='view' ORDER BY name")
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

// ListFunctions returns none: SQLite has no stored routines.
func (p *Plugin) ListFunctions(ctx context.Context, conn plugin.Conn, database string) ([]core.RoutineInfo, error) {
	return nil, nil
}

// ListProcedures returns none: SQLite has no stored routines.
func (p *Plugin) ListProcedures(ctx context.Context, conn plugin.Conn, database string) ([]core.RoutineInfo, error) {
	return nil, nil
}

func (p *Plugin) ListTriggers(ctx context.Context, conn plugin.Conn, database string) ([]core.TriggerInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn,
		"SELECT name, tbl_name, sql FROM sqlite_master WHERE type='trigger' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list triggers: %w", err)
	}
	return triggersFromRows(rows), nil
}

func (p *Plugin) ListTableTriggers(ctx context.Context, conn plugin.Conn, database, table string) ([]core.TriggerInfo, error) {
	rows, err := plugin.QueryRows(ctx, conn,
		"SELECT name, tbl_name, sql FROM sqlite_master WHERE type='trigger' AND tbl_name = ? ORDER BY name", table)
	if err != nil {
		return nil, fmt.Errorf("list table triggers: %w", err)
	}
	return triggersFromRows(rows), nil
}

func triggersFromRows(rows [][]*string) []core.TriggerInfo {
	triggers := make([]core.TriggerInfo, 0, len(rows))
	for _, row := range rows {
		def := plugin.Cell(row, 2)
		event, timing := parseTriggerHead(def)
		t := core.TriggerInfo{
			Name:      plugin.Cell(row, 0),
			TableName: plugin.Cell(row, 1),
			Event:     event,
			Timing:    timing,
		}
		if def != "" {
			t.Definition = core.StrPtr(def)
		}
		triggers = append(triggers, t)
	}
	return triggers
}

// parseTriggerHead recovers event and timing from the CREATE TRIGGER text,
// scanning only up to the ON keyword so names and body text don't confuse it.
func parseTriggerHead(sql string) (event, timing string) {
	head := strings.ToUpper(sql)
	if i := strings.Index(head, " ON "); i > 0 {
		head = head[:i]
	}

	fields := strings.Fields(head)
	for i, f := range fields {
		switch f {
		case "BEFORE", "AFTER":
			timing = f
		case "INSTEAD":
			if i+1 < len(fields) && fields[i+1] == "OF" {
				timing = "INSTEAD OF"
			}
		case "INSERT", "UPDATE", "DELETE":
			if event == "" {
				event = f
			}
		}
	}
	return event, timing
}

// BuildCreateDatabaseSQL has no SQL form: SQLite databases are files.
func (p *Plugin) BuildCreateDatabaseSQL(op core.DatabaseOperation) (string, error) {
	return "", &plugin.UnsupportedError{Op: "create database", Type: "sqlite"}
}

// BuildDropDatabaseSQL has no SQL form: SQLite databases are files.
func (p *Plugin) BuildDropDatabaseSQL(name string) string { return "" }

// TruncateTableSQL uses DELETE: SQLite has no TRUNCATE statement.
func (p *Plugin) TruncateTableSQL(table string) string {
	return "DELETE FROM " + p.QuoteIdentifier(table)
}

// DataTypes lists SQLite's storage classes and common type aliases.
func (p *Plugin) DataTypes() []core.DataTypeInfo {
	return []core.DataTypeInfo{
		{Name: "INTEGER", Description: "Signed integer"},
		{Name: "REAL", Description: "Floating-point number"},
		{Name: "TEXT", Description: "Text string"},
		{Name: "BLOB", Description: "Binary data"},
		{Name: "NUMERIC", Description: "Numeric affinity"},
		{Name: "BOOLEAN", Description: "True/False (stored as INTEGER)"},
		{Name: "DATE", Description: "Date (stored as TEXT)"},
		{Name: "DATETIME", Description: "Date and time (stored as TEXT)"},
	}
}
