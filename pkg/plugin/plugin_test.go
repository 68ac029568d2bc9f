package plugin

import (
	"context"
	"strings"

	"github.com/onehub-labs/onehub/pkg/core"
)

// fakePlugin is a minimal Plugin for exercising the base machinery without
// a real driver. Introspection answers come from the struct fields.
type fakePlugin struct {
	BasePlugin
	columns []core.ColumnInfo
	indexes []core.IndexInfo
}

func newFakePlugin(name, quote string) *fakePlugin {
	return &fakePlugin{BasePlugin: NewBasePlugin(name, quote, nil)}
}

func (p *fakePlugin) Connect(ctx context.Context, cfg core.Config) (Conn, error) {
	return nil, &ConnectError{Type: p.Name, Err: ErrNotConnected}
}

func (p *fakePlugin) ListDatabases(ctx context.Context, conn Conn) ([]string, error) {
	return []string{"main"}, nil
}

func (p *fakePlugin) ListDatabasesDetailed(ctx context.Context, conn Conn) ([]core.DatabaseInfo, error) {
	return []core.DatabaseInfo{{Name: "main"}}, nil
}

func (p *fakePlugin) ListSchemas(ctx context.Context, conn Conn, database string) ([]string, error) {
	return nil, nil
}

func (p *fakePlugin) ListTables(ctx context.Context, conn Conn, database string) ([]core.TableInfo, error) {
	return nil, nil
}

func (p *fakePlugin) ListColumns(ctx context.Context, conn Conn, database, table string) ([]core.ColumnInfo, error) {
	return p.columns, nil
}

func (p *fakePlugin) ListIndexes(ctx context.Context, conn Conn, database, table string) ([]core.IndexInfo, error) {
	return p.indexes, nil
}

func (p *fakePlugin) ListForeignKeys(ctx context.Context, conn Conn, database, table string) ([]core.ForeignKeyInfo, error) {
	return nil, nil
}

func (p *fakePlugin) ListViews(ctx context.Context, conn Conn, database string) ([]core.ViewInfo, error) {
	return nil, nil
}

func (p *fakePlugin) ListFunctions(ctx context.Context, conn Conn, database string) ([]core.RoutineInfo, error) {
	return nil, nil
}

func (p *fakePlugin) ListProcedures(ctx context.Context, conn Conn, database string) ([]core.RoutineInfo, error) {
	return nil, nil
}

func (p *fakePlugin) ListTriggers(ctx context.Context, conn Conn, database string) ([]core.TriggerInfo, error) {
	return nil, nil
}

func (p *fakePlugin) ListTableTriggers(ctx context.Context, conn Conn, database, table string) ([]core.TriggerInfo, error) {
	return nil, nil
}

func (p *fakePlugin) ListSequences(ctx context.Context, conn Conn, database string) ([]core.SequenceInfo, error) {
	return nil, nil
}

func (p *fakePlugin) BuildCreateDatabaseSQL(op core.DatabaseOperation) (string, error) {
	return "CREATE DATABASE " + p.QuoteIdentifier(op.DatabaseName), nil
}

// fakeConn cans Query responses for the table data helper. COUNT queries
// answer with total, everything else with rows. Executed SQL is recorded.
type fakeConn struct {
	BaseConn
	total string
	rows  [][]*string
	cols  []string
	seen  []string
}

func (c *fakeConn) Query(ctx context.Context, sqlStr string, args []any, opts core.ExecOptions) (core.Result, error) {
	c.seen = append(c.seen, sqlStr)
	if strings.HasPrefix(strings.ToUpper(sqlStr), "SELECT COUNT(*)") {
		return core.NewQueryResult(sqlStr, []string{"count"}, [][]*string{{&c.total}}, 0), nil
	}
	return core.NewQueryResult(sqlStr, c.cols, c.rows, 0), nil
}
