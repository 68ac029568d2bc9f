package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/plugin"
)

// newTestConn opens an in-memory database and applies the schema the
// introspection tests inspect.
func newTestConn(t *testing.T) (*Plugin, plugin.Conn) {
	t.Helper()

	p := New(nil)
	conn, err := p.Connect(context.Background(), core.Config{Type: "sqlite"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx := context.Background()
	schema := `
CREATE TABLE users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  email TEXT NOT NULL UNIQUE,
  age INTEGER
);
CREATE TABLE orders (
  id INTEGER PRIMARY KEY,
  user_id INTEGER REFERENCES users(id) ON DELETE CASCADE
);
CREATE VIEW adult_users AS SELECT email FROM users WHERE age >= 18;
`
	results, err := conn.Execute(ctx, schema, core.ExecOptions{StopOnError: true})
	require.NoError(t, err)
	for _, res := range results {
		require.False(t, res.IsError(), "schema statement failed: %s", res.Message)
	}

	// Trigger bodies carry semicolons, so create it as a single statement.
	_, err = conn.Query(ctx, `CREATE TRIGGER users_audit AFTER UPDATE ON users
BEGIN
  UPDATE users SET age = NEW.age WHERE id = NEW.id;
END`, nil, core.ExecOptions{})
	require.NoError(t, err)

	return p, conn
}

func TestNew(t *testing.T) {
	p := New(nil)

	assert.Equal(t, "sqlite", p.Type())
	assert.Equal(t, `"`, p.QuoteRune())
	assert.False(t, p.SupportsSchemas())
	assert.False(t, p.SupportsSequences())
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  core.Config
		want string
	}{
		{
			name: "empty path means in-memory",
			cfg:  core.Config{},
			want: ":memory:",
		},
		{
			name: "plain file path",
			cfg:  core.Config{Path: "data.db"},
			want: "data.db",
		},
		{
			name: "options become sorted pragmas",
			cfg: core.Config{
				Path: "data.db",
				Options: map[string]string{
					"journal_mode": "WAL",
					"foreign_keys": "1",
				},
			},
			want: "data.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildDSN(tt.cfg))
		})
	}
}

func TestListDatabases(t *testing.T) {
	p, conn := newTestConn(t)

	dbs, err := p.ListDatabases(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, dbs)

	current, err := conn.CurrentDatabase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "main", current)
}

func TestListTables(t *testing.T) {
	p, conn := newTestConn(t)

	tables, err := p.ListTables(context.Background(), conn, "main")
	require.NoError(t, err)

	names := make([]string, len(tables))
	for i, tbl := range tables {
		names[i] = tbl.Name
	}
	// sqlite_sequence (created by AUTOINCREMENT) stays hidden.
	assert.Equal(t, []string{"orders", "users"}, names)
}

func TestListColumns(t *testing.T) {
	p, conn := newTestConn(t)

	cols, err := p.ListColumns(context.Background(), conn, "main", "users")
	require.NoError(t, err)
	require.Len(t, cols, 3)

	assert.Equal(t, "id", cols[0].Name)
	assert.True(t, cols[0].PrimaryKey)
	assert.True(t, cols[0].AutoIncrement)
	assert.Equal(t, 1, cols[0].Position)

	assert.Equal(t, "email", cols[1].Name)
	assert.False(t, cols[1].Nullable)
	assert.False(t, cols[1].AutoIncrement)

	assert.Equal(t, "age", cols[2].Name)
	assert.True(t, cols[2].Nullable)
	assert.Equal(t, 3, cols[2].Position)
}

func TestListColumnsNoAutoincrement(t *testing.T) {
	p, conn := newTestConn(t)

	// orders.id is INTEGER PRIMARY KEY without AUTOINCREMENT.
	cols, err := p.ListColumns(context.Background(), conn, "main", "orders")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.True(t, cols[0].PrimaryKey)
	assert.False(t, cols[0].AutoIncrement)
}

func TestListIndexes(t *testing.T) {
	p, conn := newTestConn(t)

	indexes, err := p.ListIndexes(context.Background(), conn, "main", "users")
	require.NoError(t, err)
	require.NotEmpty(t, indexes)

	var unique *core.IndexInfo
	for i := range indexes {
		if len(indexes[i].Columns) == 1 && indexes[i].Columns[0] == "email" {
			unique = &indexes[i]
		}
	}
	require.NotNil(t, unique, "expected an index over email")
	assert.True(t, unique.Unique)
}

func TestListForeignKeys(t *testing.T) {
	p, conn := newTestConn(t)

	fks, err := p.ListForeignKeys(context.Background(), conn, "main", "orders")
	require.NoError(t, err)
	require.Len(t, fks, 1)

	assert.Equal(t, "users", fks[0].RefTable)
	assert.Equal(t, []string{"user_id"}, fks[0].Columns)
	assert.Equal(t, []string{"id"}, fks[0].RefColumns)
	require.NotNil(t, fks[0].OnDelete)
	assert.Equal(t, "CASCADE", *fks[0].OnDelete)
}

func TestListViews(t *testing.T) {
	p, conn := newTestConn(t)

	views, err := p.ListViews(context.Background(), conn, "main")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "adult_users", views[0].Name)
	require.NotNil(t, views[0].Definition)
	assert.Contains(t, *views[0].Definition, "SELECT email FROM users")
}

func TestListTriggers(t *testing.T) {
	p, conn := newTestConn(t)

	triggers, err := p.ListTriggers(context.Background(), conn, "main")
	require.NoError(t, err)
	require.Len(t, triggers, 1)

	assert.Equal(t, "users_audit", triggers[0].Name)
	assert.Equal(t, "users", triggers[0].TableName)
	assert.Equal(t, "UPDATE", triggers[0].Event)
	assert.Equal(t, "AFTER", triggers[0].Timing)

	byTable, err := p.ListTableTriggers(context.Background(), conn, "main", "users")
	require.NoError(t, err)
	assert.Len(t, byTable, 1)

	none, err := p.ListTableTriggers(context.Background(), conn, "main", "orders")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNoRoutines(t *testing.T) {
	p, conn := newTestConn(t)

	funcs, err := p.ListFunctions(context.Background(), conn, "main")
	require.NoError(t, err)
	assert.Empty(t, funcs)

	procs, err := p.ListProcedures(context.Background(), conn, "main")
	require.NoError(t, err)
	assert.Empty(t, procs)
}

func TestParseTriggerHead(t *testing.T) {
	tests := []struct {
		name       string
		sql        string
		wantEvent  string
		wantTiming string
	}{
		{
			name:       "after update",
			sql:        "CREATE TRIGGER t AFTER UPDATE ON users BEGIN SELECT 1; END",
			wantEvent:  "UPDATE",
			wantTiming: "AFTER",
		},
		{
			name:       "before delete",
			sql:        "CREATE TRIGGER t BEFORE DELETE ON users BEGIN SELECT 1; END",
			wantEvent:  "DELETE",
			wantTiming: "BEFORE",
		},
		{
			name:       "instead of insert on a view",
			sql:        "CREATE TRIGGER t INSTEAD OF INSERT ON adult_users BEGIN SELECT 1; END",
			wantEvent:  "INSERT",
			wantTiming: "INSTEAD OF",
		},
		{
			name:       "update of column list",
			sql:        "CREATE TRIGGER t AFTER UPDATE OF age ON users BEGIN SELECT 1; END",
			wantEvent:  "UPDATE",
			wantTiming: "AFTER",
		},
		{
			name:       "event keyword inside trigger name is ignored",
			sql:        "CREATE TRIGGER users_update_audit AFTER DELETE ON users BEGIN SELECT 1; END",
			wantEvent:  "DELETE",
			wantTiming: "AFTER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, timing := parseTriggerHead(tt.sql)
			assert.Equal(t, tt.wantEvent, event)
			assert.Equal(t, tt.wantTiming, timing)
		})
	}
}

func TestQueryRoundTrip(t *testing.T) {
	_, conn := newTestConn(t)
	ctx := context.Background()

	results, err := conn.Execute(ctx, `
INSERT INTO users (email, age) VALUES ('ann@example.com', 34);
INSERT INTO users (email, age) VALUES ('bob@example.com', NULL);
`, core.ExecOptions{StopOnError: true})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].RowsAffected)

	res, err := conn.Query(ctx, "SELECT email, age FROM users ORDER BY id", nil, core.ExecOptions{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	require.NotNil(t, res.Rows[0][1])
	assert.Equal(t, "34", *res.Rows[0][1])
	assert.Nil(t, res.Rows[1][1], "NULL age survives as nil cell")
}

func TestUnsupportedDatabaseDDL(t *testing.T) {
	p := New(nil)

	_, err := p.BuildCreateDatabaseSQL(core.DatabaseOperation{DatabaseName: "x"})
	var unsupported *plugin.UnsupportedError
	require.ErrorAs(t, err, &unsupported)

	assert.Empty(t, p.BuildDropDatabaseSQL("x"))
	assert.Equal(t, `DELETE FROM "logs"`, p.TruncateTableSQL("logs"))
}
