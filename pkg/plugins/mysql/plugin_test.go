package mysql

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/plugin"
)

func newMockConn(t *testing.T) (*Plugin, *Conn, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	p := New(nil)
	return p, &Conn{BaseConn: plugin.NewBaseConn(db, p, nil)}, mock
}

func TestNew(t *testing.T) {
	p := New(nil)

	assert.Equal(t, "mysql", p.Type())
	assert.Equal(t, "`", p.QuoteRune())
	assert.Equal(t, "`order`", p.QuoteIdentifier("order"))
	assert.False(t, p.SupportsSchemas())
	assert.False(t, p.SupportsSequences())
}

func TestListDatabases(t *testing.T) {
	p, conn, mock := newMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA")).
		WillReturnRows(sqlmock.NewRows([]string{"SCHEMA_NAME"}).
			AddRow("information_schema").
			AddRow("shop"))

	dbs, err := p.ListDatabases(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, []string{"information_schema", "shop"}, dbs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDatabasesDetailed(t *testing.T) {
	p, conn, mock := newMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN INFORMATION_SCHEMA.TABLES t")).
		WillReturnRows(sqlmock.NewRows([]string{"name", "charset", "collation", "tables"}).
			AddRow("shop", "utf8mb4", "utf8mb4_general_ci", 12).
			AddRow("empty_db", nil, nil, 0))

	dbs, err := p.ListDatabasesDetailed(context.Background(), conn)
	require.NoError(t, err)
	require.Len(t, dbs, 2)

	assert.Equal(t, "shop", dbs[0].Name)
	require.NotNil(t, dbs[0].Charset)
	assert.Equal(t, "utf8mb4", *dbs[0].Charset)
	require.NotNil(t, dbs[0].TableCount)
	assert.Equal(t, int64(12), *dbs[0].TableCount)

	assert.Nil(t, dbs[1].Charset)
	assert.Nil(t, dbs[1].Collation)
}

func TestListTables(t *testing.T) {
	p, conn, mock := newMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM INFORMATION_SCHEMA.TABLES")).
		WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "TABLE_COMMENT", "ENGINE", "TABLE_ROWS", "TABLE_COLLATION"}).
			AddRow("users", "registered users", "InnoDB", 42, "utf8mb4_general_ci").
			AddRow("logs", "", nil, nil, nil))

	tables, err := p.ListTables(context.Background(), conn, "shop")
	require.NoError(t, err)
	require.Len(t, tables, 2)

	assert.Equal(t, "users", tables[0].Name)
	require.NotNil(t, tables[0].Comment)
	assert.Equal(t, "registered users", *tables[0].Comment)
	require.NotNil(t, tables[0].Charset)
	assert.Equal(t, "utf8mb4", *tables[0].Charset)
	require.NotNil(t, tables[0].RowCount)
	assert.Equal(t, int64(42), *tables[0].RowCount)

	assert.Nil(t, tables[1].Comment)
	assert.Nil(t, tables[1].Engine)
	assert.Nil(t, tables[1].Charset)
}

func TestListColumns(t *testing.T) {
	p, conn, mock := newMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM INFORMATION_SCHEMA.COLUMNS")).
		WithArgs("shop", "users").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "COLUMN_TYPE", "IS_NULLABLE", "COLUMN_KEY", "COLUMN_DEFAULT", "COLUMN_COMMENT", "EXTRA", "ORDINAL_POSITION"}).
			AddRow("id", "int", "NO", "PRI", nil, "", "auto_increment", 1).
			AddRow("email", "varchar(255)", "YES", "", nil, "contact address", "", 2))

	cols, err := p.ListColumns(context.Background(), conn, "shop", "users")
	require.NoError(t, err)
	require.Len(t, cols, 2)

	assert.Equal(t, "id", cols[0].Name)
	assert.True(t, cols[0].PrimaryKey)
	assert.True(t, cols[0].AutoIncrement)
	assert.False(t, cols[0].Nullable)
	assert.Equal(t, 1, cols[0].Position)

	assert.Equal(t, "email", cols[1].Name)
	assert.True(t, cols[1].Nullable)
	assert.False(t, cols[1].PrimaryKey)
	require.NotNil(t, cols[1].Comment)
	assert.Equal(t, "contact address", *cols[1].Comment)
	assert.Equal(t, 2, cols[1].Position)
}

func TestListIndexesGroupsColumns(t *testing.T) {
	p, conn, mock := newMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM INFORMATION_SCHEMA.STATISTICS")).
		WithArgs("shop", "users").
		WillReturnRows(sqlmock.NewRows([]string{"INDEX_NAME", "COLUMN_NAME", "NON_UNIQUE", "INDEX_TYPE"}).
			AddRow("PRIMARY", "id", "0", "BTREE").
			AddRow("idx_name_email", "name", "1", "BTREE").
			AddRow("idx_name_email", "email", "1", "BTREE"))

	indexes, err := p.ListIndexes(context.Background(), conn, "shop", "users")
	require.NoError(t, err)
	require.Len(t, indexes, 2)

	assert.Equal(t, "PRIMARY", indexes[0].Name)
	assert.True(t, indexes[0].Unique)
	assert.Equal(t, []string{"id"}, indexes[0].Columns)

	assert.Equal(t, "idx_name_email", indexes[1].Name)
	assert.False(t, indexes[1].Unique)
	assert.Equal(t, []string{"name", "email"}, indexes[1].Columns)
}

func TestListForeignKeys(t *testing.T) {
	p, conn, mock := newMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE k")).
		WithArgs("shop", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"CONSTRAINT_NAME", "COLUMN_NAME", "REFERENCED_TABLE_NAME", "REFERENCED_COLUMN_NAME", "UPDATE_RULE", "DELETE_RULE"}).
			AddRow("fk_orders_user", "user_id", "users", "id", "CASCADE", "RESTRICT"))

	fks, err := p.ListForeignKeys(context.Background(), conn, "shop", "orders")
	require.NoError(t, err)
	require.Len(t, fks, 1)

	assert.Equal(t, "fk_orders_user", fks[0].Name)
	assert.Equal(t, []string{"user_id"}, fks[0].Columns)
	assert.Equal(t, "users", fks[0].RefTable)
	assert.Equal(t, []string{"id"}, fks[0].RefColumns)
	require.NotNil(t, fks[0].OnDelete)
	assert.Equal(t, "RESTRICT", *fks[0].OnDelete)
}

func TestListViews(t *testing.T) {
	p, conn, mock := newMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM INFORMATION_SCHEMA.VIEWS")).
		WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "VIEW_DEFINITION"}).
			AddRow("active_users", "select * from users where active = 1"))

	views, err := p.ListViews(context.Background(), conn, "shop")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "active_users", views[0].Name)
	require.NotNil(t, views[0].Definition)
}

func TestListRoutines(t *testing.T) {
	p, conn, mock := newMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta("ROUTINE_TYPE = 'FUNCTION'")).
		WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"ROUTINE_NAME", "DTD_IDENTIFIER"}).
			AddRow("order_total", "decimal(10,2)"))
	mock.ExpectQuery(regexp.QuoteMeta("ROUTINE_TYPE = 'PROCEDURE'")).
		WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"ROUTINE_NAME"}).
			AddRow("archive_orders"))

	funcs, err := p.ListFunctions(context.Background(), conn, "shop")
	require.NoError(t, err)
	require.Len(t, funcs, 1)
	assert.Equal(t, core.RoutineFunction, funcs[0].Kind)
	require.NotNil(t, funcs[0].ReturnType)
	assert.Equal(t, "decimal(10,2)", *funcs[0].ReturnType)

	procs, err := p.ListProcedures(context.Background(), conn, "shop")
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.Equal(t, "archive_orders", procs[0].Name)
	assert.Equal(t, core.RoutineProcedure, procs[0].Kind)
}

func TestListTableTriggers(t *testing.T) {
	p, conn, mock := newMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta("EVENT_OBJECT_TABLE = ?")).
		WithArgs("shop", "users").
		WillReturnRows(sqlmock.NewRows([]string{"TRIGGER_NAME", "EVENT_OBJECT_TABLE", "EVENT_MANIPULATION", "ACTION_TIMING"}).
			AddRow("users_audit", "users", "UPDATE", "AFTER"))

	triggers, err := p.ListTableTriggers(context.Background(), conn, "shop", "users")
	require.NoError(t, err)
	require.Len(t, triggers, 1)
	assert.Equal(t, "users_audit", triggers[0].Name)
	assert.Equal(t, "UPDATE", triggers[0].Event)
	assert.Equal(t, "AFTER", triggers[0].Timing)
}

func TestBuildCreateDatabaseSQL(t *testing.T) {
	p := New(nil)

	tests := []struct {
		name string
		op   core.DatabaseOperation
		want string
	}{
		{
			name: "name only",
			op:   core.DatabaseOperation{DatabaseName: "shop"},
			want: "CREATE DATABASE `shop`",
		},
		{
			name: "charset",
			op: core.DatabaseOperation{
				DatabaseName: "shop",
				FieldValues:  map[string]string{"charset": "utf8mb4"},
			},
			want: "CREATE DATABASE `shop` CHARACTER SET utf8mb4",
		},
		{
			name: "charset and collation",
			op: core.DatabaseOperation{
				DatabaseName: "shop",
				FieldValues: map[string]string{
					"charset":   "utf8mb4",
					"collation": "utf8mb4_unicode_ci",
				},
			},
			want: "CREATE DATABASE `shop` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.BuildCreateDatabaseSQL(tt.op)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := p.BuildCreateDatabaseSQL(core.DatabaseOperation{})
	assert.Error(t, err)
}

func TestBuildModifyDatabaseSQL(t *testing.T) {
	p := New(nil)

	got, err := p.BuildModifyDatabaseSQL(core.DatabaseOperation{
		DatabaseName: "shop",
		FieldValues:  map[string]string{"collation": "utf8mb4_bin"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ALTER DATABASE `shop` COLLATE utf8mb4_bin", got)

	_, err = p.BuildModifyDatabaseSQL(core.DatabaseOperation{DatabaseName: "shop"})
	assert.Error(t, err)
}

func TestCharsetCatalog(t *testing.T) {
	p := New(nil)

	charsets := p.Charsets()
	require.NotEmpty(t, charsets)
	assert.Equal(t, "utf8mb4", charsets[0].Name)

	collations := p.Collations("utf8mb4")
	require.NotEmpty(t, collations)
	assert.True(t, collations[0].Default)
	assert.Equal(t, "utf8mb4_general_ci", collations[0].Name)

	assert.Nil(t, p.Collations("no_such_charset"))
}
