package core_test

import (
	"testing"

	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeTypeLabel(t *testing.T) {
	assert.Equal(t, "Tables", core.NodeTablesFolder.Label())
	assert.Equal(t, "Foreign Keys", core.NodeForeignKeyFolder.Label())
	assert.Equal(t, "Procedures", core.NodeProcFolder.Label())
	assert.Equal(t, "Table", core.NodeTable.Label())
	assert.Equal(t, "Database", core.NodeDatabase.Label())
}

func TestSortChildren(t *testing.T) {
	root := core.NewNode("c1:db", "db", core.NodeDatabase, "c1", "sqlite")
	root.SetChildren([]*core.Node{
		core.NewNode("c1:db:views_folder", "Views", core.NodeViewsFolder, "c1", "sqlite"),
		core.NewNode("c1:db:tables_folder", "Tables", core.NodeTablesFolder, "c1", "sqlite"),
	})
	root.SortChildren()

	require.Len(t, root.Children, 2)
	assert.Equal(t, core.NodeTablesFolder, root.Children[0].Type)
	assert.Equal(t, core.NodeViewsFolder, root.Children[1].Type)
}

func TestSortChildrenByName(t *testing.T) {
	folder := core.NewNode("c1:db:tables_folder", "Tables", core.NodeTablesFolder, "c1", "sqlite")
	folder.SetChildren([]*core.Node{
		core.NewNode("c1:db:tables_folder:zebra", "zebra", core.NodeTable, "c1", "sqlite"),
		core.NewNode("c1:db:tables_folder:Apple", "Apple", core.NodeTable, "c1", "sqlite"),
		core.NewNode("c1:db:tables_folder:mango", "mango", core.NodeTable, "c1", "sqlite"),
	})
	folder.SortChildren()

	names := []string{folder.Children[0].Name, folder.Children[1].Name, folder.Children[2].Name}
	assert.Equal(t, []string{"Apple", "mango", "zebra"}, names)
}

func TestFieldTypeFromDBType(t *testing.T) {
	cases := []struct {
		dbType string
		want   core.FieldType
	}{
		{"INT", core.FieldNumber},
		{"BIGINT UNSIGNED", core.FieldNumber},
		{"decimal(10,2)", core.FieldNumber},
		{"VARCHAR(255)", core.FieldText},
		{"text", core.FieldText},
		{"BOOLEAN", core.FieldBoolean},
		{"tinyint(1)", core.FieldNumber},
		{"TIMESTAMP WITH TIME ZONE", core.FieldDateTime},
		{"datetime", core.FieldDateTime},
		{"DATE", core.FieldDate},
		{"time", core.FieldTime},
		{"jsonb", core.FieldJSON},
		{"BLOB", core.FieldBinary},
		{"bytea", core.FieldBinary},
		{"uuid", core.FieldText},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, core.FieldTypeFromDBType(tc.dbType), "dbType=%s", tc.dbType)
	}
}

func TestFilterOperatorSQL(t *testing.T) {
	assert.Equal(t, `"name" = 'bob'`, core.OpEquals.SQL(`"name"`, "bob"))
	assert.Equal(t, `"name" LIKE '%ob%'`, core.OpContains.SQL(`"name"`, "ob"))
	assert.Equal(t, `"name" LIKE 'bo%'`, core.OpStartsWith.SQL(`"name"`, "bo"))
	assert.Equal(t, `"name" IS NULL`, core.OpIsNull.SQL(`"name"`, ""))
	assert.Equal(t, `"age" >= '21'`, core.OpGreaterEq.SQL(`"age"`, "21"))
}

func TestFilterOperatorSQLEscapesQuotes(t *testing.T) {
	got := core.OpEquals.SQL(`"name"`, "o'brien")
	assert.Equal(t, `"name" = 'o''brien'`, got)
}

func TestTableDataRequestNormalize(t *testing.T) {
	req := core.TableDataRequest{Page: 0, PageSize: -5}
	req.Normalize()
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 100, req.PageSize)

	req = core.TableDataRequest{Page: 3, PageSize: 50}
	req.Normalize()
	assert.Equal(t, 3, req.Page)
	assert.Equal(t, 50, req.PageSize)
}

func TestConfigRedacted(t *testing.T) {
	cfg := core.Config{
		Type:     "postgres",
		Host:     "db.internal",
		Port:     5432,
		Username: "app",
		Password: "hunter2",
	}
	red := cfg.Redacted()
	assert.Equal(t, "********", red.Password)
	assert.Equal(t, "hunter2", cfg.Password, "original must not change")
}

func TestConfigAddr(t *testing.T) {
	cfg := core.Config{Host: "localhost", Port: 3306}
	assert.Equal(t, "localhost:3306", cfg.Addr())
}

func TestResultConstructors(t *testing.T) {
	q := core.NewQueryResult("SELECT 1", []string{"a"}, [][]*string{{core.StrPtr("1")}}, 12)
	assert.Equal(t, core.ResultQuery, q.Kind)
	assert.False(t, q.IsError())

	e := core.NewExecResult("DELETE FROM t", 3, 4, "Deleted 3 row(s)")
	assert.Equal(t, core.ResultExec, e.Kind)
	assert.EqualValues(t, 3, e.RowsAffected)

	er := core.NewErrorResult("SELEC", "syntax error")
	assert.True(t, er.IsError())
	assert.Equal(t, "syntax error", er.Message)
}

func TestDefaultExecOptions(t *testing.T) {
	opts := core.DefaultExecOptions()
	assert.True(t, opts.StopOnError)
	assert.False(t, opts.Transactional)
	assert.Equal(t, 1000, opts.MaxRows)
}
