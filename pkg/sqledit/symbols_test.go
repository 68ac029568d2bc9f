package sqledit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symbolsFor(sql string) *SymbolTable {
	return BuildSymbols(Tokenize(sql))
}

func TestSymbolsSimpleAlias(t *testing.T) {
	st := symbolsFor("SELECT u.id FROM users u")

	table, ok := st.ResolveAlias("u")
	require.True(t, ok)
	assert.Equal(t, "users", table)
	assert.True(t, st.IsAlias("u"))
	assert.Equal(t, []string{"users"}, st.Tables())
}

func TestSymbolsAliasCaseInsensitive(t *testing.T) {
	st := symbolsFor("SELECT * FROM users U")

	table, ok := st.ResolveAlias("u")
	require.True(t, ok)
	assert.Equal(t, "users", table)
	assert.True(t, st.IsAlias("U"))
}

func TestSymbolsAsAlias(t *testing.T) {
	st := symbolsFor("SELECT * FROM users AS u")

	table, ok := st.ResolveAlias("u")
	require.True(t, ok)
	assert.Equal(t, "users", table)
}

func TestSymbolsBareTable(t *testing.T) {
	st := symbolsFor("SELECT * FROM users")

	table, ok := st.ResolveAlias("users")
	require.True(t, ok)
	assert.Equal(t, "users", table)
	assert.Equal(t, []string{"users"}, st.Tables())
}

func TestSymbolsJoin(t *testing.T) {
	st := symbolsFor("SELECT * FROM users u JOIN departments d ON u.dept_id = d.id")

	table, ok := st.ResolveAlias("d")
	require.True(t, ok)
	assert.Equal(t, "departments", table)
	assert.Equal(t, []string{"users", "departments"}, st.Tables())
}

func TestSymbolsMultiwordJoins(t *testing.T) {
	st := symbolsFor("SELECT * FROM a LEFT JOIN b x INNER JOIN c ON 1=1 CROSS JOIN d y")

	for alias, want := range map[string]string{"x": "b", "y": "d"} {
		table, ok := st.ResolveAlias(alias)
		require.True(t, ok, alias)
		assert.Equal(t, want, table)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, st.Tables())
}

func TestSymbolsCommaList(t *testing.T) {
	st := symbolsFor("SELECT * FROM users u, departments d")

	table, ok := st.ResolveAlias("d")
	require.True(t, ok)
	assert.Equal(t, "departments", table)
	assert.Equal(t, []string{"users", "departments"}, st.Tables())
}

func TestSymbolsSchemaQualified(t *testing.T) {
	st := symbolsFor("SELECT * FROM public.users u")

	// Aliases resolve to the last path segment; Tables keeps the full path.
	table, ok := st.ResolveAlias("u")
	require.True(t, ok)
	assert.Equal(t, "users", table)
	assert.Equal(t, []string{"public.users"}, st.Tables())
}

func TestSymbolsQuotedTable(t *testing.T) {
	st := symbolsFor(`SELECT * FROM "user list" u`)

	table, ok := st.ResolveAlias("u")
	require.True(t, ok)
	assert.Equal(t, "user list", table)
}

func TestSymbolsDerivedTable(t *testing.T) {
	st := symbolsFor("SELECT * FROM (SELECT id FROM users) t")

	// The derived alias is visible but maps to itself, and the inner
	// table does not leak out.
	table, ok := st.ResolveAlias("t")
	require.True(t, ok)
	assert.Equal(t, "t", table)
	assert.NotContains(t, st.Tables(), "t")
	assert.Equal(t, []string{"users"}, st.Tables())
}

func TestSymbolsCTE(t *testing.T) {
	st := symbolsFor("WITH recent AS (SELECT * FROM orders WHERE ts > 0) SELECT * FROM recent r")

	assert.Equal(t, []string{"recent"}, st.CTEs())
	assert.NotContains(t, st.Tables(), "recent")
	assert.Contains(t, st.Tables(), "orders")

	table, ok := st.ResolveAlias("r")
	require.True(t, ok)
	assert.Equal(t, "recent", table)
}

func TestSymbolsRecursiveCTE(t *testing.T) {
	st := symbolsFor("WITH RECURSIVE tree(id, parent) AS (SELECT 1, NULL) SELECT * FROM tree")

	assert.Equal(t, []string{"tree"}, st.CTEs())
}

func TestSymbolsMultipleCTEs(t *testing.T) {
	st := symbolsFor("WITH a AS (SELECT 1), b AS (SELECT 2) SELECT * FROM a JOIN b ON 1=1")

	assert.Equal(t, []string{"a", "b"}, st.CTEs())
	assert.Empty(t, st.Tables())
}

func TestSymbolsColumnAliases(t *testing.T) {
	st := symbolsFor("SELECT price * qty AS total, name AS label FROM items")

	assert.Equal(t, []string{"total", "label"}, st.ColumnAliases())
}

func TestSymbolsCastNotAnAlias(t *testing.T) {
	st := symbolsFor("SELECT CAST(x AS INTEGER) AS casted FROM t")

	assert.Equal(t, []string{"casted"}, st.ColumnAliases())
}

func TestSymbolsTableDedupe(t *testing.T) {
	st := symbolsFor("SELECT * FROM users WHERE id IN (SELECT id FROM Users)")

	assert.Equal(t, []string{"users"}, st.Tables())
}

func TestSymbolsUnknownAlias(t *testing.T) {
	st := symbolsFor("SELECT * FROM users u")

	_, ok := st.ResolveAlias("x")
	assert.False(t, ok)
	assert.False(t, st.IsAlias("x"))
}
