package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onehub-labs/onehub/pkg/core"
)

func str(s string) *string { return &s }

func queryResult() core.Result {
	return core.NewQueryResult("SELECT id, name FROM users",
		[]string{"id", "name"},
		[][]*string{
			{str("1"), str("alice")},
			{str("2"), nil},
		}, 3)
}

func TestRenderResultsTable(t *testing.T) {
	var out, errOut bytes.Buffer
	err := renderResults(&out, &errOut, []core.Result{queryResult()}, "table")
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "ID")
	assert.Contains(t, s, "alice")
	assert.Contains(t, s, "NULL")
	assert.Contains(t, s, "(2 rows, 3ms)")
	assert.Empty(t, errOut.String())
}

func TestRenderResultsEmptyTable(t *testing.T) {
	var out, errOut bytes.Buffer
	res := core.NewQueryResult("SELECT 1 WHERE 0", []string{"x"}, nil, 0)
	require.NoError(t, renderResults(&out, &errOut, []core.Result{res}, "table"))
	assert.Contains(t, out.String(), "(0 rows)")
}

func TestRenderResultsCSV(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, renderResults(&out, &errOut, []core.Result{queryResult()}, "csv"))

	assert.Equal(t, "id,name\n1,alice\n2,NULL\n", out.String())
}

func TestRenderResultsMarkdown(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, renderResults(&out, &errOut, []core.Result{queryResult()}, "md"))

	s := out.String()
	assert.Contains(t, s, "| id | name |")
	assert.Contains(t, s, "| --- | --- |")
	assert.Contains(t, s, "| 1 | alice |")
	assert.Contains(t, s, "| 2 | NULL |")
}

func TestRenderResultsJSON(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, renderResults(&out, &errOut, []core.Result{queryResult()}, "json"))

	var decoded []core.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, core.ResultQuery, decoded[0].Kind)
	assert.Equal(t, []string{"id", "name"}, decoded[0].Columns)
}

func TestRenderResultsExec(t *testing.T) {
	var out, errOut bytes.Buffer
	res := core.NewExecResult("DELETE FROM users", 4, 2, "4 rows affected")
	require.NoError(t, renderResults(&out, &errOut, []core.Result{res}, "table"))
	assert.Contains(t, out.String(), "4 rows affected (2ms)")
}

func TestRenderResultsError(t *testing.T) {
	var out, errOut bytes.Buffer
	results := []core.Result{
		core.NewExecResult("CREATE TABLE t (id int)", 0, 1, "OK"),
		core.NewErrorResult("SELEC broken", "syntax error"),
	}

	err := renderResults(&out, &errOut, results, "table")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 statements failed")
	assert.Contains(t, errOut.String(), "statement 2 failed: syntax error")
}

func TestRenderResultsMultiStatementHeaders(t *testing.T) {
	var out, errOut bytes.Buffer
	results := []core.Result{queryResult(), queryResult()}
	require.NoError(t, renderResults(&out, &errOut, results, "csv"))
	assert.Contains(t, out.String(), "-- statement 1")
	assert.Contains(t, out.String(), "-- statement 2")
}

func TestCellValueShortRow(t *testing.T) {
	assert.Equal(t, "NULL", cellValue([]*string{str("a")}, 3))
	assert.Equal(t, "a", cellValue([]*string{str("a")}, 0))
	assert.Equal(t, "NULL", cellValue([]*string{nil}, 0))
}
