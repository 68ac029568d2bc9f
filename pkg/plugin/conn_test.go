package plugin

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onehub-labs/onehub/pkg/core"
)

func newMockConn(t *testing.T) (*BaseConn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	conn := NewBaseConn(db, newFakePlugin("mock", "`"), nil)
	return &conn, mock
}

func TestBaseConnPing(t *testing.T) {
	conn, mock := newMockConn(t)
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	assert.NoError(t, conn.Ping(context.Background()))
}

func TestBaseConnPingNotConnected(t *testing.T) {
	conn := &BaseConn{}
	assert.ErrorIs(t, conn.Ping(context.Background()), ErrNotConnected)
}

func TestExecuteMixedScript(t *testing.T) {
	conn, mock := newMockConn(t)
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "alice").AddRow(2, nil))

	results, err := conn.Execute(context.Background(),
		"INSERT INTO users (name) VALUES ('alice'); SELECT id, name FROM users",
		core.DefaultExecOptions())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, core.ResultExec, results[0].Kind)
	assert.Equal(t, int64(2), results[0].RowsAffected)
	assert.Equal(t, "Inserted 2 row(s)", results[0].Message)

	assert.Equal(t, core.ResultQuery, results[1].Kind)
	assert.Equal(t, []string{"id", "name"}, results[1].Columns)
	require.Len(t, results[1].Rows, 2)
	require.NotNil(t, results[1].Rows[0][1])
	assert.Equal(t, "alice", *results[1].Rows[0][1])
	assert.Nil(t, results[1].Rows[1][1], "NULL scans to nil")
}

func TestExecuteAppliesRowCap(t *testing.T) {
	conn, mock := newMockConn(t)
	mock.ExpectQuery(`SELECT \* FROM big LIMIT 5`).WillReturnRows(
		sqlmock.NewRows([]string{"id"}).AddRow(1))

	results, err := conn.Execute(context.Background(), "SELECT * FROM big",
		core.ExecOptions{StopOnError: true, MaxRows: 5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "SELECT * FROM big", results[0].SQL, "result keeps the original SQL")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteKeepsExistingLimit(t *testing.T) {
	conn, mock := newMockConn(t)
	mock.ExpectQuery(`SELECT \* FROM big LIMIT 2`).WillReturnRows(
		sqlmock.NewRows([]string{"id"}).AddRow(1))

	_, err := conn.Execute(context.Background(), "SELECT * FROM big LIMIT 2",
		core.ExecOptions{StopOnError: true, MaxRows: 100})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteStopOnError(t *testing.T) {
	conn, mock := newMockConn(t)
	mock.ExpectExec("DELETE FROM a").WillReturnError(assert.AnError)

	results, err := conn.Execute(context.Background(), "DELETE FROM a; DELETE FROM b",
		core.ExecOptions{StopOnError: true})
	require.NoError(t, err)
	require.Len(t, results, 1, "script stops at the failing statement")
	assert.True(t, results[0].IsError())
	assert.NotEmpty(t, results[0].Message)
}

func TestExecuteContinueOnError(t *testing.T) {
	conn, mock := newMockConn(t)
	mock.ExpectExec("DELETE FROM a").WillReturnError(assert.AnError)
	mock.ExpectExec("DELETE FROM b").WillReturnResult(sqlmock.NewResult(0, 1))

	results, err := conn.Execute(context.Background(), "DELETE FROM a; DELETE FROM b",
		core.ExecOptions{StopOnError: false})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].IsError())
	assert.Equal(t, core.ResultExec, results[1].Kind)
}

func TestExecuteTransactionalCommit(t *testing.T) {
	conn, mock := newMockConn(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO a").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO b").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	results, err := conn.Execute(context.Background(),
		"INSERT INTO a VALUES (1); INSERT INTO b VALUES (2)",
		core.ExecOptions{StopOnError: true, Transactional: true})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTransactionalRollback(t *testing.T) {
	conn, mock := newMockConn(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO a").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO b").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	results, err := conn.Execute(context.Background(),
		"INSERT INTO a VALUES (1); INSERT INTO b VALUES (2); INSERT INTO c VALUES (3)",
		core.ExecOptions{StopOnError: true, Transactional: true})
	require.NoError(t, err)
	require.Len(t, results, 2, "rollback ends the script")
	assert.True(t, results[1].IsError())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteStreamProgress(t *testing.T) {
	conn, mock := newMockConn(t)
	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+)").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	var progress []core.StreamProgress
	err := conn.ExecuteStream(context.Background(),
		"CREATE TABLE t (id INT); SELECT id FROM t",
		core.DefaultExecOptions(),
		func(p core.StreamProgress) { progress = append(progress, p) })
	require.NoError(t, err)
	require.Len(t, progress, 2)
	assert.Equal(t, 1, progress[0].Current)
	assert.Equal(t, 2, progress[0].Total)
	assert.Equal(t, 2, progress[1].Current)
	assert.Equal(t, "Object created successfully", progress[0].Result.Message)
}

func TestQuerySingleStatement(t *testing.T) {
	conn, mock := newMockConn(t)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("bob"))

	res, err := conn.Query(context.Background(), "SELECT name FROM users WHERE id = ?",
		[]any{int64(7)}, core.DefaultExecOptions())
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "bob", *res.Rows[0][0])
}

func TestQueryErrorWrapped(t *testing.T) {
	conn, mock := newMockConn(t)
	mock.ExpectQuery("SELECT (.+)").WillReturnError(assert.AnError)

	res, err := conn.Query(context.Background(), "SELECT boom", nil, core.DefaultExecOptions())
	require.Error(t, err)

	var qErr *QueryError
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, "SELECT boom", qErr.SQL)
	assert.True(t, res.IsError())
}

func TestQueryMarksEditableSelect(t *testing.T) {
	conn, mock := newMockConn(t)
	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnRows(
		sqlmock.NewRows([]string{"id"}).AddRow(1))

	res, err := conn.Query(context.Background(), "SELECT * FROM users", nil, core.ExecOptions{})
	require.NoError(t, err)
	assert.True(t, res.Editable)
	require.NotNil(t, res.TableName)
	assert.Equal(t, "users", *res.TableName)
}

func TestSwitchDatabaseUnsupportedByDefault(t *testing.T) {
	conn, _ := newMockConn(t)

	assert.False(t, conn.SupportsDatabaseSwitch())

	var unsupported *UnsupportedError
	assert.ErrorAs(t, conn.SwitchDatabase(context.Background(), "other"), &unsupported)

	_, err := conn.CurrentDatabase(context.Background())
	assert.ErrorAs(t, err, &unsupported)
}

func TestApplyRowLimit(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		maxRows int
		want    string
	}{
		{"caps plain select", "SELECT * FROM t", 10, "SELECT * FROM t LIMIT 10"},
		{"keeps existing limit", "SELECT * FROM t LIMIT 3", 10, "SELECT * FROM t LIMIT 3"},
		{"ignores non-select", "SHOW TABLES", 10, "SHOW TABLES"},
		{"ignores pragma", "PRAGMA table_info(t)", 10, "PRAGMA table_info(t)"},
		{"zero disables", "SELECT * FROM t", 0, "SELECT * FROM t"},
		{"caps cte", "WITH x AS (SELECT 1) SELECT * FROM x", 10, "WITH x AS (SELECT 1) SELECT * FROM x LIMIT 10"},
		{"strips trailing semicolon", "SELECT * FROM t;", 10, "SELECT * FROM t LIMIT 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, applyRowLimit(tt.sql, tt.maxRows))
		})
	}
}
