package plugin

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/sqltext"
)

// querier is satisfied by *sql.DB and *sql.Tx so the same statement runner
// serves plain and transactional execution.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// BaseConn implements the Conn execution protocol generically over
// database/sql. Concrete backends embed it and override the dialect quirks
// (CurrentDatabase, SwitchDatabase).
type BaseConn struct {
	DB     *sql.DB
	Plugin Plugin
	Logger *slog.Logger
}

// NewBaseConn builds the embedded base for a backend session. A nil logger
// discards.
func NewBaseConn(db *sql.DB, p Plugin, logger *slog.Logger) BaseConn {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return BaseConn{DB: db, Plugin: p, Logger: logger}
}

// Ping probes the session with SELECT 1.
func (b *BaseConn) Ping(ctx context.Context) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	var one int
	if err := b.DB.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (b *BaseConn) Close() error {
	if b.DB == nil {
		return nil
	}
	b.Logger.Debug("closing backend connection", "type", b.pluginType())
	return b.DB.Close()
}

// Execute splits and runs a script, collecting one Result per statement.
func (b *BaseConn) Execute(ctx context.Context, script string, opts core.ExecOptions) ([]core.Result, error) {
	var results []core.Result
	err := b.ExecuteStream(ctx, script, opts, func(p core.StreamProgress) {
		results = append(results, p.Result)
	})
	return results, err
}

// Query runs a single statement with optional driver-level args.
func (b *BaseConn) Query(ctx context.Context, sqlStr string, args []any, opts core.ExecOptions) (core.Result, error) {
	if b.DB == nil {
		return core.Result{}, ErrNotConnected
	}

	res, err := b.runOne(ctx, b.DB, sqlStr, args, opts)
	if err != nil {
		return core.NewErrorResult(sqlStr, err.Error()), &QueryError{SQL: sqlStr, Err: err}
	}
	return res, nil
}

// ExecuteStream splits and runs a script with a per-statement progress
// callback. Transactional scripts roll back on the first failing statement.
func (b *BaseConn) ExecuteStream(ctx context.Context, script string, opts core.ExecOptions, fn core.StreamFunc) error {
	if b.DB == nil {
		return ErrNotConnected
	}

	stmts := b.Plugin.SplitScript(script)
	if len(stmts) == 0 {
		return nil
	}

	if opts.Transactional {
		return b.streamTx(ctx, stmts, opts, fn)
	}

	for i, stmt := range stmts {
		res := b.runStatement(ctx, b.DB, stmt, opts)
		emit(fn, i, len(stmts), res)
		if res.IsError() && opts.StopOnError {
			break
		}
	}
	return nil
}

func (b *BaseConn) streamTx(ctx context.Context, stmts []string, opts core.ExecOptions, fn core.StreamFunc) error {
	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return &TxError{Op: "begin", Err: err}
	}

	for i, stmt := range stmts {
		res := b.runStatement(ctx, tx, stmt, opts)
		emit(fn, i, len(stmts), res)
		if res.IsError() {
			if rbErr := tx.Rollback(); rbErr != nil {
				b.Logger.Warn("rollback failed", "error", rbErr)
			}
			return nil
		}
	}

	if err := tx.Commit(); err != nil {
		return &TxError{Op: "commit", Err: err}
	}
	return nil
}

func emit(fn core.StreamFunc, i, total int, res core.Result) {
	if fn != nil {
		fn(core.StreamProgress{Current: i + 1, Total: total, Result: res})
	}
}

// runStatement runs one statement and folds any failure into a ResultError.
func (b *BaseConn) runStatement(ctx context.Context, q querier, stmt string, opts core.ExecOptions) core.Result {
	res, err := b.runOne(ctx, q, stmt, nil, opts)
	if err != nil {
		b.Logger.Debug("statement failed",
			"sql", sqltext.Compress(stmt), "error", err)
		return core.NewErrorResult(stmt, err.Error())
	}
	return res
}

func (b *BaseConn) runOne(ctx context.Context, q querier, stmt string, args []any, opts core.ExecOptions) (core.Result, error) {
	start := time.Now()
	if b.Plugin.IsQueryStatement(stmt) {
		return b.queryOne(ctx, q, stmt, args, opts, start)
	}
	return b.execOne(ctx, q, stmt, args, start)
}

func (b *BaseConn) execOne(ctx context.Context, q querier, stmt string, args []any, start time.Time) (core.Result, error) {
	res, err := q.ExecContext(ctx, stmt, args...)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return core.Result{}, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		// Some engines cannot report this for DDL; treat as zero.
		affected = 0
	}
	return core.NewExecResult(stmt, affected, elapsed, sqltext.FormatMessage(stmt, affected)), nil
}

func (b *BaseConn) queryOne(ctx context.Context, q querier, stmt string, args []any, opts core.ExecOptions, start time.Time) (core.Result, error) {
	rows, err := q.QueryContext(ctx, applyRowLimit(stmt, opts.MaxRows), args...)
	if err != nil {
		return core.Result{}, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return core.Result{}, fmt.Errorf("read columns: %w", err)
	}

	data := make([][]*string, 0, 64)
	vals := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if opts.MaxRows > 0 && len(data) >= opts.MaxRows {
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return core.Result{}, fmt.Errorf("scan row: %w", err)
		}
		row := make([]*string, len(cols))
		for i, v := range vals {
			if v.Valid {
				s := v.String
				row[i] = &s
			}
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return core.Result{}, err
	}

	res := core.NewQueryResult(stmt, cols, data, time.Since(start).Milliseconds())
	if table := b.Plugin.AnalyzeSelectEditability(stmt); table != "" {
		res.TableName = core.StrPtr(table)
		res.Editable = true
	}
	return res, nil
}

// CurrentDatabase defaults to unsupported; engines with a session catalog
// override.
func (b *BaseConn) CurrentDatabase(ctx context.Context) (string, error) {
	return "", &UnsupportedError{Op: "current database", Type: b.pluginType()}
}

// SwitchDatabase defaults to unsupported; engines with USE override.
func (b *BaseConn) SwitchDatabase(ctx context.Context, name string) error {
	return &UnsupportedError{Op: "switch database", Type: b.pluginType()}
}

// SupportsDatabaseSwitch defaults to false.
func (b *BaseConn) SupportsDatabaseSwitch() bool { return false }

func (b *BaseConn) pluginType() string {
	if b.Plugin == nil {
		return "unknown"
	}
	return b.Plugin.Type()
}

// applyRowLimit appends a LIMIT clause to uncapped SELECT statements so
// runaway queries cannot flood the caller. Statements that already carry a
// LIMIT, and non-SELECT queries (SHOW, PRAGMA, ...), pass through untouched.
func applyRowLimit(stmt string, maxRows int) string {
	if maxRows <= 0 {
		return stmt
	}

	trimmed := strings.TrimSpace(stmt)
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return stmt
	}
	if strings.Contains(upper, " LIMIT ") {
		return stmt
	}

	return fmt.Sprintf("%s LIMIT %d", strings.TrimRight(trimmed, "; \t\n"), maxRows)
}
