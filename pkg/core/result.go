package core

// ExecOptions controls script and statement execution.
type ExecOptions struct {
	// StopOnError aborts a script at the first failing statement.
	StopOnError bool `json:"stop_on_error"`

	// Transactional wraps the whole script in a transaction,
	// rolling back on the first error.
	Transactional bool `json:"transactional"`

	// MaxRows caps the rows returned by a query statement. A LIMIT clause
	// is appended to queries that don't carry one. Zero or negative means
	// unlimited.
	MaxRows int `json:"max_rows"`
}

// DefaultExecOptions returns the options used by interactive execution.
func DefaultExecOptions() ExecOptions {
	return ExecOptions{
		StopOnError:   true,
		Transactional: false,
		MaxRows:       1000,
	}
}

// ResultKind tags the variant carried by a Result.
type ResultKind string

const (
	// ResultQuery carries columns and rows.
	ResultQuery ResultKind = "query"
	// ResultExec carries an affected-row count and a summary message.
	ResultExec ResultKind = "exec"
	// ResultError carries the failure of a single statement.
	ResultError ResultKind = "error"
)

// Result is the outcome of one executed statement. Script execution yields
// one Result per statement, in order.
type Result struct {
	Kind ResultKind `json:"kind"`
	SQL  string     `json:"sql"`

	// Query fields. Row cells are nil for NULL.
	Columns []string    `json:"columns,omitempty"`
	Rows    [][]*string `json:"rows,omitempty"`
	// TableName is set when the statement is a single-table SELECT whose
	// results can be edited in place.
	TableName *string `json:"table_name,omitempty"`
	Editable  bool    `json:"editable,omitempty"`

	// Exec fields.
	RowsAffected int64  `json:"rows_affected,omitempty"`
	Message      string `json:"message,omitempty"`

	ElapsedMs int64 `json:"elapsed_ms,omitempty"`
}

// NewQueryResult builds a query-kind Result.
func NewQueryResult(sql string, columns []string, rows [][]*string, elapsedMs int64) Result {
	return Result{
		Kind:      ResultQuery,
		SQL:       sql,
		Columns:   columns,
		Rows:      rows,
		ElapsedMs: elapsedMs,
	}
}

// NewExecResult builds an exec-kind Result.
func NewExecResult(sql string, rowsAffected int64, elapsedMs int64, message string) Result {
	return Result{
		Kind:         ResultExec,
		SQL:          sql,
		RowsAffected: rowsAffected,
		ElapsedMs:    elapsedMs,
		Message:      message,
	}
}

// NewErrorResult builds an error-kind Result.
func NewErrorResult(sql string, message string) Result {
	return Result{
		Kind:    ResultError,
		SQL:     sql,
		Message: message,
	}
}

// IsError reports whether the result records a failed statement.
func (r Result) IsError() bool { return r.Kind == ResultError }

// StreamProgress reports per-statement progress during streaming execution.
type StreamProgress struct {
	// Current is the 1-based index of the statement just finished.
	Current int `json:"current"`
	// Total is the number of statements in the script.
	Total  int    `json:"total"`
	Result Result `json:"result"`
}

// StreamFunc receives progress updates during streaming execution.
type StreamFunc func(StreamProgress)
