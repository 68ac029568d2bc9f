package transfer

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/plugin"
)

// Report summarizes an import run.
type Report struct {
	RowsImported int64    `json:"rows_imported"`
	Errors       []string `json:"errors,omitempty"`
	ElapsedMs    int64    `json:"elapsed_ms"`
}

// Success reports whether the import finished without statement failures.
func (r *Report) Success() bool { return len(r.Errors) == 0 }

// Summarize folds script results into a Report.
func Summarize(results []core.Result, elapsed time.Duration) *Report {
	rep := &Report{ElapsedMs: elapsed.Milliseconds()}
	for _, res := range results {
		switch res.Kind {
		case core.ResultExec:
			rep.RowsImported += res.RowsAffected
		case core.ResultError:
			rep.Errors = append(rep.Errors, res.Message)
		}
	}
	return rep
}

// ImportSQL reads a SQL dump and replays it statement by statement,
// reporting per-statement progress when fn is non-nil. The returned slice
// has one Result per executed statement; the error covers infrastructure
// failures only.
func ImportSQL(ctx context.Context, conn plugin.Conn, r io.Reader, opts core.ExecOptions, fn core.StreamFunc) ([]core.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}

	var results []core.Result
	err = conn.ExecuteStream(ctx, string(data), opts, func(p core.StreamProgress) {
		results = append(results, p.Result)
		if fn != nil {
			fn(p)
		}
	})
	return results, err
}

// CSVOptions controls ImportCSV. The zero value expects comma-separated
// records with a header line and stops at the first failure.
type CSVOptions struct {
	// Table receives the rows. Required.
	Table string

	// Delimiter is the field separator; zero means comma.
	Delimiter rune

	// NoHeader treats the first record as data and names columns col1..colN.
	NoHeader bool

	// Truncate empties the table before loading.
	Truncate bool

	// ContinueOnError keeps loading after a failed record.
	ContinueOnError bool
}

// ImportCSV streams CSV records into a table as single-row INSERTs. Empty
// cells and the literal "null" bind as NULL. Per-record failures land in
// the report; the returned error is reserved for unusable input.
func ImportCSV(ctx context.Context, p plugin.Plugin, conn plugin.Conn, r io.Reader, opts CSVOptions) (*Report, error) {
	if opts.Table == "" {
		return nil, errors.New("table name required for CSV import")
	}

	start := time.Now()
	rep := &Report{}

	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	// Widths are checked per record so one short line is a recorded error,
	// not the end of the file.
	cr.FieldsPerRecord = -1

	var columns []string
	if !opts.NoHeader {
		header, err := cr.Read()
		if err == io.EOF {
			rep.ElapsedMs = time.Since(start).Milliseconds()
			return rep, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV header: %w", err)
		}
		columns = header
	}

	if opts.Truncate && !truncateTable(ctx, p, conn, opts.Table, rep) && !opts.ContinueOnError {
		rep.ElapsedMs = time.Since(start).Milliseconds()
		return rep, nil
	}

	for record := 1; ; record++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("record %d: %v", record, err))
			if !opts.ContinueOnError {
				break
			}
			continue
		}

		if columns == nil {
			columns = make([]string, len(fields))
			for i := range columns {
				columns[i] = fmt.Sprintf("col%d", i+1)
			}
		}
		if len(fields) != len(columns) {
			rep.Errors = append(rep.Errors,
				fmt.Sprintf("record %d: expected %d fields, got %d", record, len(columns), len(fields)))
			if !opts.ContinueOnError {
				break
			}
			continue
		}

		values := make([]string, len(fields))
		for i, f := range fields {
			if f == "" || strings.EqualFold(f, "null") {
				values[i] = "NULL"
			} else {
				values[i] = sqlQuote(f)
			}
		}

		res, err := conn.Query(ctx, insertStatement(p, opts.Table, columns, values), nil, core.ExecOptions{})
		if err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("record %d: %v", record, err))
			if !opts.ContinueOnError {
				break
			}
			continue
		}
		rep.RowsImported += res.RowsAffected
	}

	rep.ElapsedMs = time.Since(start).Milliseconds()
	return rep, nil
}

// JSONOptions controls ImportJSON. The zero value stops at the first
// failure.
type JSONOptions struct {
	// Table receives the rows. Required.
	Table string

	// Truncate empties the table before loading.
	Truncate bool

	// ContinueOnError keeps loading after a failed row.
	ContinueOnError bool
}

// ImportJSON loads a JSON array of objects (or a single object) into a
// table. Columns come from the first object's keys, sorted. Strings are
// quoted, numbers pass through, booleans become 1/0, null and missing keys
// bind as NULL, and nested values are stored as their JSON text.
func ImportJSON(ctx context.Context, p plugin.Plugin, conn plugin.Conn, r io.Reader, opts JSONOptions) (*Report, error) {
	if opts.Table == "" {
		return nil, errors.New("table name required for JSON import")
	}

	start := time.Now()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	rows, err := decodeJSONRows(data)
	if err != nil {
		return nil, err
	}

	rep := &Report{}
	if len(rows) == 0 {
		rep.ElapsedMs = time.Since(start).Milliseconds()
		return rep, nil
	}

	var first map[string]json.RawMessage
	if err := json.Unmarshal(rows[0], &first); err != nil {
		return nil, errors.New("JSON array must contain objects")
	}
	columns := make([]string, 0, len(first))
	for col := range first {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	if opts.Truncate && !truncateTable(ctx, p, conn, opts.Table, rep) && !opts.ContinueOnError {
		rep.ElapsedMs = time.Since(start).Milliseconds()
		return rep, nil
	}

	for i, raw := range rows {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("row %d is not an object", i+1))
			if !opts.ContinueOnError {
				break
			}
			continue
		}

		values := make([]string, len(columns))
		for j, col := range columns {
			values[j] = jsonLiteral(obj[col])
		}

		res, err := conn.Query(ctx, insertStatement(p, opts.Table, columns, values), nil, core.ExecOptions{})
		if err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			if !opts.ContinueOnError {
				break
			}
			continue
		}
		rep.RowsImported += res.RowsAffected
	}

	rep.ElapsedMs = time.Since(start).Milliseconds()
	return rep, nil
}

func decodeJSONRows(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var rows []json.RawMessage
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return rows, nil
	case '{':
		return []json.RawMessage{json.RawMessage(trimmed)}, nil
	}
	return nil, errors.New("JSON input must be an array or an object")
}

// jsonLiteral renders one JSON value as a SQL literal.
func jsonLiteral(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	switch {
	case s == "" || s == "null":
		return "NULL"
	case s[0] == '"':
		var str string
		if json.Unmarshal(raw, &str) == nil {
			return sqlQuote(str)
		}
		return sqlQuote(s)
	case s == "true":
		return "1"
	case s == "false":
		return "0"
	case s[0] == '{', s[0] == '[':
		return sqlQuote(s)
	default:
		return s
	}
}

// insertStatement renders a single-row INSERT with quoted identifiers.
// values are pre-rendered SQL literals.
func insertStatement(p plugin.Plugin, table string, columns, values []string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(p.QuoteIdentifier(table))
	b.WriteString(" (")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.QuoteIdentifier(col))
	}
	b.WriteString(") VALUES (")
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v)
	}
	b.WriteByte(')')
	return b.String()
}

// truncateTable empties the table, recording a failure in the report.
func truncateTable(ctx context.Context, p plugin.Plugin, conn plugin.Conn, table string, rep *Report) bool {
	if _, err := conn.Query(ctx, p.TruncateTableSQL(table), nil, core.ExecOptions{}); err != nil {
		rep.Errors = append(rep.Errors, fmt.Sprintf("truncate failed: %v", err))
		return false
	}
	return true
}
