// Package transfer moves result sets and dumps across formats: CSV and JSON
// exports of query results, SQL INSERT dumps, and SQL/CSV/JSON imports that
// replay data through a live session.
package transfer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/onehub-labs/onehub/pkg/core"
)

// Format identifies a transfer encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatSQL  Format = "sql"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "sql":
		return FormatSQL, nil
	}
	return "", fmt.Errorf("unknown format %q (known: csv, json, sql)", s)
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	return f, err == nil
}

// Extension returns the conventional file extension, without the dot.
func (f Format) Extension() string { return string(f) }

// ExportOptions controls ExportResult.
type ExportOptions struct {
	// Format selects the output encoding.
	Format Format `json:"format"`

	// IncludeHeaders writes the column names as the first CSV record.
	IncludeHeaders bool `json:"include_headers"`

	// TableName is the INSERT target for SQL exports. When empty, the
	// result's own table name (set for editable single-table SELECTs) is
	// used.
	TableName string `json:"table_name,omitempty"`

	// PrettyJSON indents JSON output.
	PrettyJSON bool `json:"pretty_json"`

	// NullLiteral is what NULL cells become in CSV output.
	NullLiteral string `json:"null_literal,omitempty"`
}

// ExportResult writes a query result to w in the chosen format.
func ExportResult(w io.Writer, res core.Result, opts ExportOptions) error {
	if res.Kind != core.ResultQuery {
		return fmt.Errorf("not a query result: %s", res.Kind)
	}
	switch opts.Format {
	case FormatCSV:
		return exportCSV(w, res, opts)
	case FormatJSON:
		return exportJSON(w, res, opts)
	case FormatSQL:
		return exportSQL(w, res, opts)
	}
	return fmt.Errorf("unknown format %q (known: csv, json, sql)", opts.Format)
}

func exportCSV(w io.Writer, res core.Result, opts ExportOptions) error {
	cw := csv.NewWriter(w)
	if opts.IncludeHeaders {
		if err := cw.Write(res.Columns); err != nil {
			return err
		}
	}

	record := make([]string, len(res.Columns))
	for _, row := range res.Rows {
		for i := range record {
			if i < len(row) && row[i] != nil {
				record[i] = *row[i]
			} else {
				record[i] = opts.NullLiteral
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// jsonRow marshals one result row as an object with keys in column order.
// A plain map would sort them.
type jsonRow struct {
	columns []string
	cells   []*string
}

func (r jsonRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if i >= len(r.cells) || r.cells[i] == nil {
			buf.WriteString("null")
			continue
		}
		val, err := json.Marshal(*r.cells[i])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func exportJSON(w io.Writer, res core.Result, opts ExportOptions) error {
	rows := make([]jsonRow, len(res.Rows))
	for i, cells := range res.Rows {
		rows[i] = jsonRow{columns: res.Columns, cells: cells}
	}

	enc := json.NewEncoder(w)
	if opts.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(rows)
}

func exportSQL(w io.Writer, res core.Result, opts ExportOptions) error {
	table := opts.TableName
	if table == "" && res.TableName != nil {
		table = *res.TableName
	}
	if table == "" {
		return errors.New("table name required for SQL export")
	}

	head := fmt.Sprintf("INSERT INTO %s (%s) VALUES (", table, strings.Join(res.Columns, ", "))

	var b strings.Builder
	for _, row := range res.Rows {
		b.Reset()
		b.WriteString(head)
		for i, cell := range row {
			if i > 0 {
				b.WriteString(", ")
			}
			if cell == nil {
				b.WriteString("NULL")
			} else {
				b.WriteString(sqlQuote(*cell))
			}
		}
		b.WriteString(");\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

// sqlQuote renders a string literal with doubled embedded quotes.
func sqlQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
