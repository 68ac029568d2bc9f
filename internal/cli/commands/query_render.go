package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/onehub-labs/onehub/pkg/core"
)

// renderResults writes one block per statement result. Error results go to
// errW; a trailing error is returned when any statement failed so the command
// exits non-zero.
func renderResults(w, errW io.Writer, results []core.Result, format string) error {
	var failed int
	for i, res := range results {
		if res.IsError() {
			failed++
			_, _ = fmt.Fprintf(errW, "statement %d failed: %s\n", i+1, res.Message)
			continue
		}
		if len(results) > 1 && format != "json" {
			_, _ = fmt.Fprintf(w, "-- statement %d\n", i+1)
		}
		if err := renderResult(w, res, format); err != nil {
			return err
		}
	}
	if format == "json" {
		// JSON mode emits the full result slice once, errors included.
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d statements failed", failed, len(results))
	}
	return nil
}

func renderResult(w io.Writer, res core.Result, format string) error {
	if format == "json" {
		return nil // handled by the caller in one document
	}

	if res.Kind == core.ResultExec {
		msg := res.Message
		if msg == "" {
			msg = fmt.Sprintf("%d rows affected", res.RowsAffected)
		}
		_, _ = fmt.Fprintf(w, "%s (%dms)\n", msg, res.ElapsedMs)
		return nil
	}

	switch format {
	case "csv":
		return renderCSV(w, res.Columns, res.Rows)
	case "md", "markdown":
		return renderMarkdown(w, res.Columns, res.Rows)
	default:
		return renderTable(w, res)
	}
}

func renderTable(w io.Writer, res core.Result) error {
	if len(res.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, cells := range res.Rows {
		row := make(table.Row, len(res.Columns))
		for i := range res.Columns {
			row[i] = cellValue(cells, i)
		}
		t.AppendRow(row)
	}

	t.Render()
	if res.ElapsedMs > 0 {
		_, _ = fmt.Fprintf(w, "(%d rows, %dms)\n", len(res.Rows), res.ElapsedMs)
	} else {
		_, _ = fmt.Fprintf(w, "(%d rows)\n", len(res.Rows))
	}
	return nil
}

func renderCSV(w io.Writer, cols []string, rows [][]*string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for _, cells := range rows {
		for i := range cols {
			record[i] = cellValue(cells, i)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderMarkdown(w io.Writer, cols []string, rows [][]*string) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	values := make([]string, len(cols))
	for _, cells := range rows {
		for i := range cols {
			values[i] = strings.ReplaceAll(cellValue(cells, i), "|", `\|`)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

// cellValue renders one cell, tolerating short rows. NULL prints as NULL.
func cellValue(cells []*string, i int) string {
	if i >= len(cells) || cells[i] == nil {
		return "NULL"
	}
	return *cells[i]
}

func validateFormat(format string) error {
	switch format {
	case "table", "json", "csv", "md", "markdown":
		return nil
	default:
		return fmt.Errorf("unknown format %q (expected table, json, csv or md)", format)
	}
}
