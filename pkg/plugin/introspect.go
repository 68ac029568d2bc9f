package plugin

import (
	"context"
	"strconv"
	"strings"

	"github.com/onehub-labs/onehub/pkg/core"
)

// QueryRows runs an introspection statement and returns its raw rows.
// Catalog queries read the full result set, so no row cap is applied.
func QueryRows(ctx context.Context, conn Conn, sql string, args ...any) ([][]*string, error) {
	res, err := conn.Query(ctx, sql, args, core.ExecOptions{StopOnError: true})
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// Cell returns row[i] as a string, or "" when the cell is NULL or absent.
func Cell(row []*string, i int) string {
	if p := CellPtr(row, i); p != nil {
		return *p
	}
	return ""
}

// CellPtr returns row[i], or nil when the cell is NULL or absent.
func CellPtr(row []*string, i int) *string {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

// CellInt64 parses row[i] as an int64, or nil when the cell is NULL, absent
// or not a number.
func CellInt64(row []*string, i int) *int64 {
	p := CellPtr(row, i)
	if p == nil {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(*p), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// CellBool interprets the boolean renderings the drivers produce: "1", "t",
// "true", "y" and "yes" (any case) are true, everything else is false.
func CellBool(row []*string, i int) bool {
	switch strings.ToLower(Cell(row, i)) {
	case "1", "t", "true", "y", "yes":
		return true
	}
	return false
}
