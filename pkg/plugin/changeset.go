package plugin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/onehub-labs/onehub/pkg/core"
)

// BuildChangesSQL renders a batch of grid edits as a script, one statement
// per change, joined for preview or transactional execution. Changes that
// produce no statement (empty rows, empty updates) are skipped.
func BuildChangesSQL(p Plugin, req core.TableSaveRequest) string {
	var stmts []string
	for _, change := range req.Changes {
		if stmt, ok := BuildRowChangeSQL(p, req, change); ok {
			stmts = append(stmts, stmt)
		}
	}
	if len(stmts) == 0 {
		return ""
	}
	return strings.Join(stmts, ";\n\n") + ";"
}

// BuildRowChangeSQL renders one grid edit as an INSERT, UPDATE or DELETE.
// Rows are matched by primary key, falling back to unique key, falling back
// to all original column values. Engines without UPDATE/DELETE row limits
// get a rowid subquery (sqlite) or rely on the key match (postgres, duckdb);
// mysql appends LIMIT 1.
func BuildRowChangeSQL(p Plugin, req core.TableSaveRequest, change core.RowChange) (string, bool) {
	table := qualifiedSaveTable(p, req)

	switch change.Kind {
	case core.RowAdded:
		return buildInsertSQL(p, req, table, change)
	case core.RowUpdated:
		return buildUpdateSQL(p, req, table, change)
	case core.RowDeleted:
		return buildDeleteSQL(p, req, table, change)
	default:
		return "", false
	}
}

func buildInsertSQL(p Plugin, req core.TableSaveRequest, table string, change core.RowChange) (string, bool) {
	if len(change.Data) == 0 {
		return "", false
	}

	cols := make([]string, len(req.ColumnNames))
	for i, name := range req.ColumnNames {
		cols[i] = p.QuoteIdentifier(name)
	}

	vals := make([]string, len(change.Data))
	for i, v := range change.Data {
		// Grid cells left empty insert as NULL.
		if v == nil || *v == "" {
			vals[i] = "NULL"
			continue
		}
		vals[i] = sqlQuote(*v)
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(vals, ", ")), true
}

func buildUpdateSQL(p Plugin, req core.TableSaveRequest, table string, change core.RowChange) (string, bool) {
	if len(change.Changes) == 0 {
		return "", false
	}

	indices := make([]int, 0, len(change.Changes))
	for i := range change.Changes {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	sets := make([]string, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(req.ColumnNames) {
			continue
		}
		ident := p.QuoteIdentifier(req.ColumnNames[i])
		if v := change.Changes[i]; v == nil {
			sets = append(sets, ident+" = NULL")
		} else {
			sets = append(sets, ident+" = "+sqlQuote(*v))
		}
	}
	if len(sets) == 0 {
		return "", false
	}

	where := buildKeyWhere(p, req, change.OriginalData)

	if needsRowidLimit(p, req) {
		simple := p.QuoteIdentifier(req.Table)
		return fmt.Sprintf("UPDATE %s SET %s WHERE rowid IN (SELECT rowid FROM %s WHERE %s LIMIT 1)",
			table, strings.Join(sets, ", "), simple, where), true
	}

	stmt := fmt.Sprintf("UPDATE %s SET %s", table, strings.Join(sets, ", "))
	if where != "" {
		stmt += " WHERE " + where
	}
	return stmt + rowLimitClause(p), true
}

func buildDeleteSQL(p Plugin, req core.TableSaveRequest, table string, change core.RowChange) (string, bool) {
	where := buildKeyWhere(p, req, change.OriginalData)

	if needsRowidLimit(p, req) {
		simple := p.QuoteIdentifier(req.Table)
		return fmt.Sprintf("DELETE FROM %s WHERE rowid IN (SELECT rowid FROM %s WHERE %s LIMIT 1)",
			table, simple, where), true
	}

	stmt := "DELETE FROM " + table
	if where != "" {
		stmt += " WHERE " + where
	}
	return stmt + rowLimitClause(p), true
}

// buildKeyWhere matches a row by primary key, then unique key, then all
// columns. NULL originals compare with IS NULL.
func buildKeyWhere(p Plugin, req core.TableSaveRequest, original []*string) string {
	indices := req.PrimaryKeyIndices
	if len(indices) == 0 {
		indices = req.UniqueKeyIndices
	}
	if len(indices) == 0 {
		indices = make([]int, len(req.ColumnNames))
		for i := range indices {
			indices[i] = i
		}
	}

	parts := make([]string, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(req.ColumnNames) || i >= len(original) {
			continue
		}
		ident := p.QuoteIdentifier(req.ColumnNames[i])
		if original[i] == nil {
			parts = append(parts, ident+" IS NULL")
		} else {
			parts = append(parts, ident+" = "+sqlQuote(*original[i]))
		}
	}
	return strings.Join(parts, " AND ")
}

// needsRowidLimit reports whether a keyless sqlite row match must go through
// a rowid subquery; sqlite UPDATE/DELETE has no LIMIT clause by default.
func needsRowidLimit(p Plugin, req core.TableSaveRequest) bool {
	if p.Type() != "sqlite" {
		return false
	}
	return len(req.PrimaryKeyIndices) == 0 && len(req.UniqueKeyIndices) == 0
}

// rowLimitClause confines keyless UPDATE/DELETE to a single row where the
// dialect allows it.
func rowLimitClause(p Plugin) string {
	if p.Type() == "mysql" {
		return " LIMIT 1"
	}
	return ""
}

func qualifiedSaveTable(p Plugin, req core.TableSaveRequest) string {
	prefix := req.Database
	if req.Schema != nil && *req.Schema != "" {
		prefix = *req.Schema
	}
	if prefix == "" {
		return p.QuoteIdentifier(req.Table)
	}
	return p.QuoteIdentifier(prefix) + "." + p.QuoteIdentifier(req.Table)
}

// sqlQuote renders a value as a single-quoted SQL literal.
func sqlQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
