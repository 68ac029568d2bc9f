package plugin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/onehub-labs/onehub/pkg/core"
)

// QueryTableData fetches one page of a table's rows plus the metadata a
// grid needs to page, sort and edit: column types, primary/unique key
// indices and the total row count under the active filter.
func QueryTableData(ctx context.Context, p Plugin, conn Conn, req core.TableDataRequest) (core.TableDataResponse, error) {
	req.Normalize()

	cols, err := p.ListColumns(ctx, conn, req.Database, req.Table)
	if err != nil {
		return core.TableDataResponse{}, fmt.Errorf("list columns: %w", err)
	}
	if len(cols) == 0 {
		return core.TableDataResponse{}, fmt.Errorf("table %s not found", req.Table)
	}

	meta := make([]core.TableColumnMeta, len(cols))
	var pkIdx, autoIdx []int
	for i, c := range cols {
		meta[i] = core.TableColumnMeta{
			Name:          c.Name,
			DataType:      c.DataType,
			FieldType:     core.FieldTypeFromDBType(c.DataType),
			Nullable:      c.Nullable,
			PrimaryKey:    c.PrimaryKey,
			AutoIncrement: c.AutoIncrement,
			DefaultValue:  c.DefaultValue,
			Comment:       c.Comment,
		}
		if c.PrimaryKey {
			pkIdx = append(pkIdx, i)
		}
		if c.AutoIncrement {
			autoIdx = append(autoIdx, i)
		}
	}

	// Without a primary key, fall back to the first unique index.
	var uniqueIdx []int
	if len(pkIdx) == 0 {
		uniqueIdx = uniqueKeyIndices(ctx, p, conn, req, cols)
	}

	table := qualifiedTable(p, req)
	where := buildWhereClause(p, req)
	order := buildOrderClause(p, req)

	total, err := countRows(ctx, conn, table, where)
	if err != nil {
		return core.TableDataResponse{}, err
	}

	offset := (req.Page - 1) * req.PageSize
	dataSQL := fmt.Sprintf("SELECT * FROM %s%s%s LIMIT %d OFFSET %d",
		table, where, order, req.PageSize, offset)

	res, err := conn.Query(ctx, dataSQL, nil, core.ExecOptions{StopOnError: true})
	if err != nil {
		return core.TableDataResponse{}, err
	}

	return core.TableDataResponse{
		Columns:          meta,
		Rows:             res.Rows,
		TotalRows:        total,
		Page:             req.Page,
		PageSize:         req.PageSize,
		PrimaryKeyIdx:    pkIdx,
		UniqueKeyIdx:     uniqueIdx,
		AutoIncrementIdx: autoIdx,
	}, nil
}

func uniqueKeyIndices(ctx context.Context, p Plugin, conn Conn, req core.TableDataRequest, cols []core.ColumnInfo) []int {
	indexes, err := p.ListIndexes(ctx, conn, req.Database, req.Table)
	if err != nil {
		return nil
	}

	pos := make(map[string]int, len(cols))
	for i, c := range cols {
		pos[c.Name] = i
	}

	for _, idx := range indexes {
		if !idx.Unique {
			continue
		}
		var out []int
		for _, col := range idx.Columns {
			if i, ok := pos[col]; ok {
				out = append(out, i)
			}
		}
		if len(out) == len(idx.Columns) {
			return out
		}
	}
	return nil
}

// qualifiedTable renders the quoted table reference. Schema-aware engines
// qualify by schema, the rest by database.
func qualifiedTable(p Plugin, req core.TableDataRequest) string {
	prefix := req.Database
	if req.Schema != nil && *req.Schema != "" {
		prefix = *req.Schema
	}
	if prefix == "" {
		return p.QuoteIdentifier(req.Table)
	}
	return p.QuoteIdentifier(prefix) + "." + p.QuoteIdentifier(req.Table)
}

// buildWhereClause renders the WHERE fragment. A raw clause takes priority
// over structured filters.
func buildWhereClause(p Plugin, req core.TableDataRequest) string {
	if req.WhereClause != nil {
		if *req.WhereClause == "" {
			return ""
		}
		return " WHERE " + *req.WhereClause
	}
	if len(req.Filters) == 0 {
		return ""
	}

	conds := make([]string, 0, len(req.Filters))
	for _, f := range req.Filters {
		conds = append(conds, f.Operator.SQL(p.QuoteIdentifier(f.Column), f.Value))
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// buildOrderClause renders the ORDER BY fragment. A raw clause takes
// priority over structured sorts.
func buildOrderClause(p Plugin, req core.TableDataRequest) string {
	if req.OrderByClause != nil {
		if *req.OrderByClause == "" {
			return ""
		}
		return " ORDER BY " + *req.OrderByClause
	}
	if len(req.Sorts) == 0 {
		return ""
	}

	sorts := make([]string, 0, len(req.Sorts))
	for _, s := range req.Sorts {
		dir := "ASC"
		if s.Direction == core.SortDesc {
			dir = "DESC"
		}
		sorts = append(sorts, p.QuoteIdentifier(s.Column)+" "+dir)
	}
	return " ORDER BY " + strings.Join(sorts, ", ")
}

func countRows(ctx context.Context, conn Conn, table, where string) (int64, error) {
	res, err := conn.Query(ctx, "SELECT COUNT(*) FROM "+table+where, nil, core.ExecOptions{StopOnError: true})
	if err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	if len(res.Rows) == 0 || len(res.Rows[0]) == 0 || res.Rows[0][0] == nil {
		return 0, nil
	}
	n, err := strconv.ParseInt(*res.Rows[0][0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse row count: %w", err)
	}
	return n, nil
}
