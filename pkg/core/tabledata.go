package core

import "fmt"

// FieldType is a coarse classification of a column's data type, used by
// grid editors to choose an input widget and by filters to decide quoting.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldBoolean  FieldType = "boolean"
	FieldDate     FieldType = "date"
	FieldTime     FieldType = "time"
	FieldDateTime FieldType = "datetime"
	FieldBinary   FieldType = "binary"
	FieldJSON     FieldType = "json"
)

// FieldTypeFromDBType maps a backend data type name to a FieldType.
// Matching is case-insensitive and substring based, so "VARCHAR(255)"
// and "varchar" both classify as text.
func FieldTypeFromDBType(dbType string) FieldType {
	t := lowerASCII(dbType)
	switch {
	case containsAny(t, "int", "serial", "decimal", "numeric", "float", "double", "real", "money"):
		return FieldNumber
	case containsAny(t, "bool", "bit"):
		return FieldBoolean
	case containsAny(t, "timestamp", "datetime"):
		return FieldDateTime
	case containsAny(t, "date"):
		return FieldDate
	case containsAny(t, "time"):
		return FieldTime
	case containsAny(t, "json"):
		return FieldJSON
	case containsAny(t, "blob", "binary", "bytea"):
		return FieldBinary
	default:
		return FieldText
	}
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if indexOf(s, sub) >= 0 {
			return true
		}
	}
	return false
}

func indexOf(s, sub string) int {
	n := len(sub)
	if n == 0 {
		return 0
	}
	for i := 0; i+n <= len(s); i++ {
		if s[i:i+n] == sub {
			return i
		}
	}
	return -1
}

// TableColumnMeta describes one column of a table data page, carrying
// enough to render and edit the grid.
type TableColumnMeta struct {
	Name          string    `json:"name"`
	DataType      string    `json:"data_type"`
	FieldType     FieldType `json:"field_type"`
	Nullable      bool      `json:"nullable"`
	PrimaryKey    bool      `json:"primary_key"`
	AutoIncrement bool      `json:"auto_increment"`
	DefaultValue  *string   `json:"default_value,omitempty"`
	Comment       *string   `json:"comment,omitempty"`
}

// FilterOperator is a comparison in a table data filter.
type FilterOperator string

const (
	OpEquals      FilterOperator = "equals"
	OpNotEquals   FilterOperator = "not_equals"
	OpContains    FilterOperator = "contains"
	OpNotContains FilterOperator = "not_contains"
	OpStartsWith  FilterOperator = "starts_with"
	OpEndsWith    FilterOperator = "ends_with"
	OpGreater     FilterOperator = "greater_than"
	OpGreaterEq   FilterOperator = "greater_equals"
	OpLess        FilterOperator = "less_than"
	OpLessEq      FilterOperator = "less_equals"
	OpIsNull      FilterOperator = "is_null"
	OpIsNotNull   FilterOperator = "is_not_null"
)

// SQL renders the operator with a quoted column and an escaped value.
// The column must already be quoted for the target dialect.
func (op FilterOperator) SQL(quotedColumn, value string) string {
	esc := escapeSQLString(value)
	switch op {
	case OpEquals:
		return fmt.Sprintf("%s = '%s'", quotedColumn, esc)
	case OpNotEquals:
		return fmt.Sprintf("%s <> '%s'", quotedColumn, esc)
	case OpContains:
		return fmt.Sprintf("%s LIKE '%%%s%%'", quotedColumn, esc)
	case OpNotContains:
		return fmt.Sprintf("%s NOT LIKE '%%%s%%'", quotedColumn, esc)
	case OpStartsWith:
		return fmt.Sprintf("%s LIKE '%s%%'", quotedColumn, esc)
	case OpEndsWith:
		return fmt.Sprintf("%s LIKE '%%%s'", quotedColumn, esc)
	case OpGreater:
		return fmt.Sprintf("%s > '%s'", quotedColumn, esc)
	case OpGreaterEq:
		return fmt.Sprintf("%s >= '%s'", quotedColumn, esc)
	case OpLess:
		return fmt.Sprintf("%s < '%s'", quotedColumn, esc)
	case OpLessEq:
		return fmt.Sprintf("%s <= '%s'", quotedColumn, esc)
	case OpIsNull:
		return fmt.Sprintf("%s IS NULL", quotedColumn)
	case OpIsNotNull:
		return fmt.Sprintf("%s IS NOT NULL", quotedColumn)
	default:
		return fmt.Sprintf("%s = '%s'", quotedColumn, esc)
	}
}

func escapeSQLString(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

// Filter restricts a table data page to rows matching one column condition.
type Filter struct {
	Column   string         `json:"column"`
	Operator FilterOperator `json:"operator"`
	Value    string         `json:"value"`
}

// SortDirection orders a table data page by one column.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort names a column and direction for ORDER BY.
type Sort struct {
	Column    string        `json:"column"`
	Direction SortDirection `json:"direction"`
}

// TableDataRequest asks for one page of table rows. WhereClause and
// OrderByClause, when set, override Filters and Sorts with raw SQL
// fragments (without the WHERE / ORDER BY keywords).
type TableDataRequest struct {
	Database      string   `json:"database"`
	Schema        *string  `json:"schema,omitempty"`
	Table         string   `json:"table"`
	Page          int      `json:"page"`
	PageSize      int      `json:"page_size"`
	Filters       []Filter `json:"filters,omitempty"`
	Sorts         []Sort   `json:"sorts,omitempty"`
	WhereClause   *string  `json:"where_clause,omitempty"`
	OrderByClause *string  `json:"order_by_clause,omitempty"`
}

// Normalize clamps page and page size to sane values.
func (r *TableDataRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = 100
	}
}

// TableDataResponse is one page of rows plus the metadata a grid needs
// to page, sort and edit.
type TableDataResponse struct {
	Columns          []TableColumnMeta `json:"columns"`
	Rows             [][]*string       `json:"rows"`
	TotalRows        int64             `json:"total_rows"`
	Page             int               `json:"page"`
	PageSize         int               `json:"page_size"`
	PrimaryKeyIdx    []int             `json:"primary_key_indices"`
	UniqueKeyIdx     []int             `json:"unique_key_indices"`
	AutoIncrementIdx []int             `json:"auto_increment_indices"`
}

// RowChangeKind tags an edit captured in a grid.
type RowChangeKind string

const (
	RowAdded   RowChangeKind = "added"
	RowUpdated RowChangeKind = "updated"
	RowDeleted RowChangeKind = "deleted"
)

// RowChange is one edited row. Added rows carry Data, updated rows carry
// OriginalData plus the changed cells, deleted rows carry OriginalData.
type RowChange struct {
	Kind         RowChangeKind   `json:"kind"`
	Data         []*string       `json:"data,omitempty"`
	OriginalData []*string       `json:"original_data,omitempty"`
	Changes      map[int]*string `json:"changes,omitempty"`
}

// TableSaveRequest applies a batch of grid edits to one table.
type TableSaveRequest struct {
	Database          string      `json:"database"`
	Schema            *string     `json:"schema,omitempty"`
	Table             string      `json:"table"`
	ColumnNames       []string    `json:"column_names"`
	PrimaryKeyIndices []int       `json:"primary_key_indices"`
	UniqueKeyIndices  []int       `json:"unique_key_indices"`
	Changes           []RowChange `json:"changes"`
}

// TableSaveResponse reports per-row outcomes of a save.
type TableSaveResponse struct {
	SuccessCount int      `json:"success_count"`
	Errors       []string `json:"errors,omitempty"`
}
