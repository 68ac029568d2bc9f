package core

// DatabaseInfo describes a database (or catalog) on a server.
type DatabaseInfo struct {
	Name       string  `json:"name"`
	Charset    *string `json:"charset,omitempty"`
	Collation  *string `json:"collation,omitempty"`
	Size       *string `json:"size,omitempty"`
	TableCount *int64  `json:"table_count,omitempty"`
	Comment    *string `json:"comment,omitempty"`
}

// ColumnInfo describes a table column.
type ColumnInfo struct {
	Name          string  `json:"name"`
	DataType      string  `json:"data_type"`
	Nullable      bool    `json:"nullable"`
	PrimaryKey    bool    `json:"primary_key"`
	AutoIncrement bool    `json:"auto_increment"`
	DefaultValue  *string `json:"default_value,omitempty"`
	Comment       *string `json:"comment,omitempty"`
	Position      int     `json:"position"`
}

// IndexInfo describes a table index.
type IndexInfo struct {
	Name      string   `json:"name"`
	Columns   []string `json:"columns"`
	Unique    bool     `json:"unique"`
	IndexType *string  `json:"index_type,omitempty"`
}

// ForeignKeyInfo describes a foreign key constraint.
type ForeignKeyInfo struct {
	Name       string   `json:"name"`
	Columns    []string `json:"columns"`
	RefTable   string   `json:"ref_table"`
	RefColumns []string `json:"ref_columns"`
	OnUpdate   *string  `json:"on_update,omitempty"`
	OnDelete   *string  `json:"on_delete,omitempty"`
}

// TableInfo describes a table.
type TableInfo struct {
	Name      string  `json:"name"`
	Schema    *string `json:"schema,omitempty"`
	Comment   *string `json:"comment,omitempty"`
	Engine    *string `json:"engine,omitempty"`
	RowCount  *int64  `json:"row_count,omitempty"`
	Charset   *string `json:"charset,omitempty"`
	Collation *string `json:"collation,omitempty"`
}

// ViewInfo describes a view.
type ViewInfo struct {
	Name       string  `json:"name"`
	Schema     *string `json:"schema,omitempty"`
	Definition *string `json:"definition,omitempty"`
	Comment    *string `json:"comment,omitempty"`
}

// RoutineKind distinguishes stored functions from procedures.
type RoutineKind string

const (
	RoutineFunction  RoutineKind = "function"
	RoutineProcedure RoutineKind = "procedure"
)

// RoutineInfo describes a stored function or procedure.
type RoutineInfo struct {
	Name       string      `json:"name"`
	Schema     *string     `json:"schema,omitempty"`
	Kind       RoutineKind `json:"kind"`
	ReturnType *string     `json:"return_type,omitempty"`
	Parameters []string    `json:"parameters,omitempty"`
	Definition *string     `json:"definition,omitempty"`
	Comment    *string     `json:"comment,omitempty"`
}

// TriggerInfo describes a trigger.
type TriggerInfo struct {
	Name       string  `json:"name"`
	TableName  string  `json:"table_name"`
	Event      string  `json:"event"`
	Timing     string  `json:"timing"`
	Definition *string `json:"definition,omitempty"`
}

// SequenceInfo describes a sequence.
type SequenceInfo struct {
	Name       string `json:"name"`
	StartValue *int64 `json:"start_value,omitempty"`
	Increment  *int64 `json:"increment,omitempty"`
	MinValue   *int64 `json:"min_value,omitempty"`
	MaxValue   *int64 `json:"max_value,omitempty"`
}

// CharsetInfo describes an available character set.
type CharsetInfo struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	DefaultCollation string `json:"default_collation"`
}

// CollationInfo describes a collation belonging to a charset.
type CollationInfo struct {
	Name    string `json:"name"`
	Charset string `json:"charset"`
	Default bool   `json:"default"`
}

// DataTypeInfo describes a column data type offered by a backend.
type DataTypeInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DatabaseOperation carries the fields of a create/modify database request.
// FieldValues holds backend-specific attributes (charset, owner, encoding...).
type DatabaseOperation struct {
	DatabaseName string            `json:"database_name"`
	FieldValues  map[string]string `json:"field_values,omitempty"`
}

// StrPtr is a convenience for building optional string fields.
func StrPtr(s string) *string { return &s }

// Int64Ptr is a convenience for building optional int64 fields.
func Int64Ptr(n int64) *int64 { return &n }
