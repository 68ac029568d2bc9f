// Package core defines the shared language of the OneHub database layer.
//
// This package contains:
//   - Connection configuration (Config)
//   - Schema object metadata (DatabaseInfo, TableInfo, ColumnInfo, ...)
//   - Execution types (ExecOptions, Result, StreamProgress)
//   - Tree types for lazy schema browsing (Node, NodeType)
//   - Table data querying and editing types (TableDataRequest, RowChange, ...)
//
// The Golden Rule: pkg/core imports ONLY the stdlib.
// All other packages depend on core, not the reverse.
package core
