// Package duckdb implements the DuckDB backend.
//
// This file registers the backend with the plugin registry. Import the
// package with a blank identifier to make it available:
//
//	import _ "github.com/onehub-labs/onehub/pkg/plugins/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/onehub-labs/onehub/pkg/plugin"
)

func init() {
	plugin.Register("duckdb", func(logger *slog.Logger) plugin.Plugin { return New(logger) })
}
