// Package sqlite implements the SQLite backend.
//
// This file registers the backend with the plugin registry. Import the
// package with a blank identifier to make it available:
//
//	import _ "github.com/onehub-labs/onehub/pkg/plugins/sqlite"
package sqlite

import (
	"log/slog"

	"github.com/onehub-labs/onehub/pkg/plugin"
)

func init() {
	plugin.Register("sqlite", func(logger *slog.Logger) plugin.Plugin { return New(logger) })
}
