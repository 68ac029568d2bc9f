// Package postgres implements the PostgreSQL backend.
//
// This file registers the backend with the plugin registry. Import the
// package with a blank identifier to make it available:
//
//	import _ "github.com/onehub-labs/onehub/pkg/plugins/postgres"
package postgres

import (
	"log/slog"

	"github.com/onehub-labs/onehub/pkg/plugin"
)

func init() {
	plugin.Register("postgres", func(logger *slog.Logger) plugin.Plugin { return New(logger) })
}
