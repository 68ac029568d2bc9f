// Package mysql implements the MySQL backend.
//
// This file registers the backend with the plugin registry. Import the
// package with a blank identifier to make it available:
//
//	import _ "github.com/onehub-labs/onehub/pkg/plugins/mysql"
package mysql

import (
	"log/slog"

	"github.com/onehub-labs/onehub/pkg/plugin"
)

func init() {
	plugin.Register("mysql", func(logger *slog.Logger) plugin.Plugin { return New(logger) })
}
