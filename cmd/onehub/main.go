// Package main is the onehub binary.
package main

import (
	"os"

	"github.com/onehub-labs/onehub/internal/cli"

	// Register the database backends.
	_ "github.com/onehub-labs/onehub/pkg/plugins/duckdb"
	_ "github.com/onehub-labs/onehub/pkg/plugins/mysql"
	_ "github.com/onehub-labs/onehub/pkg/plugins/postgres"
	_ "github.com/onehub-labs/onehub/pkg/plugins/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
