package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/sqltext"
)

// BasePlugin provides the dialect-neutral half of the Plugin contract.
// Embed it in concrete backends to get the statement helpers, identifier
// quoting and DDL defaults; override per-dialect pieces as needed.
type BasePlugin struct {
	Name   string
	Quote  string
	Logger *slog.Logger
}

// NewBasePlugin builds the embedded base for a backend. quote is the
// dialect's identifier quote ("`" or `"`); a nil logger discards.
func NewBasePlugin(name, quote string, logger *slog.Logger) BasePlugin {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return BasePlugin{Name: name, Quote: quote, Logger: logger}
}

// Type returns the backend's registry identifier.
func (b *BasePlugin) Type() string { return b.Name }

// QuoteRune returns the dialect's identifier quote character.
func (b *BasePlugin) QuoteRune() string { return b.Quote }

// QuoteIdentifier quotes an identifier, doubling embedded quote characters.
// Bracket-quoting engines ("[name]") escape the closing bracket instead.
func (b *BasePlugin) QuoteIdentifier(name string) string {
	if b.Quote == "[" {
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	}
	return b.Quote + strings.ReplaceAll(name, b.Quote, b.Quote+b.Quote) + b.Quote
}

// SupportsSchemas defaults to false; schema-aware backends override.
func (b *BasePlugin) SupportsSchemas() bool { return false }

// SupportsSequences defaults to false; sequence-aware backends override.
func (b *BasePlugin) SupportsSequences() bool { return false }

// ListSchemas defaults to none; schema-aware backends override.
func (b *BasePlugin) ListSchemas(ctx context.Context, conn Conn, database string) ([]string, error) {
	return nil, nil
}

// ListForeignKeys defaults to none; backends with FK catalogs override.
func (b *BasePlugin) ListForeignKeys(ctx context.Context, conn Conn, database, table string) ([]core.ForeignKeyInfo, error) {
	return nil, nil
}

// ListTableTriggers defaults to none; backends that can filter triggers by
// table override.
func (b *BasePlugin) ListTableTriggers(ctx context.Context, conn Conn, database, table string) ([]core.TriggerInfo, error) {
	return nil, nil
}

// ListSequences defaults to none; sequence-aware backends override.
func (b *BasePlugin) ListSequences(ctx context.Context, conn Conn, database string) ([]core.SequenceInfo, error) {
	return nil, nil
}

// SplitScript splits a script into statements.
func (b *BasePlugin) SplitScript(script string) []string { return sqltext.Split(script) }

// IsQueryStatement reports whether a statement returns rows.
func (b *BasePlugin) IsQueryStatement(sql string) bool { return sqltext.IsQuery(sql) }

// ClassifyStatement buckets a statement by its leading keyword.
func (b *BasePlugin) ClassifyStatement(sql string) sqltext.StatementType {
	return sqltext.Classify(sql)
}

// AnalyzeSelectEditability returns the table name when a SELECT's result
// grid can be edited in place, or "" when it cannot.
func (b *BasePlugin) AnalyzeSelectEditability(sql string) string {
	return sqltext.AnalyzeSelectEditability(sql)
}

// BuildColumnDefinition renders a column clause for CREATE/ALTER TABLE.
func (b *BasePlugin) BuildColumnDefinition(col core.ColumnInfo, includeName bool) string {
	var def strings.Builder

	if includeName {
		def.WriteString(b.QuoteIdentifier(col.Name))
		def.WriteByte(' ')
	}

	def.WriteString(col.DataType)

	if !col.Nullable {
		def.WriteString(" NOT NULL")
	}
	if col.DefaultValue != nil {
		def.WriteString(" DEFAULT " + *col.DefaultValue)
	}
	if col.PrimaryKey {
		def.WriteString(" PRIMARY KEY")
	}

	return def.String()
}

// BuildModifyDatabaseSQL defaults to unsupported; engines with ALTER
// DATABASE override.
func (b *BasePlugin) BuildModifyDatabaseSQL(op core.DatabaseOperation) (string, error) {
	return "", &UnsupportedError{Op: "modify database", Type: b.Name}
}

// BuildDropDatabaseSQL renders a DROP DATABASE statement.
func (b *BasePlugin) BuildDropDatabaseSQL(name string) string {
	return "DROP DATABASE IF EXISTS " + b.QuoteIdentifier(name)
}

// BuildCreateSchemaSQL renders a CREATE SCHEMA statement.
func (b *BasePlugin) BuildCreateSchemaSQL(name string) string {
	return "CREATE SCHEMA " + b.QuoteIdentifier(name)
}

// BuildDropSchemaSQL renders a DROP SCHEMA statement.
func (b *BasePlugin) BuildDropSchemaSQL(name string) string {
	return "DROP SCHEMA " + b.QuoteIdentifier(name)
}

// DropTableSQL renders a DROP TABLE statement.
func (b *BasePlugin) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + b.QuoteIdentifier(table)
}

// TruncateTableSQL renders a TRUNCATE TABLE statement.
func (b *BasePlugin) TruncateTableSQL(table string) string {
	return "TRUNCATE TABLE " + b.QuoteIdentifier(table)
}

// RenameTableSQL renders an ALTER TABLE ... RENAME TO statement.
func (b *BasePlugin) RenameTableSQL(oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
		b.QuoteIdentifier(oldName), b.QuoteIdentifier(newName))
}

// DropViewSQL renders a DROP VIEW statement.
func (b *BasePlugin) DropViewSQL(view string) string {
	return "DROP VIEW IF EXISTS " + b.QuoteIdentifier(view)
}

// Charsets defaults to none; engines with charset catalogs override.
func (b *BasePlugin) Charsets() []core.CharsetInfo { return nil }

// Collations defaults to none; engines with collation catalogs override.
func (b *BasePlugin) Collations(charset string) []core.CollationInfo { return nil }

// DataTypes lists common column types; engines override with their own
// catalog.
func (b *BasePlugin) DataTypes() []core.DataTypeInfo {
	return []core.DataTypeInfo{
		{Name: "INT", Description: "Integer number"},
		{Name: "VARCHAR(255)", Description: "Variable-length string"},
		{Name: "TEXT", Description: "Long text"},
		{Name: "DATE", Description: "Date"},
		{Name: "DATETIME", Description: "Date and time"},
		{Name: "BOOLEAN", Description: "True/False"},
		{Name: "DECIMAL(10,2)", Description: "Decimal number"},
	}
}
