package sqltext

import (
	"fmt"
	"strings"
)

// StatementType is the coarse category of a SQL statement.
type StatementType int

const (
	// StatementQuery returns rows (SELECT, SHOW, EXPLAIN, ...).
	StatementQuery StatementType = iota
	// StatementDML manipulates data (INSERT, UPDATE, DELETE, REPLACE, MERGE).
	StatementDML
	// StatementDDL defines objects (CREATE, ALTER, DROP, TRUNCATE, ...).
	StatementDDL
	// StatementTransaction controls transactions (BEGIN, COMMIT, SAVEPOINT, ...).
	StatementTransaction
	// StatementCommand adjusts the session or server (USE, SET, GRANT, ...).
	StatementCommand
	// StatementExec is anything else executed for its side effect.
	StatementExec
)

// String returns the string representation of the statement type.
func (t StatementType) String() string {
	switch t {
	case StatementQuery:
		return "query"
	case StatementDML:
		return "dml"
	case StatementDDL:
		return "ddl"
	case StatementTransaction:
		return "transaction"
	case StatementCommand:
		return "command"
	default:
		return "exec"
	}
}

// IsQuery reports whether a statement returns rows.
func IsQuery(sql string) bool {
	trimmed := strings.ToUpper(strings.TrimSpace(sql))

	return strings.HasPrefix(trimmed, "SELECT") ||
		strings.HasPrefix(trimmed, "SHOW") ||
		strings.HasPrefix(trimmed, "DESC") ||
		strings.HasPrefix(trimmed, "DESCRIBE") ||
		strings.HasPrefix(trimmed, "EXPLAIN") ||
		strings.HasPrefix(trimmed, "WITH") ||
		strings.HasPrefix(trimmed, "TABLE") ||
		strings.HasPrefix(trimmed, "PRAGMA")
}

// Classify buckets a statement by its leading keyword.
func Classify(sql string) StatementType {
	trimmed := strings.ToUpper(strings.TrimSpace(sql))

	if IsQuery(sql) {
		return StatementQuery
	}

	switch {
	case hasAnyPrefix(trimmed, "INSERT", "UPDATE", "DELETE", "REPLACE", "MERGE"):
		return StatementDML

	case hasAnyPrefix(trimmed, "CREATE", "ALTER", "DROP", "TRUNCATE", "RENAME", "COMMENT"):
		return StatementDDL

	case hasAnyPrefix(trimmed, "BEGIN", "START", "COMMIT", "ROLLBACK", "SAVEPOINT", "RELEASE"):
		return StatementTransaction

	case hasAnyPrefix(trimmed, "USE", "SET", "GRANT", "REVOKE", "FLUSH", "DEALLOCATE",
		"RESET", "KILL", "LOCK", "UNLOCK", "ANALYZE", "OPTIMIZE", "REPAIR", "CHECK", "CHECKSUM"):
		return StatementCommand
	}

	return StatementExec
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// complexKeywords disqualify a SELECT from in-grid editing.
var complexKeywords = []string{
	" JOIN ", " INNER JOIN ", " LEFT JOIN ", " RIGHT JOIN ", " OUTER JOIN ",
	" CROSS JOIN ", " FULL JOIN ",
	" UNION ", " INTERSECT ", " EXCEPT ",
	" GROUP BY ", " HAVING ",
	"DISTINCT",
}

var aggregateFunctions = []string{
	"COUNT(", "SUM(", "AVG(", "MAX(", "MIN(",
	"GROUP_CONCAT(", "STRING_AGG(",
}

// AnalyzeSelectEditability decides whether a SELECT is a plain single-table
// query whose result grid can be edited in place. It returns the table name
// when editable, or "" when the query is too complex to map rows back to
// table rows (joins, set operations, aggregates, DISTINCT, subqueries).
func AnalyzeSelectEditability(sql string) string {
	upper := strings.ToUpper(strings.TrimSpace(sql))

	if !strings.HasPrefix(upper, "SELECT") {
		return ""
	}

	for _, kw := range complexKeywords {
		if strings.Contains(upper, kw) {
			return ""
		}
	}
	for _, fn := range aggregateFunctions {
		if strings.Contains(upper, fn) {
			return ""
		}
	}

	fromPos := strings.Index(upper, " FROM ")
	if fromPos < 0 {
		return ""
	}

	afterFrom := strings.TrimSpace(sql[fromPos+6:])
	fields := strings.Fields(afterFrom)
	if len(fields) == 0 {
		return ""
	}

	table := strings.TrimRight(fields[0], ";")
	table = strings.Trim(table, "`")
	table = strings.Trim(table, `"`)
	table = strings.Trim(table, "'")

	if strings.ContainsAny(table, "(,") {
		return ""
	}

	return table
}

// FormatMessage builds the human-readable summary for a non-query statement.
func FormatMessage(sql string, rowsAffected int64) string {
	trimmed := strings.ToUpper(strings.TrimSpace(sql))

	switch {
	case strings.HasPrefix(trimmed, "INSERT"):
		return fmt.Sprintf("Inserted %d row(s)", rowsAffected)
	case strings.HasPrefix(trimmed, "UPDATE"):
		return fmt.Sprintf("Updated %d row(s)", rowsAffected)
	case strings.HasPrefix(trimmed, "DELETE"):
		return fmt.Sprintf("Deleted %d row(s)", rowsAffected)
	case strings.HasPrefix(trimmed, "REPLACE"):
		return fmt.Sprintf("Replaced %d row(s)", rowsAffected)
	case strings.HasPrefix(trimmed, "CREATE"):
		return "Object created successfully"
	case strings.HasPrefix(trimmed, "ALTER"):
		return "Object altered successfully"
	case strings.HasPrefix(trimmed, "DROP"):
		return "Object dropped successfully"
	case strings.HasPrefix(trimmed, "TRUNCATE"):
		return "Table truncated successfully"
	case strings.HasPrefix(trimmed, "RENAME"):
		return "Object renamed successfully"
	case strings.HasPrefix(trimmed, "USE"):
		return "Database changed successfully"
	case strings.HasPrefix(trimmed, "SET"):
		return "Variable set successfully"
	case strings.HasPrefix(trimmed, "BEGIN"), strings.HasPrefix(trimmed, "START TRANSACTION"):
		return "Transaction started"
	case strings.HasPrefix(trimmed, "COMMIT"):
		return "Transaction committed"
	case strings.HasPrefix(trimmed, "ROLLBACK"):
		return "Transaction rolled back"
	}
	return fmt.Sprintf("Query executed successfully, %d row(s) affected", rowsAffected)
}
