// Package sqltext provides backend-independent SQL script utilities:
// statement splitting, statement classification, editability analysis,
// and whitespace-level formatting. Everything here works on raw text
// without a full SQL parser, so it behaves predictably across dialects.
package sqltext

import "strings"

// Split breaks a script into individual statements on unquoted semicolons.
// Single quotes, double quotes, and backticks protect their content; line
// comments (-- and #) and block comments (/* */) are stripped. Statements
// are trimmed and empty statements dropped.
func Split(script string) []string {
	var statements []string
	var current strings.Builder

	runes := []rune(script)
	n := len(runes)

	inSingle := false
	inDouble := false
	inBacktick := false
	inLineComment := false
	inBlockComment := false

	for i := 0; i < n; i++ {
		ch := runes[i]
		inQuote := inSingle || inDouble || inBacktick

		if !inQuote && !inBlockComment {
			if ch == '-' && i+1 < n && runes[i+1] == '-' {
				i++
				inLineComment = true
				continue
			}
			if ch == '#' {
				inLineComment = true
				continue
			}
		}

		if inLineComment {
			if ch == '\n' {
				inLineComment = false
				current.WriteRune(ch)
			}
			continue
		}

		if !inQuote && ch == '/' && i+1 < n && runes[i+1] == '*' {
			i++
			inBlockComment = true
			continue
		}

		if inBlockComment {
			if ch == '*' && i+1 < n && runes[i+1] == '/' {
				i++
				inBlockComment = false
			}
			continue
		}

		switch {
		case ch == '\'' && !inDouble && !inBacktick:
			inSingle = !inSingle
			current.WriteRune(ch)
			continue
		case ch == '"' && !inSingle && !inBacktick:
			inDouble = !inDouble
			current.WriteRune(ch)
			continue
		case ch == '`' && !inSingle && !inDouble:
			inBacktick = !inBacktick
			current.WriteRune(ch)
			continue
		}

		if ch == ';' && !inSingle && !inDouble && !inBacktick {
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
			continue
		}

		current.WriteRune(ch)
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}
