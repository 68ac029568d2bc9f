package sqledit

import (
	"slices"
	"strings"
)

// ContextKind names the kind of completion the editor should offer.
type ContextKind string

const (
	// CompleteNone means nothing useful can be offered, for example
	// inside a string literal or a CREATE TABLE body.
	CompleteNone ContextKind = "none"
	// CompleteKeyword suggests statement keywords.
	CompleteKeyword ContextKind = "keyword"
	// CompleteTable suggests table names.
	CompleteTable ContextKind = "table"
	// CompleteColumn suggests column names.
	CompleteColumn ContextKind = "column"
	// CompleteDatabase suggests database names.
	CompleteDatabase ContextKind = "database"
	// CompleteSchema suggests schema names.
	CompleteSchema ContextKind = "schema"
	// CompleteFuncArg means the cursor is inside a function call.
	CompleteFuncArg ContextKind = "function_arg"
)

// Context describes the completion target at a cursor position.
type Context struct {
	Kind ContextKind
	// Partial is the word being typed under the cursor, up to the
	// cursor, without quote delimiters. Empty at a word boundary.
	Partial string
	// Qualifier is the dotted chain before the partial. A lone alias
	// is resolved to its table in column contexts; longer chains stay
	// as written.
	Qualifier []string
}

// InferContext determines what the editor should complete at a byte
// offset into sql. The cursor is clamped to the input bounds.
func InferContext(sql string, cursor int) Context {
	if cursor < 0 {
		cursor = 0
	} else if cursor > len(sql) {
		cursor = len(sql)
	}

	tokens := Tokenize(sql)
	for _, t := range tokens {
		if insideLiteral(t, cursor, len(sql)) {
			return Context{Kind: CompleteNone}
		}
	}

	toks := meaningful(tokens)
	symbols := BuildSymbols(toks)

	// The word being typed: a name or keyword the cursor sits in or
	// directly after.
	partialIdx := -1
	for i, t := range toks {
		if t.Start >= cursor {
			break
		}
		if cursor <= t.End && isPartialKind(t.Kind) {
			partialIdx = i
			break
		}
	}

	var partial string
	var before []Token
	if partialIdx >= 0 {
		partial = partialText(toks[partialIdx], cursor)
		before = toks[:partialIdx]
	} else {
		n := 0
		for n < len(toks) && toks[n].End <= cursor {
			n++
		}
		before = toks[:n]
	}

	// Collect the ident.ident. chain directly before the partial.
	var chain []string
	i := len(before)
	for i >= 2 && before[i-1].Kind == KindDot && before[i-2].IsIdent() {
		chain = append(chain, before[i-2].Ident())
		i -= 2
	}
	slices.Reverse(chain)
	before = before[:i]

	kind := clauseContext(before)
	if len(chain) > 0 && (kind == CompleteKeyword || kind == CompleteNone) {
		kind = CompleteColumn
	}
	if kind == CompleteColumn && len(chain) == 1 {
		if table, ok := symbols.ResolveAlias(chain[0]); ok {
			chain[0] = table
		}
	}

	return Context{Kind: kind, Partial: partial, Qualifier: chain}
}

// clauseContext infers the completion kind from the tokens before the
// cursor, scoped to the statement after the last semicolon.
func clauseContext(toks []Token) ContextKind {
	for i := len(toks) - 1; i >= 0; i-- {
		if toks[i].Kind == KindSemicolon {
			toks = toks[i+1:]
			break
		}
	}
	if len(toks) == 0 {
		return CompleteKeyword
	}

	if idx, open := unmatchedParen(toks); open {
		return parenContext(toks, idx)
	}

	for i := len(toks) - 1; i >= 0; i-- {
		if toks[i].Kind == KindKeyword {
			return keywordContext(toks, i)
		}
	}
	return CompleteKeyword
}

// keywordContext maps the last keyword before the cursor to a
// completion kind. Some keywords read differently depending on the
// keyword before them: BY, TABLE, DATABASE and SCHEMA.
func keywordContext(toks []Token, kwIdx int) ContextKind {
	kw := strings.ToUpper(toks[kwIdx].Text)
	prev := ""
	if kwIdx > 0 && toks[kwIdx-1].Kind == KindKeyword {
		prev = strings.ToUpper(toks[kwIdx-1].Text)
	}

	switch kw {
	case "SELECT", "DISTINCT", "ALL":
		return CompleteColumn
	case "FROM", "JOIN", "INNER", "LEFT", "RIGHT", "FULL", "CROSS":
		return CompleteTable
	case "INTO", "UPDATE", "TRUNCATE":
		return CompleteTable
	case "WHERE", "AND", "OR", "ON", "HAVING":
		return CompleteColumn
	case "BY":
		if prev == "ORDER" || prev == "GROUP" {
			return CompleteColumn
		}
		return CompleteKeyword
	case "SET":
		return CompleteColumn
	case "VALUES":
		return CompleteNone
	case "TABLE":
		switch prev {
		case "CREATE":
			return CompleteNone
		case "DROP", "ALTER", "TRUNCATE":
			return CompleteTable
		}
		return CompleteKeyword
	case "DATABASE":
		switch prev {
		case "CREATE":
			return CompleteNone
		case "DROP", "ALTER":
			return CompleteDatabase
		}
		return CompleteKeyword
	case "SCHEMA":
		switch prev {
		case "CREATE":
			return CompleteNone
		case "DROP", "ALTER":
			return CompleteSchema
		}
		return CompleteKeyword
	case "USE":
		return CompleteDatabase
	default:
		return CompleteKeyword
	}
}

// parenContext handles a cursor inside an unclosed parenthesis: a
// CREATE TABLE body, an INSERT column list, a VALUES tuple, a function
// call, or a subquery.
func parenContext(toks []Token, parenIdx int) ContextKind {
	for i := parenIdx - 1; i >= 0; i-- {
		if toks[i].IsIdent() || toks[i].Kind == KindDot {
			continue
		}
		if toks[i].Is("TABLE") && i > 0 && toks[i-1].Is("CREATE") {
			return CompleteNone
		}
		if toks[i].Is("INTO") {
			return CompleteColumn
		}
		break
	}
	if parenIdx > 0 {
		prev := toks[parenIdx-1]
		if prev.Is("VALUES") {
			return CompleteNone
		}
		if prev.IsIdent() {
			return CompleteFuncArg
		}
	}
	// A subquery or a bare group reads as its own statement.
	return clauseContext(toks[parenIdx+1:])
}

// unmatchedParen returns the index of the innermost unclosed opening
// parenthesis, scanning from the right.
func unmatchedParen(toks []Token) (int, bool) {
	depth := 0
	for i := len(toks) - 1; i >= 0; i-- {
		switch toks[i].Kind {
		case KindRParen:
			depth++
		case KindLParen:
			if depth == 0 {
				return i, true
			}
			depth--
		}
	}
	return 0, false
}

func isPartialKind(k Kind) bool {
	return k == KindIdent || k == KindQuotedIdent || k == KindKeyword
}

// partialText slices the token text up to the cursor, dropping the
// opening delimiter of a quoted identifier.
func partialText(t Token, cursor int) string {
	text := t.Text[:cursor-t.Start]
	if t.Kind == KindQuotedIdent && len(text) > 0 {
		text = text[1:]
	}
	return text
}

// insideLiteral reports whether the cursor sits inside a string,
// comment, or placeholder. A literal still open at the end of the
// input owns a cursor at the end too.
func insideLiteral(t Token, cursor, inputLen int) bool {
	switch t.Kind {
	case KindString, KindComment, KindPlaceholder:
	default:
		return false
	}
	if cursor > t.Start && cursor < t.End {
		return true
	}
	return cursor == t.End && t.End == inputLen && !terminated(t)
}

// terminated reports whether a string or comment closed itself before
// the input ended.
func terminated(t Token) bool {
	switch t.Kind {
	case KindComment:
		if strings.HasPrefix(t.Text, "/*") {
			return len(t.Text) >= 4 && strings.HasSuffix(t.Text, "*/")
		}
		// A line comment owns the rest of its line.
		return false
	case KindString:
		return len(t.Text) >= 2 && t.Text[len(t.Text)-1] == '\''
	default:
		return true
	}
}
