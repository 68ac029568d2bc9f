package sqledit

import (
	"slices"
	"strings"
)

// SymbolTable records what a SQL buffer references: table sources and
// their aliases from FROM and JOIN clauses, CTE names, derived-table
// aliases, and column aliases from select lists. Alias lookup is
// case-insensitive; recorded names keep their original case.
type SymbolTable struct {
	aliases map[string]string
	tables  []string
	ctes    []string
	columns []string
}

// BuildSymbols scans a token stream and collects its symbols.
//
// A table without an alias maps to itself, `users u` and `users AS u`
// map u to users, and a schema-qualified `public.users u` maps u to
// users while Tables records public.users as written. Derived tables
// (subqueries with an alias) register the alias self-mapped since no
// base table backs them. Registration is flat: aliases and tables
// inside subqueries and CTE bodies are visible alongside the outer
// ones.
func BuildSymbols(tokens []Token) *SymbolTable {
	st := &SymbolTable{aliases: make(map[string]string)}
	st.scan(meaningful(tokens))
	return st
}

func (st *SymbolTable) scan(toks []Token) {
	depth := 0
	inSelect := make(map[int]bool)

	for i := 0; i < len(toks); {
		t := toks[i]
		switch {
		case t.Kind == KindLParen:
			depth++
			i++
		case t.Kind == KindRParen:
			delete(inSelect, depth)
			if depth > 0 {
				depth--
			}
			i++
		case t.Kind == KindSemicolon:
			clear(inSelect)
			i++
		case t.Is("SELECT"):
			inSelect[depth] = true
			i++
		case t.Is("WITH"):
			i = st.parseCTEs(toks, i+1)
		case t.Is("AS") && inSelect[depth]:
			if i+1 < len(toks) && toks[i+1].IsIdent() {
				st.columns = append(st.columns, toks[i+1].Ident())
				i += 2
				continue
			}
			i++
		case t.Is("FROM") || isJoinStarter(t):
			inSelect[depth] = false
			j := i + 1
			if !t.Is("JOIN") && !t.Is("FROM") {
				// LEFT, RIGHT, FULL, CROSS and INNER run up to JOIN.
				for j < len(toks) && !toks[j].Is("JOIN") {
					j++
				}
				if j < len(toks) {
					j++
				}
			}
			i = st.parseTableRefs(toks, j)
		default:
			i++
		}
	}
}

// ResolveAlias maps an alias to its source table.
func (st *SymbolTable) ResolveAlias(name string) (string, bool) {
	table, ok := st.aliases[strings.ToLower(name)]
	return table, ok
}

// IsAlias reports whether name is a registered alias.
func (st *SymbolTable) IsAlias(name string) bool {
	_, ok := st.aliases[strings.ToLower(name)]
	return ok
}

// Tables returns the distinct table sources in first-seen order,
// qualified as written. CTE references are not included.
func (st *SymbolTable) Tables() []string {
	return slices.Clone(st.tables)
}

// CTEs returns the WITH clause names in declaration order.
func (st *SymbolTable) CTEs() []string {
	return slices.Clone(st.ctes)
}

// ColumnAliases returns the AS aliases collected from select lists.
func (st *SymbolTable) ColumnAliases() []string {
	return slices.Clone(st.columns)
}

func (st *SymbolTable) register(alias, table string) {
	st.aliases[strings.ToLower(alias)] = table
}

func (st *SymbolTable) addTable(source string) {
	if st.isCTE(source) {
		return
	}
	for _, t := range st.tables {
		if strings.EqualFold(t, source) {
			return
		}
	}
	st.tables = append(st.tables, source)
}

func (st *SymbolTable) isCTE(name string) bool {
	for _, c := range st.ctes {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// parseCTEs consumes `name [(cols)] AS (...)` declarations after WITH,
// comma-separated, and returns the index after the last one.
func (st *SymbolTable) parseCTEs(toks []Token, i int) int {
	// WITH RECURSIVE name AS (...): RECURSIVE scans as a plain
	// identifier, so skip it only when another name follows.
	if i+1 < len(toks) && strings.EqualFold(toks[i].Ident(), "recursive") && toks[i+1].IsIdent() {
		i++
	}
	for i < len(toks) {
		if !toks[i].IsIdent() {
			return i
		}
		name := toks[i].Ident()
		i++
		if i < len(toks) && toks[i].Kind == KindLParen {
			i = skipParens(toks, i)
		}
		if i >= len(toks) || !toks[i].Is("AS") {
			return i
		}
		i++
		if i >= len(toks) || toks[i].Kind != KindLParen {
			return i
		}
		st.ctes = append(st.ctes, name)
		end := skipParens(toks, i)
		st.scan(interior(toks, i, end))
		i = end
		if i < len(toks) && toks[i].Kind == KindComma {
			i++
			continue
		}
		return i
	}
	return i
}

// parseTableRefs consumes the comma-separated table references after
// FROM or JOIN and returns the index of the first unconsumed token.
func (st *SymbolTable) parseTableRefs(toks []Token, i int) int {
	for i < len(toks) {
		// Derived table: ( subquery ) [AS] alias. The subquery is
		// scanned on its own so its tables and aliases register too.
		if toks[i].Kind == KindLParen {
			end := skipParens(toks, i)
			st.scan(interior(toks, i, end))
			i = end
			if i < len(toks) && toks[i].Is("AS") {
				i++
			}
			if i < len(toks) && toks[i].IsIdent() {
				name := toks[i].Ident()
				st.register(name, name)
				i++
			}
			if i < len(toks) && toks[i].Kind == KindComma {
				i++
				continue
			}
			return i
		}

		if !toks[i].IsIdent() {
			return i
		}
		parts := []string{toks[i].Ident()}
		i++
		for i+1 < len(toks) && toks[i].Kind == KindDot && toks[i+1].IsIdent() {
			parts = append(parts, toks[i+1].Ident())
			i += 2
		}
		table := parts[len(parts)-1]

		hasAS := i < len(toks) && toks[i].Is("AS")
		if hasAS {
			i++
		}
		if i < len(toks) && toks[i].IsIdent() {
			st.register(toks[i].Ident(), table)
			i++
		} else if !hasAS {
			st.register(table, table)
		}
		st.addTable(strings.Join(parts, "."))

		if i < len(toks) && toks[i].Kind == KindComma {
			i++
			continue
		}
		return i
	}
	return i
}

// interior slices out the tokens between an opening paren at start and
// end as returned by skipParens, dropping the closer when present.
func interior(toks []Token, start, end int) []Token {
	inner := toks[start+1 : end]
	if n := len(inner); n > 0 && inner[n-1].Kind == KindRParen {
		inner = inner[:n-1]
	}
	return inner
}

// skipParens advances past a balanced parenthesized region. i must be
// at the opening paren; returns the index after the matching closer,
// or len(toks) when unbalanced.
func skipParens(toks []Token, i int) int {
	depth := 0
	for ; i < len(toks); i++ {
		switch toks[i].Kind {
		case KindLParen:
			depth++
		case KindRParen:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return i
}

// meaningful drops comment tokens.
func meaningful(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind != KindComment {
			out = append(out, t)
		}
	}
	return out
}

func isJoinStarter(t Token) bool {
	return t.Is("JOIN") || t.Is("INNER") || t.Is("LEFT") || t.Is("RIGHT") ||
		t.Is("FULL") || t.Is("CROSS")
}
