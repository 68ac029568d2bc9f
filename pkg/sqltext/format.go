package sqltext

import "strings"

// Compress collapses all whitespace runs in a statement to single spaces,
// producing a one-line form suitable for logs and history entries.
func Compress(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

// clauseKeywords start a new line at column zero with their body indented.
var clauseKeywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "HAVING": true,
	"LIMIT": true, "OFFSET": true, "VALUES": true, "SET": true,
	"UNION": true, "INTERSECT": true, "EXCEPT": true, "UPDATE": true,
}

// joinStarters begin an indented join line; the join body stays inline.
var joinStarters = map[string]bool{
	"JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true,
	"FULL": true, "CROSS": true,
}

// inlineKeywords are uppercased in place without affecting layout.
var inlineKeywords = map[string]bool{
	"AS": true, "ON": true, "NOT": true, "IN": true, "IS": true,
	"NULL": true, "LIKE": true, "BETWEEN": true, "ASC": true, "DESC": true,
	"DISTINCT": true, "ALL": true, "CASE": true, "WHEN": true, "THEN": true,
	"ELSE": true, "END": true, "EXISTS": true, "BY": true, "INTO": true,
	"OUTER": true, "USING": true, "TABLE": true, "INDEX": true, "VIEW": true,
	"IF": true, "TRUE": true, "FALSE": true, "GROUP": true, "ORDER": true,
	"INSERT": true, "DELETE": true, "AND": true, "OR": true,
}

type fmtToken struct {
	text   string
	isWord bool
}

// Format pretty-prints a statement: clause keywords uppercased onto their own
// lines, clause bodies indented, one select item per line. String literals,
// quoted identifiers and comments pass through untouched. Input that cannot
// be laid out this way (already-exotic SQL) still round-trips token by token.
func Format(sql string) string {
	tokens := scanFormatTokens(sql)
	if len(tokens) == 0 {
		return strings.TrimSpace(sql)
	}

	var b strings.Builder
	depth := 0
	needSpace := false
	atLineStart := true

	newline := func(indent bool) {
		b.WriteByte('\n')
		if indent {
			b.WriteString("  ")
		}
		needSpace = false
		atLineStart = true
	}
	write := func(s string) {
		if needSpace {
			b.WriteByte(' ')
		}
		b.WriteString(s)
		needSpace = true
		atLineStart = false
	}
	attach := func(s string) {
		b.WriteString(s)
		needSpace = true
		atLineStart = false
	}

	var prevWord bool
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		if tok.isWord {
			upper := strings.ToUpper(tok.text)

			if depth == 0 {
				switch {
				case (upper == "GROUP" || upper == "ORDER") && nextWordIs(tokens, i+1, "BY"):
					if !atLineStart {
						newline(false)
					}
					write(upper + " BY")
					i++
					newline(true)
					prevWord = false
					continue

				case upper == "INSERT" && nextWordIs(tokens, i+1, "INTO"):
					if !atLineStart {
						newline(false)
					}
					write("INSERT INTO")
					i++
					newline(true)
					prevWord = false
					continue

				case upper == "DELETE" && nextWordIs(tokens, i+1, "FROM"):
					if !atLineStart {
						newline(false)
					}
					write("DELETE FROM")
					i++
					newline(true)
					prevWord = false
					continue

				case clauseKeywords[upper]:
					if !atLineStart {
						newline(false)
					}
					kw := upper
					if (upper == "UNION" || upper == "INTERSECT" || upper == "EXCEPT") &&
						nextWordIs(tokens, i+1, "ALL") {
						kw += " ALL"
						i++
					}
					write(kw)
					newline(true)
					prevWord = false
					continue

				case upper == "JOIN" ||
					(joinStarters[upper] && nextWordIsAny(tokens, i+1, "OUTER", "JOIN")):
					phrase := upper
					for nextWordIsAny(tokens, i+1, "OUTER", "JOIN") {
						i++
						phrase += " " + strings.ToUpper(tokens[i].text)
						if strings.HasSuffix(phrase, "JOIN") {
							break
						}
					}
					if !atLineStart {
						newline(true)
					}
					write(phrase)
					prevWord = false
					continue

				case upper == "AND" || upper == "OR":
					if !atLineStart {
						newline(true)
					}
					write(upper)
					prevWord = false
					continue
				}
			}

			if inlineKeywords[upper] || clauseKeywords[upper] || joinStarters[upper] {
				write(upper)
			} else {
				write(tok.text)
			}
			prevWord = !isReservedWord(upper)
			continue
		}

		switch tok.text {
		case "(":
			depth++
			if prevWord {
				attach("(")
			} else {
				write("(")
			}
			needSpace = false
			prevWord = false
		case ")":
			if depth > 0 {
				depth--
			}
			attach(")")
			prevWord = true
		case ",":
			attach(",")
			if depth == 0 {
				newline(true)
			}
			prevWord = false
		case ";":
			attach(";")
			if i < len(tokens)-1 {
				newline(false)
			}
			prevWord = false
		default:
			write(tok.text)
			prevWord = false
		}
	}

	return strings.TrimRight(b.String(), " \n")
}

func isReservedWord(upper string) bool {
	return inlineKeywords[upper] || clauseKeywords[upper] || joinStarters[upper]
}

func nextWordIs(tokens []fmtToken, i int, word string) bool {
	return i < len(tokens) && tokens[i].isWord && strings.EqualFold(tokens[i].text, word)
}

func nextWordIsAny(tokens []fmtToken, i int, words ...string) bool {
	for _, w := range words {
		if nextWordIs(tokens, i, w) {
			return true
		}
	}
	return false
}

// scanFormatTokens splits a statement into words, literals and punctuation.
// Strings, quoted identifiers and comments come through as single tokens so
// their contents are never re-cased or re-spaced.
func scanFormatTokens(sql string) []fmtToken {
	var tokens []fmtToken
	runes := []rune(sql)

	for i := 0; i < len(runes); {
		ch := runes[i]

		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++

		case ch == '\'' || ch == '"' || ch == '`':
			j := scanQuoted(runes, i, ch)
			tokens = append(tokens, fmtToken{text: string(runes[i:j])})
			i = j

		case ch == '-' && i+1 < len(runes) && runes[i+1] == '-':
			j := i
			for j < len(runes) && runes[j] != '\n' {
				j++
			}
			tokens = append(tokens, fmtToken{text: string(runes[i:j])})
			i = j

		case ch == '/' && i+1 < len(runes) && runes[i+1] == '*':
			j := i + 2
			for j+1 < len(runes) && !(runes[j] == '*' && runes[j+1] == '/') {
				j++
			}
			if j+1 < len(runes) {
				j += 2
			} else {
				j = len(runes)
			}
			tokens = append(tokens, fmtToken{text: string(runes[i:j])})
			i = j

		case isWordRune(ch):
			j := i
			for j < len(runes) && (isWordRune(runes[j]) || runes[j] == '.') {
				j++
			}
			tokens = append(tokens, fmtToken{text: string(runes[i:j]), isWord: true})
			i = j

		default:
			// Multi-rune operators stay whole so they don't pick up spaces.
			if i+1 < len(runes) {
				two := string(runes[i : i+2])
				switch two {
				case "<=", ">=", "<>", "!=", "||", "::":
					tokens = append(tokens, fmtToken{text: two})
					i += 2
					continue
				}
			}
			tokens = append(tokens, fmtToken{text: string(ch)})
			i++
		}
	}

	return tokens
}

func scanQuoted(runes []rune, start int, quote rune) int {
	j := start + 1
	for j < len(runes) {
		if runes[j] == quote {
			if j+1 < len(runes) && runes[j+1] == quote {
				j += 2
				continue
			}
			return j + 1
		}
		j++
	}
	return len(runes)
}

func isWordRune(ch rune) bool {
	return ch == '_' || ch == '$' || ch == '@' || ch == ':' ||
		(ch >= '0' && ch <= '9') ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
		ch > 127
}
