// Package sqledit provides editor support for SQL text: a lossless
// tokenizer with byte offsets, a symbol table that tracks the table
// sources and aliases a statement references, and completion-context
// inference for a cursor position. Everything works on a single
// statement buffer without a live connection, so the editor can call
// it on every keystroke.
package sqledit

import "strings"

// Kind classifies a lexical token.
type Kind int

const (
	KindKeyword Kind = iota
	KindIdent
	KindQuotedIdent
	KindString
	KindNumber
	KindPlaceholder
	KindComment
	KindDot
	KindComma
	KindSemicolon
	KindLParen
	KindRParen
	KindOperator
	KindUnknown
)

var kindNames = map[Kind]string{
	KindKeyword:     "keyword",
	KindIdent:       "ident",
	KindQuotedIdent: "quoted_ident",
	KindString:      "string",
	KindNumber:      "number",
	KindPlaceholder: "placeholder",
	KindComment:     "comment",
	KindDot:         "dot",
	KindComma:       "comma",
	KindSemicolon:   "semicolon",
	KindLParen:      "lparen",
	KindRParen:      "rparen",
	KindOperator:    "operator",
	KindUnknown:     "unknown",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Token is one lexical unit with its byte span in the source.
// Text preserves the original spelling, quotes included; End is
// exclusive. Whitespace is not tokenized, comments are.
type Token struct {
	Kind  Kind
	Text  string
	Start int
	End   int
}

// Is reports whether the token is the given keyword, case-insensitively.
func (t Token) Is(keyword string) bool {
	return t.Kind == KindKeyword && strings.EqualFold(t.Text, keyword)
}

// IsIdent reports whether the token can name an object: a plain or
// quoted identifier.
func (t Token) IsIdent() bool {
	return t.Kind == KindIdent || t.Kind == KindQuotedIdent
}

// Ident returns the identifier value: quoted identifiers are stripped
// of their delimiters with doubled closers unescaped, everything else
// returns Text unchanged.
func (t Token) Ident() string {
	if t.Kind != KindQuotedIdent || len(t.Text) < 2 {
		return t.Text
	}
	open := t.Text[0]
	closer := closingQuote(open)
	body := t.Text[1:]
	if body[len(body)-1] == closer {
		body = body[:len(body)-1]
	}
	return strings.ReplaceAll(body, string([]byte{closer, closer}), string(closer))
}

func closingQuote(open byte) byte {
	if open == '[' {
		return ']'
	}
	return open
}

// keywords lists the words the tokenizer classifies as KindKeyword.
// Anything else scans as a plain identifier.
var keywords = map[string]struct{}{
	"SELECT": {}, "FROM": {}, "WHERE": {}, "JOIN": {}, "INNER": {},
	"LEFT": {}, "RIGHT": {}, "FULL": {}, "CROSS": {}, "ON": {},
	"AS": {}, "AND": {}, "OR": {}, "NOT": {}, "IN": {},
	"BETWEEN": {}, "LIKE": {}, "IS": {}, "NULL": {}, "ORDER": {},
	"GROUP": {}, "BY": {}, "HAVING": {}, "LIMIT": {}, "OFFSET": {},
	"INSERT": {}, "INTO": {}, "VALUES": {}, "UPDATE": {}, "SET": {},
	"DELETE": {}, "CREATE": {}, "ALTER": {}, "DROP": {}, "TABLE": {},
	"INDEX": {}, "VIEW": {}, "UNION": {}, "INTERSECT": {}, "EXCEPT": {},
	"ALL": {}, "DISTINCT": {}, "CASE": {}, "WHEN": {}, "THEN": {},
	"ELSE": {}, "END": {}, "WITH": {}, "ASC": {}, "DESC": {},
	"USING": {}, "EXISTS": {}, "PRIMARY": {}, "FOREIGN": {}, "KEY": {},
	"REFERENCES": {}, "UNIQUE": {}, "CHECK": {}, "DEFAULT": {},
	"TRUNCATE": {}, "TRUE": {}, "FALSE": {}, "USE": {}, "DATABASE": {},
	"SCHEMA": {},
}

// IsKeyword reports whether word is a recognized SQL keyword.
func IsKeyword(word string) bool {
	_, ok := keywords[strings.ToUpper(word)]
	return ok
}
