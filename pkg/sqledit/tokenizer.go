package sqledit

import "unicode/utf8"

// Tokenize scans sql into tokens. Whitespace separates tokens and is
// dropped; comments are kept so callers can tell when a position sits
// inside one. Unterminated strings, quoted identifiers, and block
// comments run to the end of the input.
func Tokenize(sql string) []Token {
	s := scanner{input: sql}
	var tokens []Token
	for {
		tok, ok := s.next()
		if !ok {
			break
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

type scanner struct {
	input string
	pos   int
}

func (s *scanner) peek() byte {
	if s.pos >= len(s.input) {
		return 0
	}
	return s.input[s.pos]
}

func (s *scanner) peekAt(n int) byte {
	if s.pos+n >= len(s.input) {
		return 0
	}
	return s.input[s.pos+n]
}

func (s *scanner) token(kind Kind, start int) Token {
	return Token{Kind: kind, Text: s.input[start:s.pos], Start: start, End: s.pos}
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.input) {
		switch s.input[s.pos] {
		case ' ', '\t', '\n', '\r':
			s.pos++
		default:
			return
		}
	}
}

func (s *scanner) next() (Token, bool) {
	s.skipSpace()
	if s.pos >= len(s.input) {
		return Token{}, false
	}

	start := s.pos
	ch := s.input[s.pos]

	switch {
	case ch == '-' && s.peekAt(1) == '-':
		return s.scanLineComment(start), true
	case ch == '#':
		return s.scanLineComment(start), true
	case ch == '/' && s.peekAt(1) == '*':
		return s.scanBlockComment(start), true
	case ch == '\'':
		s.scanQuoted('\'')
		return s.token(KindString, start), true
	case ch == '"':
		s.scanQuoted('"')
		return s.token(KindQuotedIdent, start), true
	case ch == '`':
		s.scanQuoted('`')
		return s.token(KindQuotedIdent, start), true
	case ch == '[':
		s.scanQuoted(']')
		return s.token(KindQuotedIdent, start), true
	case isDigit(ch):
		return s.scanNumber(start), true
	case isIdentStart(ch):
		return s.scanWord(start), true
	}

	s.pos++
	switch ch {
	case '.':
		return s.token(KindDot, start), true
	case ',':
		return s.token(KindComma, start), true
	case ';':
		return s.token(KindSemicolon, start), true
	case '(':
		return s.token(KindLParen, start), true
	case ')':
		return s.token(KindRParen, start), true
	case '?':
		for isDigit(s.peek()) {
			s.pos++
		}
		return s.token(KindPlaceholder, start), true
	case '$':
		if isDigit(s.peek()) || isIdentStart(s.peek()) {
			for isIdentChar(s.peek()) {
				s.pos++
			}
			return s.token(KindPlaceholder, start), true
		}
		return s.token(KindUnknown, start), true
	case ':':
		if s.peek() == ':' {
			s.pos++
			return s.token(KindOperator, start), true
		}
		if isIdentStart(s.peek()) {
			for isIdentChar(s.peek()) {
				s.pos++
			}
			return s.token(KindPlaceholder, start), true
		}
		return s.token(KindUnknown, start), true
	case '@':
		if s.peek() == '@' {
			s.pos++
		}
		if isIdentStart(s.peek()) {
			for isIdentChar(s.peek()) {
				s.pos++
			}
			return s.token(KindPlaceholder, start), true
		}
		return s.token(KindUnknown, start), true
	case '=', '<', '>', '+', '-', '*', '/', '%', '!', '&', '|', '^', '~':
		return s.scanOperator(start, ch), true
	}
	return s.token(KindUnknown, start), true
}

// scanOperator handles single operators and the two-character forms
// <=, >=, <>, !=, ||, && and ->. The first character is consumed.
func (s *scanner) scanOperator(start int, first byte) Token {
	second := s.peek()
	switch {
	case second == '=' && (first == '<' || first == '>' || first == '!'):
		s.pos++
	case first == '<' && second == '>':
		s.pos++
	case first == '|' && second == '|':
		s.pos++
	case first == '&' && second == '&':
		s.pos++
	case first == '-' && second == '>':
		s.pos++
	}
	return s.token(KindOperator, start)
}

func (s *scanner) scanLineComment(start int) Token {
	for s.pos < len(s.input) && s.input[s.pos] != '\n' {
		s.pos++
	}
	return s.token(KindComment, start)
}

func (s *scanner) scanBlockComment(start int) Token {
	s.pos += 2 // consume /*
	for s.pos < len(s.input) {
		if s.input[s.pos] == '*' && s.peekAt(1) == '/' {
			s.pos += 2
			break
		}
		s.pos++
	}
	return s.token(KindComment, start)
}

// scanQuoted consumes a quoted region. The opening delimiter is at the
// current position; closer is the closing byte, escaped by doubling.
func (s *scanner) scanQuoted(closer byte) {
	s.pos++ // consume opening delimiter
	for s.pos < len(s.input) {
		if s.input[s.pos] == closer {
			if s.peekAt(1) == closer {
				s.pos += 2
				continue
			}
			s.pos++
			return
		}
		s.pos++
	}
}

func (s *scanner) scanNumber(start int) Token {
	for isDigit(s.peek()) {
		s.pos++
	}
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		s.pos++
		for isDigit(s.peek()) {
			s.pos++
		}
	}
	if ch := s.peek(); ch == 'e' || ch == 'E' {
		next := s.peekAt(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(s.peekAt(2))) {
			s.pos += 2
			for isDigit(s.peek()) {
				s.pos++
			}
		}
	}
	return s.token(KindNumber, start)
}

func (s *scanner) scanWord(start int) Token {
	for isIdentChar(s.peek()) {
		s.pos++
	}
	if IsKeyword(s.input[start:s.pos]) {
		return s.token(KindKeyword, start)
	}
	return s.token(KindIdent, start)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// isIdentStart treats every non-ASCII byte as an identifier byte so
// UTF-8 names scan as single tokens.
func isIdentStart(ch byte) bool {
	return isLetter(ch) || ch == '_' || ch >= utf8.RuneSelf
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
