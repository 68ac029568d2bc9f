package sqledit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []Kind {
	out := make([]Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}

func TestTokenizeStatement(t *testing.T) {
	tokens := Tokenize("SELECT id FROM users;")
	require.Len(t, tokens, 5)

	assert.Equal(t, []Kind{KindKeyword, KindIdent, KindKeyword, KindIdent, KindSemicolon}, kinds(tokens))
	assert.Equal(t, []string{"SELECT", "id", "FROM", "users", ";"}, texts(tokens))

	assert.Equal(t, 0, tokens[0].Start)
	assert.Equal(t, 6, tokens[0].End)
	assert.Equal(t, 7, tokens[1].Start)
	assert.Equal(t, 9, tokens[1].End)
	assert.Equal(t, 15, tokens[3].Start)
	assert.Equal(t, 20, tokens[3].End)
	assert.Equal(t, 21, tokens[4].End)
}

func TestTokenizeKinds(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
	}{
		{"users", KindIdent},
		{"select", KindKeyword},
		{"FROM", KindKeyword},
		{"'it''s'", KindString},
		{`"col name"`, KindQuotedIdent},
		{"`col`", KindQuotedIdent},
		{"[col]", KindQuotedIdent},
		{"42", KindNumber},
		{"3.14", KindNumber},
		{"1e10", KindNumber},
		{"1E-5", KindNumber},
		{"2.5e+3", KindNumber},
		{"?", KindPlaceholder},
		{"?2", KindPlaceholder},
		{"$1", KindPlaceholder},
		{"$tag", KindPlaceholder},
		{":name", KindPlaceholder},
		{"@v", KindPlaceholder},
		{"@@version", KindPlaceholder},
		{"-- note", KindComment},
		{"# note", KindComment},
		{"/* note */", KindComment},
		{".", KindDot},
		{",", KindComma},
		{";", KindSemicolon},
		{"(", KindLParen},
		{")", KindRParen},
		{"<=", KindOperator},
		{"<>", KindOperator},
		{"!=", KindOperator},
		{"||", KindOperator},
		{"->", KindOperator},
		{"::", KindOperator},
		{"=", KindOperator},
		{"$", KindUnknown},
		{":", KindUnknown},
		{"@", KindUnknown},
	}
	for _, tt := range tests {
		tokens := Tokenize(tt.input)
		require.Len(t, tokens, 1, "input %q", tt.input)
		assert.Equal(t, tt.kind, tokens[0].Kind, "input %q", tt.input)
		assert.Equal(t, tt.input, tokens[0].Text, "input %q", tt.input)
	}
}

func TestTokenizeSkipsWhitespaceKeepsComments(t *testing.T) {
	tokens := Tokenize("SELECT -- pick\n\tid /* all of them */ FROM t")
	assert.Equal(t, []string{"SELECT", "-- pick", "id", "/* all of them */", "FROM", "t"}, texts(tokens))
	assert.Equal(t, KindComment, tokens[1].Kind)
	assert.Equal(t, KindComment, tokens[3].Kind)
}

func TestTokenizeHashComment(t *testing.T) {
	tokens := Tokenize("SELECT 1 # trailing\nFROM t")
	require.Len(t, tokens, 5)
	assert.Equal(t, "# trailing", tokens[2].Text)
	assert.Equal(t, "FROM", tokens[3].Text)
}

func TestTokenizeUnterminated(t *testing.T) {
	tokens := Tokenize("SELECT 'open")
	require.Len(t, tokens, 2)
	assert.Equal(t, KindString, tokens[1].Kind)
	assert.Equal(t, "'open", tokens[1].Text)

	tokens = Tokenize("SELECT /* open")
	require.Len(t, tokens, 2)
	assert.Equal(t, "/* open", tokens[1].Text)
}

func TestTokenizeEscapedQuotes(t *testing.T) {
	tokens := Tokenize(`'a''b' "c""d"`)
	require.Len(t, tokens, 2)
	assert.Equal(t, `'a''b'`, tokens[0].Text)
	assert.Equal(t, `"c""d"`, tokens[1].Text)
}

func TestTokenizeOffsetsWithUTF8(t *testing.T) {
	sql := "SELECT имя FROM t"
	tokens := Tokenize(sql)
	require.Len(t, tokens, 4)

	assert.Equal(t, KindIdent, tokens[1].Kind)
	assert.Equal(t, "имя", tokens[1].Text)
	assert.Equal(t, 7, tokens[1].Start)
	assert.Equal(t, 13, tokens[1].End)
	assert.Equal(t, "FROM", sql[tokens[2].Start:tokens[2].End])
}

func TestTokenizeDottedQualification(t *testing.T) {
	tokens := Tokenize("db.users.id")
	assert.Equal(t, []Kind{KindIdent, KindDot, KindIdent, KindDot, KindIdent}, kinds(tokens))
}

func TestTokenIdent(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"col"`, "col"},
		{`"a""b"`, `a"b`},
		{"`col`", "col"},
		{"`a``b`", "a`b"},
		{"[col]", "col"},
		{"[a]]b]", "a]b"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		tokens := Tokenize(tt.input)
		require.Len(t, tokens, 1, "input %q", tt.input)
		assert.Equal(t, tt.want, tokens[0].Ident(), "input %q", tt.input)
	}
}

func TestTokenIs(t *testing.T) {
	tokens := Tokenize("from users")
	assert.True(t, tokens[0].Is("FROM"))
	assert.True(t, tokens[0].Is("from"))
	assert.False(t, tokens[0].Is("SELECT"))
	// An identifier never matches, even with the right spelling.
	assert.False(t, tokens[1].Is("users"))
}

func TestIsKeyword(t *testing.T) {
	assert.True(t, IsKeyword("select"))
	assert.True(t, IsKeyword("Use"))
	assert.False(t, IsKeyword("count"))
	assert.False(t, IsKeyword("users"))
}
