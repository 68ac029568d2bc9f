package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		want Mode
	}{
		{"explicit text", ModeText, ModeText},
		{"explicit markdown", ModeMarkdown, ModeMarkdown},
		{"explicit json", ModeJSON, ModeJSON},
		{"auto without TTY picks markdown", ModeAuto, ModeMarkdown},
		{"empty mode behaves like auto", Mode(""), ModeMarkdown},
		{"unknown mode behaves like auto", Mode("fancy"), ModeMarkdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A bytes.Buffer is never a terminal, so auto resolves to markdown.
			r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
			assert.False(t, r.IsTTY())
		})
	}
}

func TestRendererJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &bytes.Buffer{}, ModeJSON)

	require.NoError(t, r.JSON(map[string]int{"count": 3}))

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 3, decoded["count"])
}

func TestRendererHeaderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &bytes.Buffer{}, ModeMarkdown)

	r.Header(1, "Connections")
	r.Header(2, "Details")

	out := buf.String()
	assert.Contains(t, out, "# Connections")
	assert.Contains(t, out, "## Details")
}

func TestRendererStatusLine(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &bytes.Buffer{}, ModeText)

	r.StatusLine("store", "success", "")
	r.StatusLine("dial", "error", "connection refused")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "✓ store")
	assert.Contains(t, lines[1], "✗ dial")
	assert.Contains(t, lines[1], "connection refused")
}

func TestRendererErrorGoesToErrWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeText)

	r.Error("boom")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "boom")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(1, "Title"))
	assert.Equal(t, "### Deep", FormatHeader(3, "Deep"))
	assert.Equal(t, "# Clamped", FormatHeader(0, "Clamped"))
	assert.Equal(t, "- **Rows**: 42", FormatKeyValue("Rows", "42"))
	assert.Equal(t, "```sql\nSELECT 1\n```", FormatCodeBlock("sql", "SELECT 1\n"))
}

func TestSpinnerNoopWithoutTTY(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &bytes.Buffer{}, ModeAuto)

	sp := r.NewSpinner("working")
	sp.Start()
	sp.Success("done")

	// No animation frames, just the resolution line.
	assert.Equal(t, "✓ done\n", buf.String())
}
