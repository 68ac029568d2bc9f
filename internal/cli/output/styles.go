package output

import "github.com/charmbracelet/lipgloss"

// Styles is the lipgloss style set used by text-mode rendering. All styles
// are plain when color is off so output stays clean in pipes and dumps.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	// Status glyphs, pre-set so callers can use .String().
	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

// NewStyles builds the style set, colored or plain.
func NewStyles(color bool) *Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return &Styles{
			Header1:       plain,
			Header2:       plain,
			Bold:          plain,
			Muted:         plain,
			Success:       plain,
			Warning:       plain,
			Error:         plain,
			Info:          plain,
			StatusSuccess: plain.SetString("✓"),
			StatusFailed:  plain.SetString("✗"),
		}
	}

	success := lipgloss.Color("42")
	failure := lipgloss.Color("196")

	return &Styles{
		Header1:       lipgloss.NewStyle().Bold(true).Underline(true),
		Header2:       lipgloss.NewStyle().Bold(true),
		Bold:          lipgloss.NewStyle().Bold(true),
		Muted:         lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Success:       lipgloss.NewStyle().Foreground(success),
		Warning:       lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Error:         lipgloss.NewStyle().Foreground(failure),
		Info:          lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		StatusSuccess: lipgloss.NewStyle().Foreground(success).SetString("✓"),
		StatusFailed:  lipgloss.NewStyle().Foreground(failure).SetString("✗"),
	}
}
