package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Spinner shows progress during a slow operation. It is a no-op on
// non-terminal output so piped runs stay clean.
type Spinner struct {
	prog    *tea.Program
	done    chan struct{}
	w       io.Writer
	styles  *Styles
	message string
}

// NewSpinner creates a spinner with the given message. Call Start to show
// it and Success or Fail to resolve it.
func (r *Renderer) NewSpinner(message string) *Spinner {
	s := &Spinner{
		w:       r.out,
		styles:  r.styles,
		message: message,
	}
	if !r.isTTY {
		return s
	}
	model := spinModel{
		sp:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		message: message,
	}
	s.prog = tea.NewProgram(model, tea.WithOutput(r.out))
	return s
}

// Start begins the animation.
func (s *Spinner) Start() {
	if s.prog == nil {
		return
	}
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		_, _ = s.prog.Run()
	}()
}

// Success stops the spinner and prints a success line.
func (s *Spinner) Success(message string) {
	s.stop()
	_, _ = fmt.Fprintf(s.w, "%s %s\n", s.styles.StatusSuccess.String(), message)
}

// Fail stops the spinner and prints a failure line.
func (s *Spinner) Fail(message string) {
	s.stop()
	_, _ = fmt.Fprintf(s.w, "%s %s\n", s.styles.StatusFailed.String(), message)
}

func (s *Spinner) stop() {
	if s.prog == nil || s.done == nil {
		return
	}
	s.prog.Quit()
	<-s.done
	s.done = nil
}

type spinModel struct {
	sp      spinner.Model
	message string
}

func (m spinModel) Init() tea.Cmd {
	return m.sp.Tick
}

func (m spinModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.sp, cmd = m.sp.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinModel) View() string {
	return m.sp.View() + " " + m.message
}
