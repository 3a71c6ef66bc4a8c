package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// promptModel is a one-line Bubble Tea input that exits on submit or cancel.
type promptModel struct {
	input    textinput.Model
	label    string
	done     bool
	canceled bool
}

func newPrompt(label string) promptModel {
	ti := textinput.New()
	ti.Placeholder = "1,3,5"
	ti.Prompt = "> "
	ti.CharLimit = 512
	ti.Focus()
	return promptModel{input: ti, label: label}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Submit):
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, keys.Back), key.Matches(msg, keys.Quit):
			m.canceled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || m.canceled {
		return ""
	}
	return fmt.Sprintf("%s\n%s\n", promptStyle.Render(m.label), m.input.View())
}

// Value returns the submitted text. Cancelling yields io.EOF.
func (m promptModel) Value() (string, error) {
	if m.canceled || !m.done {
		return "", io.EOF
	}
	return m.input.Value(), nil
}

// runPrompt shows label and reads one line through Bubble Tea.
func runPrompt(ctx context.Context, in io.Reader, out io.Writer, label string) (string, error) {
	p := tea.NewProgram(newPrompt(label),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", fmt.Errorf("failed to read command: %w", err)
	}
	return final.(promptModel).Value()
}
