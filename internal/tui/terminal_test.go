package tui

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_LinePrompt(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("1,2\r\n\nlast"), &out)
	require.False(t, term.interactive)

	ctx := context.Background()
	line, err := term.Prompt(ctx, "pick: ")
	require.NoError(t, err)
	assert.Equal(t, "1,2", line)

	line, err = term.Prompt(ctx, "pick: ")
	require.NoError(t, err)
	assert.Equal(t, "", line)

	line, err = term.Prompt(ctx, "pick: ")
	require.NoError(t, err)
	assert.Equal(t, "last", line, "an unterminated final line is still a command")

	_, err = term.Prompt(ctx, "pick: ")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 4, strings.Count(out.String(), "pick: "))
}

func TestTerminal_Printf(t *testing.T) {
	var out bytes.Buffer
	NewTerminal(strings.NewReader(""), &out).Printf("Fetched %d emails.\n", 12)
	assert.Equal(t, "Fetched 12 emails.\n", out.String())
}

func TestPromptModel(t *testing.T) {
	m := newPrompt("pick")
	for _, r := range "1,3" {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(promptModel)
	}
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(promptModel)
	require.NotNil(t, cmd)

	v, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, "1,3", v)
	assert.Empty(t, m.View())
}

func TestPromptModel_Cancel(t *testing.T) {
	for _, k := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		next, _ := newPrompt("pick").Update(tea.KeyMsg{Type: k})
		_, err := next.(promptModel).Value()
		assert.ErrorIs(t, err, io.EOF)
	}
}
