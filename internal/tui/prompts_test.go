package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestConfirmModel(t *testing.T) {
	t.Run("y accepts", func(t *testing.T) {
		m := confirmModel{prompt: "Publish pr42_fix?"}
		next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
		require.NotNil(t, cmd)
		final := next.(confirmModel)
		require.True(t, final.done)
		require.True(t, final.choice)
		require.NoError(t, final.err)
	})

	t.Run("n declines", func(t *testing.T) {
		m := confirmModel{prompt: "Publish?", choice: true}
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
		require.False(t, next.(confirmModel).choice)
	})

	t.Run("enter keeps the default", func(t *testing.T) {
		m := confirmModel{prompt: "Publish?", choice: true}
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		final := next.(confirmModel)
		require.True(t, final.done)
		require.True(t, final.choice)
	})

	t.Run("ctrl+c cancels", func(t *testing.T) {
		m := confirmModel{prompt: "Publish?"}
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		require.ErrorIs(t, next.(confirmModel).err, ErrCanceled)
	})

	t.Run("view shows detail and default", func(t *testing.T) {
		m := confirmModel{prompt: "Publish?", detail: "force-push pr42_fix to origin", choice: true}
		view := m.View()
		require.Contains(t, view, "force-push pr42_fix to origin")
		require.Contains(t, view, "Publish? [Y/n]")

		m.done = true
		require.Empty(t, m.View())
	})
}

func TestTextInputModel(t *testing.T) {
	ti := textinput.New()
	ti.SetValue("[Repost] Add caching")
	ti.Focus()
	m := textInputModel{textInput: ti, prompt: "Title"}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("!")})
	next, _ = next.(textInputModel).Update(tea.KeyMsg{Type: tea.KeyEnter})
	final := next.(textInputModel)
	require.True(t, final.done)
	require.NoError(t, final.err)
	require.Equal(t, "[Repost] Add caching!", final.textInput.Value())
}

func TestPromptsDisabled(t *testing.T) {
	t.Setenv("REPOST_NO_INTERACTIVE", "1")

	_, err := PromptConfirm("Publish?", "", true)
	require.ErrorIs(t, err, ErrInteractiveDisabled)

	_, err = PromptTextInput("Title", "x")
	require.ErrorIs(t, err, ErrInteractiveDisabled)

	_, err = PromptNote("Add a note?")
	require.ErrorIs(t, err, ErrInteractiveDisabled)
}
