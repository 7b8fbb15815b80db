// This file contains the interactive confirmation prompt used by `pm run`
// when a decision lands in the confirmation band.
package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// confirmModel asks a yes/no question. Anything but an affirmative answer
// declines; Ctrl+C and Esc decline too. Declining is not an error.
type confirmModel struct {
	input    textinput.Model
	message  string
	accepted bool
	done     bool
}

func newConfirmModel(message string) confirmModel {
	ti := textinput.New()
	ti.Placeholder = "y/N"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 16
	ti.Width = 20
	ti.PromptStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)

	return confirmModel{
		input:   ti,
		message: message,
	}
}

func (m confirmModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.done = true
			return m, tea.Quit

		case tea.KeyEnter:
			m.accepted = isAffirmative(m.input.Value())
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	prompt := badgeConfirm.Render("CONFIRM")
	return fmt.Sprintf("%s %s\n%s\n", prompt, m.message, m.input.View())
}

// isAffirmative recognizes English and Chinese yes-words; everything else,
// including an empty answer, declines.
func isAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "是", "好", "确认":
		return true
	}
	return false
}

// askConfirmation runs the prompt and reports the user's answer.
func askConfirmation(message string) (bool, error) {
	p := tea.NewProgram(newConfirmModel(message))
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	m, ok := final.(confirmModel)
	if !ok {
		return false, nil
	}
	return m.accepted, nil
}
