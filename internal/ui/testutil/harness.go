package testutil

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Harness drives a tea.Model without a terminal, collecting the commands
// it returns.
type Harness struct {
	model tea.Model
	cmds  []tea.Cmd
}

// New wraps m, running its Init.
func New(m tea.Model) *Harness {
	h := &Harness{model: m}
	if cmd := m.Init(); cmd != nil {
		h.cmds = append(h.cmds, cmd)
	}
	return h
}

// Model returns the current model for type assertion.
func (h *Harness) Model() tea.Model {
	return h.model
}

// View returns the rendered model with styling removed.
func (h *Harness) View() string {
	return StripANSI(h.model.View())
}

// Send delivers msg and returns the resulting command.
func (h *Harness) Send(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	h.model, cmd = h.model.Update(msg)
	if cmd != nil {
		h.cmds = append(h.cmds, cmd)
	}
	return cmd
}

// Type sends each rune of s as a separate key press.
func (h *Harness) Type(s string) {
	for _, r := range s {
		h.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// Key sends a special key (enter, escape, tab, ...).
func (h *Harness) Key(t tea.KeyType) tea.Cmd {
	return h.Send(tea.KeyMsg{Type: t})
}

// LastCommand returns the most recent command, or nil if none.
func (h *Harness) LastCommand() tea.Cmd {
	if len(h.cmds) == 0 {
		return nil
	}
	return h.cmds[len(h.cmds)-1]
}

// Quit reports whether cmd, once run, asks the program to exit.
func Quit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}
