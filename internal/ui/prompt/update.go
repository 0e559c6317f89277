package prompt

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/tagwiz/internal/identify"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		if m.done {
			return m, nil
		}
		if msg.Type == tea.KeyCtrlC {
			return m, m.finish(identify.Decision{Action: identify.ActionStop})
		}
		if m.mode == modeForm {
			return m, m.handleFormKey(msg)
		}
		return m, m.handleListKey(msg)
	}
	return m, nil
}

func (m *Model) handleListKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if m.hasCandidates() && m.cursor.HandleKey(key, len(m.req.Candidates), m.listHeight()) {
		return nil
	}

	switch key {
	case "enter":
		if !m.hasCandidates() {
			return m.openForm(-1)
		}
		return m.finish(identify.Decision{Action: identify.ActionSelect, Index: m.cursor.Pos()})
	case "e":
		if m.hasCandidates() {
			return m.openForm(m.cursor.Pos())
		}
	case "m":
		return m.openForm(-1)
	case "s", "esc":
		return m.finish(identify.Decision{Action: identify.ActionReject})
	case "q":
		return m.finish(identify.Decision{Action: identify.ActionStop})
	}
	return nil
}

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.formErr = ""
		return nil
	case "tab", "down":
		return m.focusField((m.focus + 1) % fieldCount)
	case "shift+tab", "up":
		return m.focusField((m.focus + fieldCount - 1) % fieldCount)
	case "enter":
		if m.focus < fieldCount-1 {
			return m.focusField(m.focus + 1)
		}
		return m.submit()
	case "ctrl+s":
		return m.submit()
	case "ctrl+k":
		if m.offersCover() {
			m.keepCover = !m.keepCover
		}
		return nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	m.formErr = ""
	return cmd
}

// submit validates the form and turns it into a decision. An empty manual
// entry is a rejection; the resolver treats it that way too.
func (m *Model) submit() tea.Cmd {
	f := m.fields()
	if y := strings.TrimSpace(f.Year); y != "" && !yearPattern.MatchString(y) {
		m.formErr = "Year must look like YYYY, YYYY-MM or YYYY-MM-DD"
		return m.focusField(fieldYear)
	}

	if m.editing >= 0 {
		return m.finish(identify.Decision{
			Action:    identify.ActionEdit,
			Index:     m.editing,
			Fields:    f,
			NoArtwork: m.offersCover() && !m.keepCover,
		})
	}
	if f.IsEmpty() {
		return m.finish(identify.Decision{Action: identify.ActionReject})
	}
	return m.finish(identify.Decision{Action: identify.ActionManual, Fields: f})
}
