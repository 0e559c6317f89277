package prompt

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/tagwiz/internal/identify"
	"github.com/llehouerou/tagwiz/internal/ui/render"
	"github.com/llehouerou/tagwiz/internal/ui/styles"
)

const (
	indexWidth  = 3
	scoreWidth  = 5
	sourceWidth = 12
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.done {
		return ""
	}

	width := m.Width() - 4 // panel border and padding
	parts := []string{m.renderHeader(width), m.renderCurrent(width), ""}
	if m.mode == modeForm {
		parts = append(parts, m.renderForm(width))
	} else {
		parts = append(parts, m.renderList(width))
	}
	parts = append(parts, "", m.renderHints())

	return styles.Panel(m.Width()).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m *Model) renderHeader(width int) string {
	s := styles.T().S()
	heading := "Choose a match"
	switch {
	case m.mode == modeForm && m.editing >= 0:
		heading = "Edit match"
	case m.mode == modeForm:
		heading = "Enter tags"
	case !m.hasCandidates():
		heading = "No match found"
	}
	name := s.File.Render(render.Truncate(filepath.Base(m.req.Path), max(width-lipgloss.Width(heading)-1, 10)))
	return render.Row(styles.Heading(heading), name, width)
}

func (m *Model) renderCurrent(width int) string {
	s := styles.T().S()
	cur := m.req.Current
	if cur == nil || (cur.Title == "" && cur.Artist == "" && cur.Album == "") {
		hint := render.Join(" - ", m.req.Hints.Artist, m.req.Hints.Title)
		if hint == "" {
			return s.Muted.Render("No tags")
		}
		return s.Muted.Render("No tags, file name suggests: ") + s.Base.Render(render.Truncate(hint, max(width-30, 10)))
	}
	line := render.Join(" · ", render.Join(" - ", cur.Artist, cur.Title), cur.Album, cur.Year())
	return s.Muted.Render("Current: ") + s.Base.Render(render.Truncate(line, max(width-9, 10)))
}

func (m *Model) renderList(width int) string {
	s := styles.T().S()
	if !m.hasCandidates() {
		return s.Muted.Render("Neither the fingerprint nor a text search found anything.\n" +
			"Press m to enter the tags by hand, or s to leave the file untouched.")
	}

	cands := m.req.Candidates
	height := m.listHeight()
	start, end := m.cursor.VisibleRange(len(cands), height)

	lines := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderCandidate(i, cands[i], width))
	}
	if len(cands) > height {
		lines = append(lines, s.Subtle.Render(fmt.Sprintf("%d-%d of %d", start+1, end, len(cands))))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderCandidate(i int, c identify.Candidate, width int) string {
	s := styles.T().S()

	idx := render.Pad(fmt.Sprintf("%d", i+1), indexWidth)
	score := render.Pad("", scoreWidth)
	if c.Scored {
		score = styles.T().ScoreStyle(c.Score, m.thresholds.Accept, m.thresholds.Min).
			Render(render.Pad(fmt.Sprintf("%3.0f%%", c.Score*100), scoreWidth))
	}
	source := s.Subtle.Render(render.Column(c.Source.String(), sourceWidth))

	textWidth := max(width-indexWidth-scoreWidth-sourceWidth-3, 10)
	text := render.Join(" · ", render.Join(" - ", c.Artist, c.Title), c.Album, c.Year)
	text = render.Column(text, textWidth)

	if i == m.cursor.Pos() {
		return s.Selected.Render(idx) + " " + score + " " + source + " " + s.Selected.Render(text)
	}
	return s.Base.Render(idx) + " " + score + " " + source + " " + s.Base.Render(text)
}

func (m *Model) renderForm(width int) string {
	s := styles.T().S()
	lines := make([]string, 0, fieldCount+2)
	for i, label := range fieldLabels {
		marker := "  "
		if i == m.focus {
			marker = s.Key.Render("> ")
		}
		m.inputs[i].Width = max(width-12, 10)
		lines = append(lines, marker+s.Label.Render(label)+m.inputs[i].View())
	}
	if m.editing >= 0 {
		c := m.req.Candidates[m.editing]
		lines = append(lines, "", s.Subtle.Render("MusicBrainz IDs of "+c.Source.String()+" match are kept"))
	}
	if m.offersCover() {
		box := "[x]"
		if !m.keepCover {
			box = "[ ]"
		}
		lines = append(lines, s.Base.Render(box)+" "+s.Subtle.Render("keep the suggested cover"))
	}
	if m.formErr != "" {
		lines = append(lines, "", s.Error.Render(m.formErr))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderHints() string {
	s := styles.T().S()
	var keys [][2]string
	switch {
	case m.mode == modeForm && m.offersCover():
		keys = [][2]string{{"tab", "next field"}, {"enter", "next/save"}, {"ctrl+s", "save"}, {"ctrl+k", "cover"}, {"esc", "back"}}
	case m.mode == modeForm:
		keys = [][2]string{{"tab", "next field"}, {"enter", "next/save"}, {"ctrl+s", "save"}, {"esc", "back"}}
	case m.hasCandidates():
		keys = [][2]string{{"↑↓/1-9", "move"}, {"enter", "select"}, {"e", "edit"}, {"m", "manual"}, {"s", "skip"}, {"q", "quit"}}
	default:
		keys = [][2]string{{"m", "manual"}, {"s", "skip"}, {"q", "quit"}}
	}

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = s.Key.Render(k[0]) + " " + s.Subtle.Render(k[1])
	}
	return strings.Join(parts, s.Subtle.Render(" · "))
}
