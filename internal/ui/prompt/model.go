// Package prompt asks the user to settle files the pipeline could not
// identify on its own.
package prompt

import (
	"regexp"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/tagwiz/internal/identify"
	"github.com/llehouerou/tagwiz/internal/ui"
	"github.com/llehouerou/tagwiz/internal/ui/cursor"
	"github.com/llehouerou/tagwiz/internal/ui/styles"
)

type mode int

const (
	modeList mode = iota // choosing among candidates (or facing none)
	modeForm             // editing a candidate or entering fields by hand
)

// Form field order.
const (
	fieldTitle = iota
	fieldArtist
	fieldAlbum
	fieldYear
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Artist", "Album", "Year"}

var yearPattern = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2})?)?$`)

// Model is the bubbletea model of a single prompt. It quits as soon as a
// decision is made.
type Model struct {
	ui.Base
	req        identify.Request
	thresholds identify.Thresholds

	cursor cursor.Cursor
	mode   mode

	// Form state. editing is the candidate index being edited, or -1 for
	// a manual entry.
	inputs  []textinput.Model
	focus   int
	editing int
	formErr string
	// keepCover is the edit form's answer to "keep the suggested cover?"
	keepCover bool

	decision identify.Decision
	done     bool
}

// NewModel creates the prompt model for req. Thresholds only color the
// scores.
func NewModel(req identify.Request, t identify.Thresholds) *Model {
	m := &Model{
		req:        req,
		thresholds: t,
		cursor:     cursor.New(ui.ScrollMargin),
		editing:    -1,
	}
	m.inputs = make([]textinput.Model, fieldCount)
	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 256
		ti.Width = 50
		ti.TextStyle = styles.T().S().Base
		ti.PlaceholderStyle = styles.T().S().Subtle
		m.inputs[i] = ti
	}
	m.inputs[fieldYear].CharLimit = 10
	m.inputs[fieldYear].Placeholder = "YYYY"
	return m
}

// Decision returns the user's answer and whether one was made.
func (m *Model) Decision() (identify.Decision, bool) {
	return m.decision, m.done
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) hasCandidates() bool {
	return len(m.req.Candidates) > 0
}

func (m *Model) listHeight() int {
	return m.ListHeight(ui.PromptOverhead)
}

// openForm switches to the form, prefilled from a candidate (edit) or from
// the hints and current tags (manual).
func (m *Model) openForm(editing int) tea.Cmd {
	m.mode = modeForm
	m.editing = editing
	m.formErr = ""
	m.keepCover = true

	var values [fieldCount]string
	if editing >= 0 {
		c := m.req.Candidates[editing]
		values = [fieldCount]string{c.Title, c.Artist, c.Album, c.Year}
	} else {
		values[fieldTitle] = m.req.Hints.Title
		values[fieldArtist] = m.req.Hints.Artist
		if cur := m.req.Current; cur != nil {
			values[fieldAlbum] = cur.Album
			values[fieldYear] = cur.Year()
		}
	}
	for i := range m.inputs {
		m.inputs[i].SetValue(values[i])
		m.inputs[i].CursorEnd()
	}
	return m.focusField(fieldTitle)
}

func (m *Model) focusField(i int) tea.Cmd {
	m.focus = i
	var cmd tea.Cmd
	for j := range m.inputs {
		if j == i {
			cmd = m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return cmd
}

func (m *Model) fields() identify.Fields {
	return identify.Fields{
		Title:  m.inputs[fieldTitle].Value(),
		Artist: m.inputs[fieldArtist].Value(),
		Album:  m.inputs[fieldAlbum].Value(),
		Year:   m.inputs[fieldYear].Value(),
	}
}

// offersCover reports whether the edit form can decline cover art: only a
// candidate with a release has one to suggest.
func (m *Model) offersCover() bool {
	return m.editing >= 0 && m.req.Candidates[m.editing].ReleaseID != ""
}

func (m *Model) finish(d identify.Decision) tea.Cmd {
	m.decision = d
	m.done = true
	return tea.Quit
}
