// Package styles holds the color palette and shared lipgloss styles of the
// terminal prompt.
package styles

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette and pre-built styles for the prompt.
type Theme struct {
	// Brand/accent colors
	Primary   lipgloss.Color // Purple - cursor, titles
	Secondary lipgloss.Color // Gold/orange - file names

	// Text hierarchy (most to least prominent)
	FgBase   lipgloss.Color
	FgMuted  lipgloss.Color
	FgSubtle lipgloss.Color

	BgCursor lipgloss.Color // Selected candidate

	Border lipgloss.Color

	// Confidence colors
	Success lipgloss.Color // Green - high confidence
	Warning lipgloss.Color // Yellow/orange - plausible
	Error   lipgloss.Color // Red - weak match, errors

	styles *Styles
}

// Styles contains pre-built lipgloss styles for common prompt elements.
type Styles struct {
	Base     lipgloss.Style
	Muted    lipgloss.Style
	Subtle   lipgloss.Style
	Title    lipgloss.Style
	File     lipgloss.Style
	Selected lipgloss.Style // Cursor row
	Key      lipgloss.Style // Key names in hints
	Label    lipgloss.Style // Form labels
	Success  lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
}

var defaultTheme = Theme{
	Primary:   lipgloss.Color("#a78bfa"),
	Secondary: lipgloss.Color("#f1a208"),

	FgBase:   lipgloss.Color("#c0c0c0"),
	FgMuted:  lipgloss.Color("#808080"),
	FgSubtle: lipgloss.Color("#585858"),

	BgCursor: lipgloss.Color("#303030"),

	Border: lipgloss.Color("#585858"),

	Success: lipgloss.Color("#42b883"),
	Warning: lipgloss.Color("#f1a208"),
	Error:   lipgloss.Color("#ff5555"),
}

// T returns the default theme.
func T() *Theme {
	return &defaultTheme
}

// S returns the pre-built styles for this theme.
func (t *Theme) S() *Styles {
	if t.styles == nil {
		t.styles = t.buildStyles()
	}
	return t.styles
}

// ScoreStyle colors a confidence score: green at or above accept, orange
// at or above min, red below.
func (t *Theme) ScoreStyle(score, accept, minimum float64) lipgloss.Style {
	s := t.S()
	switch {
	case score >= accept:
		return s.Success
	case score >= minimum:
		return s.Warning
	}
	return s.Error
}

func (t *Theme) buildStyles() *Styles {
	base := lipgloss.NewStyle().Foreground(t.FgBase)

	return &Styles{
		Base:   base,
		Muted:  lipgloss.NewStyle().Foreground(t.FgMuted),
		Subtle: lipgloss.NewStyle().Foreground(t.FgSubtle),
		Title:  base.Bold(true),
		File:   lipgloss.NewStyle().Foreground(t.Secondary).Bold(true),
		Selected: lipgloss.NewStyle().
			Background(t.BgCursor).
			Foreground(t.Primary).
			Bold(true),
		Key:     lipgloss.NewStyle().Foreground(t.Primary),
		Label:   lipgloss.NewStyle().Foreground(t.FgMuted).Width(8),
		Success: lipgloss.NewStyle().Foreground(t.Success),
		Error:   lipgloss.NewStyle().Foreground(t.Error),
		Warning: lipgloss.NewStyle().Foreground(t.Warning),
	}
}
