package styles

import "github.com/charmbracelet/lipgloss"

// Panel returns the bordered box that frames one prompt, sized to width.
func Panel(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(T().Border).
		Padding(0, 1).
		Width(max(width-2, 20))
}
