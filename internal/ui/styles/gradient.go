package styles

import (
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// Heading renders a prompt heading in bold with the theme's accent
// gradient.
func Heading(text string) string {
	t := T()
	return gradient(text, true, t.Primary, t.Secondary)
}

// ApplyGradient renders text with a horizontal color gradient.
func ApplyGradient(text string, from, to lipgloss.Color) string {
	return gradient(text, false, from, to)
}

func gradient(text string, bold bool, from, to lipgloss.Color) string {
	// Color per grapheme so combined characters keep a single color.
	var clusters []string
	for gr := uniseg.NewGraphemes(text); gr.Next(); {
		clusters = append(clusters, gr.Str())
	}
	if len(clusters) == 0 {
		return ""
	}

	base := lipgloss.NewStyle().Bold(bold)
	if len(clusters) == 1 {
		return base.Foreground(from).Render(text)
	}

	var b strings.Builder
	for i, c := range blendColors(len(clusters), from, to) {
		b.WriteString(base.Foreground(lipgloss.Color(colorToHex(c))).Render(clusters[i]))
	}
	return b.String()
}

// blendColors returns size colors from one end to the other, blended in
// HCL space.
func blendColors(size int, from, to lipgloss.Color) []color.Color {
	c1 := toColorful(from)
	if size < 2 {
		return []color.Color{c1}
	}
	c2 := toColorful(to)

	colors := make([]color.Color, size)
	for i := range size {
		colors[i] = c1.BlendHcl(c2, float64(i)/float64(size-1)).Clamped()
	}
	return colors
}

// toColorful parses a #rrggbb lipgloss color; ANSI palette indexes become
// a neutral gray.
func toColorful(c lipgloss.Color) colorful.Color {
	if col, err := colorful.Hex(string(c)); err == nil {
		return col
	}
	return colorful.Color{R: 0.5, G: 0.5, B: 0.5}
}

func colorToHex(c color.Color) string {
	if cf, ok := c.(colorful.Color); ok {
		return cf.Hex()
	}
	cf, _ := colorful.MakeColor(c)
	return cf.Hex()
}
