package ui

// Base provides size management for component models.
// Embed this in component models to get standard methods automatically.
//
// Example:
//
//	type Model struct {
//	    ui.Base
//	    cursor cursor.Cursor
//	}
type Base struct {
	width, height int
}

// SetSize sets the component dimensions.
func (b *Base) SetSize(width, height int) {
	b.width = width
	b.height = height
}

// Width returns the component width, or DefaultWidth before the terminal
// size is known.
func (b Base) Width() int {
	if b.width <= 0 {
		return DefaultWidth
	}
	return b.width
}

// Height returns the component height.
func (b Base) Height() int {
	return b.height
}

// ListHeight returns the number of list rows that fit once overhead lines
// are accounted for. Without a known height it falls back to
// MaxVisibleCandidates.
func (b Base) ListHeight(overhead int) int {
	if b.height <= 0 {
		return MaxVisibleCandidates
	}
	return max(min(b.height-overhead, MaxVisibleCandidates), 1)
}
