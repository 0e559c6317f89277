// Package ui provides shared UI constants and utilities.
package ui

// Layout constants for the candidate prompt.
const (
	// ScrollMargin is the number of candidates kept visible above/below the cursor.
	ScrollMargin = 2

	// MaxVisibleCandidates caps the candidate list when the terminal height is unknown.
	MaxVisibleCandidates = 10

	// DefaultWidth is used until the terminal reports its size.
	DefaultWidth = 100

	// PromptOverhead is the vertical space taken by the header, the current
	// tags block and the key hints around the candidate list.
	PromptOverhead = 9
)
