package identify

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/llehouerou/tagwiz/internal/tags"
)

// QueryHints are the title and artist used for a text search.
type QueryHints struct {
	Title  string
	Artist string
}

// IsEmpty reports whether there is nothing to search for.
func (h QueryHints) IsEmpty() bool {
	return h.Title == ""
}

var filenameNoise = []*regexp.Regexp{
	regexp.MustCompile(`\s*\[[^\]]+\]$`),
	regexp.MustCompile(`(?i)\s*\([^)]*(official|lyric|audio|visualizer|video)[^)]*\)`),
	regexp.MustCompile(`(?i)\s+(HD|4K)$`),
	regexp.MustCompile(`^\d+\s*(-|\.)\s*`),
}

// ParseFilename extracts artist and title from a file name without
// extension. "Artist - Title" is split on the first separator; otherwise
// the whole cleaned name is the title.
func ParseFilename(stem string) QueryHints {
	text := strings.TrimSpace(stem)
	for _, re := range filenameNoise {
		text = strings.TrimSpace(re.ReplaceAllString(text, ""))
	}

	if artist, title, ok := strings.Cut(text, " - "); ok {
		artist, title = strings.TrimSpace(artist), strings.TrimSpace(title)
		if title != "" {
			return QueryHints{Title: title, Artist: artist}
		}
		return QueryHints{Title: artist}
	}
	return QueryHints{Title: text}
}

// HintsFor derives hints from existing tags, completing whatever they lack
// from the file name.
func HintsFor(path string, current *tags.Tag) QueryHints {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	hints := ParseFilename(stem)

	if current == nil || current.Title == "" {
		if current != nil && current.Artist != "" {
			hints.Artist = current.Artist
		}
		return hints
	}

	fromTags := QueryHints{Title: current.Title, Artist: current.Artist}
	if fromTags.Artist == "" {
		fromTags.Artist = hints.Artist
	}
	return fromTags
}
