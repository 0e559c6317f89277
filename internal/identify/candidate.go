// Package identify turns fingerprint and text search results into a single
// track identity, asking the user when the results are not conclusive.
package identify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/llehouerou/tagwiz/internal/acoustid"
	"github.com/llehouerou/tagwiz/internal/musicbrainz"
)

// Source identifies where a candidate came from.
type Source int

const (
	SourceFingerprint Source = iota
	SourceText
	SourceManual
)

func (s Source) String() string {
	switch s {
	case SourceFingerprint:
		return "fingerprint"
	case SourceText:
		return "text search"
	case SourceManual:
		return "manual"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// Candidate is a proposed identity for a file.
type Candidate struct {
	Source Source
	Score  float64 // in [0,1]; meaningful only when Scored
	Scored bool

	Title  string
	Artist string
	Album  string
	Year   string

	ReleaseID   string
	RecordingID string
}

// Complete reports whether every written field is known.
func (c Candidate) Complete() bool {
	return c.Title != "" && c.Artist != "" && c.Album != "" && c.Year != ""
}

func (c Candidate) key() string {
	return c.RecordingID + "/" + c.ReleaseID
}

// Identity is the resolved metadata to write to a file.
type Identity struct {
	Title       string
	Artist      string
	Album       string
	Year        string
	RecordingID string
	ReleaseID   string

	Source Source
	Edited bool

	// NoArtwork is set when the user declined the release's cover art.
	NoArtwork bool
}

func identityFrom(c Candidate) *Identity {
	return &Identity{
		Title:       c.Title,
		Artist:      c.Artist,
		Album:       c.Album,
		Year:        c.Year,
		RecordingID: c.RecordingID,
		ReleaseID:   c.ReleaseID,
		Source:      c.Source,
	}
}

func fromMatch(m acoustid.Match) Candidate {
	return Candidate{
		Source:      SourceFingerprint,
		Score:       m.Score,
		Scored:      true,
		Title:       m.Title,
		Artist:      m.Artist,
		Album:       m.Album,
		Year:        m.Year,
		ReleaseID:   m.ReleaseID,
		RecordingID: m.RecordingID,
	}
}

// fromRecording converts a text search result. Its synthetic confidence is
// the search score scaled into [0, ceiling].
func fromRecording(r musicbrainz.Recording, ceiling float64) Candidate {
	return Candidate{
		Source:      SourceText,
		Score:       float64(r.Score) / 100 * ceiling,
		Scored:      true,
		Title:       r.Title,
		Artist:      r.Artist,
		Album:       r.Album,
		Year:        r.Year(),
		ReleaseID:   r.ReleaseID,
		RecordingID: r.ID,
	}
}

// sortByConfidence orders candidates by score, complete tag sets first on
// equal scores, then by recording and release ID so the order never depends
// on the input order.
func sortByConfidence(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Complete() != b.Complete() {
			return a.Complete()
		}
		if a.RecordingID != b.RecordingID {
			return a.RecordingID < b.RecordingID
		}
		return a.ReleaseID < b.ReleaseID
	})
}

// dedupe keeps the first candidate of every (recording, release) pair.
func dedupe(cands []Candidate) []Candidate {
	seen := make(map[string]bool, len(cands))
	out := cands[:0]
	for _, c := range cands {
		if c.RecordingID != "" {
			if seen[c.key()] {
				continue
			}
			seen[c.key()] = true
		}
		out = append(out, c)
	}
	return out
}

// Merge builds the list shown to the user: fingerprint candidates scoring
// at least minScore come first, in their order, followed by text candidates
// in theirs. Text results already present as fingerprint results are
// dropped.
func Merge(fingerprint, text []Candidate, minScore float64) []Candidate {
	merged := make([]Candidate, 0, len(fingerprint)+len(text))
	seen := make(map[string]bool)
	for _, c := range fingerprint {
		if c.Score < minScore {
			continue
		}
		merged = append(merged, c)
		if c.RecordingID != "" {
			seen[c.key()] = true
		}
	}
	for _, c := range text {
		if c.RecordingID != "" && seen[c.key()] {
			continue
		}
		merged = append(merged, c)
	}

	// Sources never interleave; within a source the producer's order stands.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Source < merged[j].Source
	})
	return merged
}

// String renders a one-line description for logs.
func (c Candidate) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s", c.Artist, c.Title)
	if c.Album != "" {
		fmt.Fprintf(&b, " [%s", c.Album)
		if c.Year != "" {
			fmt.Fprintf(&b, ", %s", c.Year)
		}
		b.WriteString("]")
	}
	if c.Scored {
		fmt.Fprintf(&b, " (%s %.0f%%)", c.Source, c.Score*100)
	}
	return b.String()
}
