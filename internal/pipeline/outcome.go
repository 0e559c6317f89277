package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/llehouerou/tagwiz/internal/identify"
)

// Kind classifies the result of processing one file.
type Kind int

const (
	KindApplied Kind = iota
	KindSkipped
	KindNoMatch
	KindError
)

// Kinds lists every kind in report order.
var Kinds = []Kind{KindApplied, KindSkipped, KindNoMatch, KindError}

func (k Kind) String() string {
	switch k {
	case KindApplied:
		return "applied"
	case KindSkipped:
		return "skipped-by-user"
	case KindNoMatch:
		return "no-match"
	case KindError:
		return "error"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Outcome is the result of processing one file.
type Outcome struct {
	Path   string
	Kind   Kind
	Reason string // human-readable cause for anything but a plain apply
	Err    error

	Identity *identify.Identity
	Auto     bool // accepted without asking
	Changed  bool // the file was rewritten
	DryRun   bool
	Artwork  bool // cover art was part of the update

	// AlreadyTagged marks files skipped because their tags were present.
	AlreadyTagged bool
}

// NeedsAttention reports whether the user should look at this file.
func (o Outcome) NeedsAttention() bool {
	return o.Kind != KindApplied && !o.AlreadyTagged
}

// Summary aggregates the outcomes of a run.
type Summary struct {
	Outcomes []Outcome

	// Stopped is set when the user ended the run; Interrupted when it was
	// cancelled. Remaining counts the files never visited.
	Stopped     bool
	Interrupted bool
	Remaining   int

	// Roots are the absolute scan roots; the report shows paths relative
	// to them.
	Roots []string
}

// Add records an outcome.
func (s *Summary) Add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
}

// Count returns the number of outcomes of kind k.
func (s *Summary) Count(k Kind) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Kind == k {
			n++
		}
	}
	return n
}

// CountAlreadyTagged returns the number of files skipped because they
// were already tagged.
func (s *Summary) CountAlreadyTagged() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.AlreadyTagged {
			n++
		}
	}
	return n
}

// DisplayPath returns path relative to the innermost scan root holding
// it. A file given directly as a root shows its base name; a path outside
// every root is returned unchanged.
func (s *Summary) DisplayPath(path string) string {
	best := path
	for _, root := range s.Roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if rel == "." {
			rel = filepath.Base(path)
		}
		if len(rel) < len(best) {
			best = rel
		}
	}
	return best
}

// Attention returns the outcomes that need the user's attention, in
// processing order.
func (s *Summary) Attention() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if o.NeedsAttention() {
			out = append(out, o)
		}
	}
	return out
}
