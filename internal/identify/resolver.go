package identify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/llehouerou/tagwiz/internal/tags"
)

// State is a step of the resolution of one file.
type State int

const (
	StateStart State = iota
	StateMatched
	StateAmbiguous
	StateNone
	StateResolved
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateMatched:
		return "matched"
	case StateAmbiguous:
		return "ambiguous"
	case StateNone:
		return "none"
	case StateResolved:
		return "resolved"
	case StateRejected:
		return "rejected"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Action is what the user chose for a file.
type Action int

const (
	ActionSelect Action = iota // take Candidates[Index]
	ActionEdit                 // take Candidates[Index] with Fields overriding
	ActionManual               // use Fields only
	ActionReject               // leave the file untouched
	ActionStop                 // leave the file untouched and end the run
)

// Fields are user-supplied values. Empty fields are not set.
type Fields struct {
	Title  string
	Artist string
	Album  string
	Year   string
}

// IsEmpty reports whether no field was supplied.
func (f Fields) IsEmpty() bool {
	return strings.TrimSpace(f.Title) == "" && strings.TrimSpace(f.Artist) == "" &&
		strings.TrimSpace(f.Album) == "" && strings.TrimSpace(f.Year) == ""
}

// Decision is the answer to a Request.
type Decision struct {
	Action Action
	Index  int
	Fields Fields

	// NoArtwork declines the cover art of the edited candidate's release.
	NoArtwork bool
}

// Request asks the user to settle an ambiguous or unmatched file. State is
// StateAmbiguous when Candidates is non-empty and StateNone otherwise.
type Request struct {
	Path       string
	State      State
	Current    *tags.Tag
	Hints      QueryHints
	Candidates []Candidate
}

// Prompter obtains a decision from the user. Decide blocks until the
// decision is made or ctx is done.
type Prompter interface {
	Decide(ctx context.Context, req Request) (Decision, error)
}

// RejectReason tells why a file ended rejected.
type RejectReason int

const (
	ReasonNone RejectReason = iota
	ReasonSkippedByUser
	ReasonNoMatch
)

var (
	// ErrStopped is returned when the user asks to end the run.
	ErrStopped = errors.New("stopped by user")
	// ErrInvalidDecision is returned for a decision that does not fit the request.
	ErrInvalidDecision = errors.New("invalid decision")
)

// Thresholds control automatic acceptance.
type Thresholds struct {
	Accept        float64 // a fingerprint score at or above is accepted without asking
	Min           float64 // fingerprint candidates below are not shown
	AlwaysConfirm bool
}

// Input is everything known about a file when resolution starts.
type Input struct {
	Path        string
	Current     *tags.Tag
	Hints       QueryHints
	Fingerprint []Candidate // ordered by confidence
	Text        []Candidate // ordered by relevance
}

// Resolution is the outcome of resolving one file.
type Resolution struct {
	State    State // StateResolved or StateRejected
	Via      State // StateMatched, StateAmbiguous or StateNone
	Identity *Identity
	Auto     bool
	Reason   RejectReason
}

// Resolver decides which candidate, if any, becomes a file's identity. It
// holds no per-file state.
type Resolver struct {
	thresholds Thresholds
	prompter   Prompter
}

// NewResolver creates a resolver.
func NewResolver(t Thresholds, p Prompter) *Resolver {
	return &Resolver{thresholds: t, prompter: p}
}

// NeedsFallback reports whether text search should run for these
// fingerprint candidates: none reaches the minimum score.
func (r *Resolver) NeedsFallback(fingerprint []Candidate) bool {
	return len(fingerprint) == 0 || fingerprint[0].Score < r.thresholds.Min
}

// Resolve runs the state machine for one file. The only errors are the
// prompter's, ErrStopped and ErrInvalidDecision.
func (r *Resolver) Resolve(ctx context.Context, in Input) (Resolution, error) {
	if top, ok := r.autoAccept(in.Fingerprint); ok {
		return Resolution{
			State:    StateResolved,
			Via:      StateMatched,
			Identity: identityFrom(top),
			Auto:     true,
		}, nil
	}

	cands := Merge(in.Fingerprint, in.Text, r.thresholds.Min)
	state := StateNone
	if len(cands) > 0 {
		state = StateAmbiguous
	}

	decision, err := r.prompter.Decide(ctx, Request{
		Path:       in.Path,
		State:      state,
		Current:    in.Current,
		Hints:      in.Hints,
		Candidates: cands,
	})
	if err != nil {
		return Resolution{State: StateRejected, Via: state}, err
	}

	return apply(state, cands, decision)
}

func (r *Resolver) autoAccept(fingerprint []Candidate) (Candidate, bool) {
	if r.thresholds.AlwaysConfirm || len(fingerprint) == 0 {
		return Candidate{}, false
	}
	top := fingerprint[0]
	if top.Source != SourceFingerprint || top.Score < r.thresholds.Accept {
		return Candidate{}, false
	}
	return top, true
}

func apply(state State, cands []Candidate, d Decision) (Resolution, error) {
	rejected := Resolution{State: StateRejected, Via: state, Reason: ReasonNoMatch}
	if state == StateAmbiguous {
		rejected.Reason = ReasonSkippedByUser
	}

	switch d.Action {
	case ActionSelect, ActionEdit:
		if d.Index < 0 || d.Index >= len(cands) {
			return rejected, fmt.Errorf("%w: candidate %d of %d", ErrInvalidDecision, d.Index, len(cands))
		}
		id := identityFrom(cands[d.Index])
		if d.Action == ActionEdit {
			if !d.Fields.IsEmpty() {
				override(id, d.Fields)
				id.Edited = true
			}
			id.NoArtwork = d.NoArtwork
		}
		return Resolution{State: StateResolved, Via: state, Identity: id}, nil

	case ActionManual:
		if d.Fields.IsEmpty() {
			return rejected, nil
		}
		id := &Identity{Source: SourceManual, Edited: true}
		override(id, d.Fields)
		return Resolution{State: StateResolved, Via: state, Identity: id}, nil

	case ActionReject:
		return rejected, nil

	case ActionStop:
		return rejected, ErrStopped
	}
	return rejected, fmt.Errorf("%w: action %d", ErrInvalidDecision, d.Action)
}

func override(id *Identity, f Fields) {
	if v := strings.TrimSpace(f.Title); v != "" {
		id.Title = v
	}
	if v := strings.TrimSpace(f.Artist); v != "" {
		id.Artist = v
	}
	if v := strings.TrimSpace(f.Album); v != "" {
		id.Album = v
	}
	if v := strings.TrimSpace(f.Year); v != "" {
		id.Year = v
	}
}
