package identify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultThresholds = Thresholds{Accept: 0.85, Min: 0.5}

func fpCandidate(id string, score float64) Candidate {
	return Candidate{
		Source: SourceFingerprint, Score: score, Scored: true,
		Title: "Song " + id, Artist: "Artist", Album: "Album", Year: "2001",
		RecordingID: id, ReleaseID: "R-" + id,
	}
}

func textCandidate(id string) Candidate {
	return Candidate{
		Source: SourceText, Score: 0.8, Scored: true,
		Title: "Text " + id, Artist: "Artist",
		RecordingID: id, ReleaseID: "R-" + id,
	}
}

func TestResolve_AutoAcceptSkipsPrompt(t *testing.T) {
	p := &scriptedPrompter{}
	r := NewResolver(defaultThresholds, p)

	res, err := r.Resolve(context.Background(), Input{
		Path:        "track.flac",
		Fingerprint: []Candidate{fpCandidate("a", 0.92)},
	})

	require.NoError(t, err)
	assert.Equal(t, StateResolved, res.State)
	assert.Equal(t, StateMatched, res.Via)
	assert.True(t, res.Auto)
	assert.Equal(t, "Song a", res.Identity.Title)
	assert.Equal(t, "R-a", res.Identity.ReleaseID)
	assert.Empty(t, p.requests, "prompter must not be called")
}

func TestResolve_AcceptThresholdIsInclusive(t *testing.T) {
	r := NewResolver(defaultThresholds, &scriptedPrompter{})

	res, err := r.Resolve(context.Background(), Input{Fingerprint: []Candidate{fpCandidate("a", 0.85)}})

	require.NoError(t, err)
	assert.True(t, res.Auto)
}

func TestResolve_AlwaysConfirm(t *testing.T) {
	p := &scriptedPrompter{decisions: []Decision{{Action: ActionSelect, Index: 0}}}
	r := NewResolver(Thresholds{Accept: 0.85, Min: 0.5, AlwaysConfirm: true}, p)

	res, err := r.Resolve(context.Background(), Input{Fingerprint: []Candidate{fpCandidate("a", 0.99)}})

	require.NoError(t, err)
	require.Len(t, p.requests, 1)
	assert.Equal(t, StateAmbiguous, p.requests[0].State)
	assert.False(t, res.Auto)
	assert.Equal(t, StateResolved, res.State)
}

func TestResolve_AmbiguousSelection(t *testing.T) {
	p := &scriptedPrompter{decisions: []Decision{{Action: ActionSelect, Index: 1}}}
	r := NewResolver(defaultThresholds, p)

	res, err := r.Resolve(context.Background(), Input{
		Path:        "song.mp3",
		Hints:       QueryHints{Title: "Song"},
		Fingerprint: []Candidate{fpCandidate("low", 0.3), fpCandidate("mid", 0.6)},
		Text:        []Candidate{textCandidate("t1")},
	})

	require.NoError(t, err)
	require.Len(t, p.requests, 1)
	req := p.requests[0]
	assert.Equal(t, "song.mp3", req.Path)
	assert.Equal(t, StateAmbiguous, req.State)
	// below-min fingerprint results are hidden; fingerprint before text
	require.Len(t, req.Candidates, 2)
	assert.Equal(t, "mid", req.Candidates[0].RecordingID)
	assert.Equal(t, "t1", req.Candidates[1].RecordingID)

	assert.Equal(t, StateResolved, res.State)
	assert.Equal(t, StateAmbiguous, res.Via)
	assert.Equal(t, "Text t1", res.Identity.Title)
	assert.Equal(t, SourceText, res.Identity.Source)
}

func TestResolve_TextOnlySelection(t *testing.T) {
	p := &scriptedPrompter{decisions: []Decision{{Action: ActionSelect, Index: 0}}}
	r := NewResolver(defaultThresholds, p)

	res, err := r.Resolve(context.Background(), Input{
		Path: "unknown.mp3",
		Text: []Candidate{{Source: SourceText, Title: "Maybe B", Artist: "Artist Y", ReleaseID: "R2"}},
	})

	require.NoError(t, err)
	assert.Equal(t, StateResolved, res.State)
	assert.Equal(t, "Maybe B", res.Identity.Title)
	assert.Equal(t, "R2", res.Identity.ReleaseID)
}

func TestResolve_EditKeepsIdentifiers(t *testing.T) {
	p := &scriptedPrompter{decisions: []Decision{{
		Action: ActionEdit,
		Index:  0,
		Fields: Fields{Title: "  Song A (Remastered) ", Year: "1999"},
	}}}
	r := NewResolver(defaultThresholds, p)

	res, err := r.Resolve(context.Background(), Input{Fingerprint: []Candidate{fpCandidate("a", 0.7)}})

	require.NoError(t, err)
	assert.Equal(t, &Identity{
		Title: "Song A (Remastered)", Artist: "Artist", Album: "Album", Year: "1999",
		RecordingID: "a", ReleaseID: "R-a",
		Source: SourceFingerprint, Edited: true,
	}, res.Identity)
}

func TestResolve_EditCanDeclineArtwork(t *testing.T) {
	p := &scriptedPrompter{decisions: []Decision{
		{Action: ActionEdit, Index: 0, NoArtwork: true},
		{Action: ActionSelect, Index: 0, NoArtwork: true},
	}}
	r := NewResolver(defaultThresholds, p)
	in := Input{Fingerprint: []Candidate{fpCandidate("a", 0.7)}}

	res, err := r.Resolve(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, res.Identity.NoArtwork)
	assert.False(t, res.Identity.Edited, "no field changed")

	res, err = r.Resolve(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, res.Identity.NoArtwork, "only an edit declines artwork")
}

func TestResolve_RejectFromAmbiguous(t *testing.T) {
	p := &scriptedPrompter{decisions: []Decision{{Action: ActionReject}}}
	r := NewResolver(defaultThresholds, p)

	res, err := r.Resolve(context.Background(), Input{Text: []Candidate{textCandidate("t")}})

	require.NoError(t, err)
	assert.Equal(t, StateRejected, res.State)
	assert.Equal(t, ReasonSkippedByUser, res.Reason)
	assert.Nil(t, res.Identity)
}

func TestResolve_NoneDeclined(t *testing.T) {
	tests := []struct {
		name     string
		decision Decision
	}{
		{"reject", Decision{Action: ActionReject}},
		{"empty manual entry", Decision{Action: ActionManual, Fields: Fields{Title: "  "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &scriptedPrompter{decisions: []Decision{tt.decision}}
			r := NewResolver(defaultThresholds, p)

			res, err := r.Resolve(context.Background(), Input{Path: "silence.ogg"})

			require.NoError(t, err)
			require.Len(t, p.requests, 1)
			assert.Equal(t, StateNone, p.requests[0].State)
			assert.Empty(t, p.requests[0].Candidates)
			assert.Equal(t, StateRejected, res.State)
			assert.Equal(t, ReasonNoMatch, res.Reason)
		})
	}
}

func TestResolve_ManualEntry(t *testing.T) {
	p := &scriptedPrompter{decisions: []Decision{{
		Action: ActionManual,
		Fields: Fields{Title: "My Song", Artist: "Me"},
	}}}
	r := NewResolver(defaultThresholds, p)

	res, err := r.Resolve(context.Background(), Input{})

	require.NoError(t, err)
	assert.Equal(t, StateResolved, res.State)
	assert.Equal(t, StateNone, res.Via)
	assert.Equal(t, &Identity{Title: "My Song", Artist: "Me", Source: SourceManual, Edited: true}, res.Identity)
}

func TestResolve_Stop(t *testing.T) {
	p := &scriptedPrompter{decisions: []Decision{{Action: ActionStop}}}
	r := NewResolver(defaultThresholds, p)

	res, err := r.Resolve(context.Background(), Input{Text: []Candidate{textCandidate("t")}})

	require.ErrorIs(t, err, ErrStopped)
	assert.Equal(t, StateRejected, res.State)
	assert.Nil(t, res.Identity)
}

func TestResolve_InvalidIndex(t *testing.T) {
	p := &scriptedPrompter{decisions: []Decision{{Action: ActionSelect, Index: 3}}}
	r := NewResolver(defaultThresholds, p)

	_, err := r.Resolve(context.Background(), Input{Text: []Candidate{textCandidate("t")}})

	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestResolve_PrompterError(t *testing.T) {
	p := &scriptedPrompter{err: context.Canceled}
	r := NewResolver(defaultThresholds, p)

	res, err := r.Resolve(context.Background(), Input{})

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StateRejected, res.State)
}

func TestResolve_Deterministic(t *testing.T) {
	in := Input{
		Fingerprint: []Candidate{fpCandidate("b", 0.6), fpCandidate("a", 0.6)},
		Text:        []Candidate{textCandidate("t")},
	}
	var first []Candidate
	for range 3 {
		p := &scriptedPrompter{decisions: []Decision{{Action: ActionSelect, Index: 0}}}
		_, err := NewResolver(defaultThresholds, p).Resolve(context.Background(), in)
		require.NoError(t, err)
		if first == nil {
			first = p.requests[0].Candidates
			continue
		}
		assert.Equal(t, first, p.requests[0].Candidates)
	}
}

func TestNeedsFallback(t *testing.T) {
	r := NewResolver(defaultThresholds, nil)

	assert.True(t, r.NeedsFallback(nil))
	assert.True(t, r.NeedsFallback([]Candidate{fpCandidate("a", 0.4)}))
	assert.False(t, r.NeedsFallback([]Candidate{fpCandidate("a", 0.5)}))
}

func TestFields_IsEmpty(t *testing.T) {
	assert.True(t, Fields{}.IsEmpty())
	assert.True(t, Fields{Title: " ", Year: "\t"}.IsEmpty())
	assert.False(t, Fields{Album: "x"}.IsEmpty())
}
