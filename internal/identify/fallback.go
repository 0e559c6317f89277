package identify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xrash/smetrics"

	"github.com/llehouerou/tagwiz/internal/musicbrainz"
)

// Jaro-Winkler parameters commonly used for names.
const (
	jwBoostThreshold = 0.7
	jwPrefixSize     = 4
)

// RecordingSearch runs a text search for recordings.
type RecordingSearch interface {
	SearchRecordings(ctx context.Context, title, artist string) ([]musicbrainz.Recording, error)
}

// SearchError reports a failed text search.
type SearchError struct {
	Query QueryHints
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("text search %q: %v", e.Query.Title, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// Fallback searches metadata by title and artist when fingerprinting did
// not produce a usable candidate.
type Fallback struct {
	search   RecordingSearch
	minScore int
	ceiling  float64
	log      logrus.FieldLogger
}

// NewFallback creates a text search fallback. Results scoring below
// minScore (0-100) are discarded; the rest get a confidence of at most
// ceiling.
func NewFallback(search RecordingSearch, minScore int, ceiling float64, log logrus.FieldLogger) *Fallback {
	return &Fallback{search: search, minScore: minScore, ceiling: ceiling, log: log}
}

// Search returns the text candidates for hints, most relevant first.
func (f *Fallback) Search(ctx context.Context, hints QueryHints) ([]Candidate, error) {
	if hints.IsEmpty() {
		return nil, nil
	}

	recs, err := f.search.SearchRecordings(ctx, hints.Title, hints.Artist)
	if err != nil {
		return nil, &SearchError{Query: hints, Err: err}
	}

	type scored struct {
		cand       Candidate
		similarity float64
	}
	results := make([]scored, 0, len(recs))
	for _, r := range recs {
		if r.Score < f.minScore || r.Title == "" || r.Artist == "" {
			continue
		}
		results = append(results, scored{
			cand:       fromRecording(r, f.ceiling),
			similarity: similarity(hints, r.Title, r.Artist),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.cand.Score != b.cand.Score {
			return a.cand.Score > b.cand.Score
		}
		if a.similarity != b.similarity {
			return a.similarity > b.similarity
		}
		if a.cand.Complete() != b.cand.Complete() {
			return a.cand.Complete()
		}
		return a.cand.RecordingID < b.cand.RecordingID
	})

	cands := make([]Candidate, 0, len(results))
	for _, r := range results {
		cands = append(cands, r.cand)
	}
	cands = dedupe(cands)

	f.log.WithFields(logrus.Fields{
		"title":    hints.Title,
		"artist":   hints.Artist,
		"returned": len(recs),
		"kept":     len(cands),
	}).Debug("Text search complete")
	return cands, nil
}

// similarity compares a result with the hints, case-insensitively. The
// artist only counts when the hints have one.
func similarity(hints QueryHints, title, artist string) float64 {
	s := smetrics.JaroWinkler(strings.ToLower(hints.Title), strings.ToLower(title), jwBoostThreshold, jwPrefixSize)
	if hints.Artist == "" {
		return s
	}
	a := smetrics.JaroWinkler(strings.ToLower(hints.Artist), strings.ToLower(artist), jwBoostThreshold, jwPrefixSize)
	return (s + a) / 2
}
