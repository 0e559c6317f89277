package identify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/tagwiz/internal/acoustid"
	"github.com/llehouerou/tagwiz/internal/fingerprint"
	"github.com/llehouerou/tagwiz/internal/musicbrainz"
)

// FingerprintLookup queries a fingerprint service.
type FingerprintLookup interface {
	Lookup(ctx context.Context, fingerprint string, duration int) ([]acoustid.Match, error)
}

// RecordingLookup fetches a recording by ID.
type RecordingLookup interface {
	GetRecording(ctx context.Context, mbid string) (*musicbrainz.Recording, error)
}

// LookupError reports a failed fingerprint lookup.
type LookupError struct {
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("fingerprint lookup: %v", e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Matcher turns a fingerprint into ranked candidates.
type Matcher struct {
	lookup      FingerprintLookup
	recordings  RecordingLookup
	enrichLimit int
	log         logrus.FieldLogger
}

// NewMatcher creates a matcher. recordings may be nil, which disables
// enrichment of incomplete results.
func NewMatcher(lookup FingerprintLookup, recordings RecordingLookup, enrichLimit int, log logrus.FieldLogger) *Matcher {
	return &Matcher{
		lookup:      lookup,
		recordings:  recordings,
		enrichLimit: enrichLimit,
		log:         log,
	}
}

// Match returns the candidates for fp ordered by descending confidence.
// Candidates lacking a title or artist after enrichment are dropped. A
// transport or auth failure, after the client's retries, is a *LookupError.
func (m *Matcher) Match(ctx context.Context, fp fingerprint.Fingerprint) ([]Candidate, error) {
	matches, err := m.lookup.Lookup(ctx, fp.Value, fp.Seconds())
	if err != nil {
		return nil, &LookupError{Err: err}
	}

	cands := make([]Candidate, 0, len(matches))
	for _, match := range matches {
		cands = append(cands, fromMatch(match))
	}
	sortByConfidence(cands)
	cands = dedupe(cands)

	m.enrich(ctx, cands)

	usable := cands[:0]
	for _, c := range cands {
		if c.Title == "" || c.Artist == "" {
			m.log.WithField("recording", c.RecordingID).Debug("Dropping candidate without title or artist")
			continue
		}
		usable = append(usable, c)
	}
	sortByConfidence(usable)
	return usable, nil
}

// enrich completes the best incomplete candidates from MusicBrainz, one
// request per recording. Failures leave the candidate as it was.
func (m *Matcher) enrich(ctx context.Context, cands []Candidate) {
	if m.recordings == nil || m.enrichLimit <= 0 {
		return
	}

	fetched := make(map[string]*musicbrainz.Recording)
	for i := range cands {
		c := &cands[i]
		if c.Complete() || c.RecordingID == "" {
			continue
		}

		rec, ok := fetched[c.RecordingID]
		if !ok {
			if len(fetched) >= m.enrichLimit {
				continue
			}
			var err error
			rec, err = m.recordings.GetRecording(ctx, c.RecordingID)
			if err != nil {
				m.log.WithError(err).WithField("recording", c.RecordingID).Warn("Could not complete candidate")
			}
			fetched[c.RecordingID] = rec
		}
		if rec != nil {
			fill(c, rec)
		}
	}
}

// fill copies fields missing from c. Release-level fields are only taken
// when c has no release or names the same one.
func fill(c *Candidate, rec *musicbrainz.Recording) {
	if c.Title == "" {
		c.Title = rec.Title
	}
	if c.Artist == "" {
		c.Artist = rec.Artist
	}

	sameRelease := c.ReleaseID == "" || c.ReleaseID == rec.ReleaseID
	if !sameRelease {
		return
	}
	if c.ReleaseID == "" {
		c.ReleaseID = rec.ReleaseID
	}
	if c.Album == "" {
		c.Album = rec.Album
	}
	if c.Year == "" {
		c.Year = rec.Year()
	}
}
