package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/tagwiz/internal/fingerprint"
	"github.com/llehouerou/tagwiz/internal/identify"
	"github.com/llehouerou/tagwiz/internal/tags"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeProber struct {
	err error
}

func (p *fakeProber) Probe(_ context.Context, path string) (fingerprint.Fingerprint, error) {
	if p.err != nil {
		return fingerprint.Fingerprint{}, &fingerprint.ProbeError{Path: path, Err: p.err}
	}
	return fingerprint.Fingerprint{Value: "AQAD" + filepath.Base(path), Duration: 200}, nil
}

// fakeMatcher returns candidates by file fingerprint.
type fakeMatcher struct {
	results map[string][]identify.Candidate
	err     error
}

func (m *fakeMatcher) Match(_ context.Context, fp fingerprint.Fingerprint) ([]identify.Candidate, error) {
	if m.err != nil {
		return nil, &identify.LookupError{Err: m.err}
	}
	return m.results[fp.Value], nil
}

type fakeSearcher struct {
	results []identify.Candidate
	err     error
	queries []identify.QueryHints
}

func (s *fakeSearcher) Search(_ context.Context, hints identify.QueryHints) ([]identify.Candidate, error) {
	s.queries = append(s.queries, hints)
	if s.err != nil {
		return nil, &identify.SearchError{Query: hints, Err: s.err}
	}
	return s.results, nil
}

// promptFunc adapts a function to identify.Prompter.
type promptFunc func(ctx context.Context, req identify.Request) (identify.Decision, error)

func (f promptFunc) Decide(ctx context.Context, req identify.Request) (identify.Decision, error) {
	return f(ctx, req)
}

func noPrompt(t *testing.T) identify.Prompter {
	return promptFunc(func(context.Context, identify.Request) (identify.Decision, error) {
		t.Fatal("prompter must not be called")
		return identify.Decision{}, nil
	})
}

func answer(d identify.Decision) identify.Prompter {
	return promptFunc(func(context.Context, identify.Request) (identify.Decision, error) {
		return d, nil
	})
}

type fakeArtwork struct {
	data  map[string][]byte
	calls []string
}

func (a *fakeArtwork) Fetch(_ context.Context, releaseID, _ string) []byte {
	a.calls = append(a.calls, releaseID)
	return a.data[releaseID]
}

// memTags is an in-memory TagStore.
type memTags struct {
	files   map[string]*tags.Tag
	applied map[string][]tags.Update
	failOn  string
}

func newMemTags() *memTags {
	return &memTags{files: map[string]*tags.Tag{}, applied: map[string][]tags.Update{}}
}

func (m *memTags) Read(path string) (*tags.Tag, error) {
	if t, ok := m.files[path]; ok {
		return t, nil
	}
	return &tags.Tag{Path: path}, nil
}

func (m *memTags) Apply(path string, u tags.Update) (bool, error) {
	m.applied[path] = append(m.applied[path], u)
	if path == m.failOn {
		return false, &tags.WriteError{Path: path, Err: os.ErrPermission}
	}
	return true, nil
}

func (m *memTags) applyCount() int {
	n := 0
	for _, updates := range m.applied {
		n += len(updates)
	}
	return n
}

var errTransport = errors.New("connection reset by peer")

func fpResult(title, artist, release string, score float64) identify.Candidate {
	return identify.Candidate{
		Source: identify.SourceFingerprint, Score: score, Scored: true,
		Title: title, Artist: artist, Album: "Album", Year: "2001",
		RecordingID: "rec-" + title, ReleaseID: release,
	}
}

func textResult(title, artist, release string) identify.Candidate {
	return identify.Candidate{
		Source: identify.SourceText, Score: 0.8, Scored: true,
		Title: title, Artist: artist, RecordingID: "rec-" + title, ReleaseID: release,
	}
}

type harness struct {
	matcher  *fakeMatcher
	searcher *fakeSearcher
	artwork  *fakeArtwork
	tags     *memTags
	prober   *fakeProber
}

func newHarness() *harness {
	return &harness{
		matcher:  &fakeMatcher{results: map[string][]identify.Candidate{}},
		searcher: &fakeSearcher{},
		artwork:  &fakeArtwork{data: map[string][]byte{}},
		tags:     newMemTags(),
		prober:   &fakeProber{},
	}
}

func (h *harness) orchestrator(p identify.Prompter, opts Options) *Orchestrator {
	resolver := identify.NewResolver(identify.Thresholds{Accept: 0.85, Min: 0.5}, p)
	return New(Components{
		Prober:   h.prober,
		Matcher:  h.matcher,
		Fallback: h.searcher,
		Resolver: resolver,
		Artwork:  h.artwork,
		Tags:     h.tags,
	}, opts, quietLogger())
}
