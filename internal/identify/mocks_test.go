package identify

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/tagwiz/internal/acoustid"
	"github.com/llehouerou/tagwiz/internal/musicbrainz"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type mockLookup struct {
	LookupFunc func(ctx context.Context, fingerprint string, duration int) ([]acoustid.Match, error)
}

func (m *mockLookup) Lookup(ctx context.Context, fingerprint string, duration int) ([]acoustid.Match, error) {
	return m.LookupFunc(ctx, fingerprint, duration)
}

type mockRecordings struct {
	calls            []string
	GetRecordingFunc func(ctx context.Context, mbid string) (*musicbrainz.Recording, error)
}

func (m *mockRecordings) GetRecording(ctx context.Context, mbid string) (*musicbrainz.Recording, error) {
	m.calls = append(m.calls, mbid)
	return m.GetRecordingFunc(ctx, mbid)
}

type mockSearch struct {
	SearchFunc func(ctx context.Context, title, artist string) ([]musicbrainz.Recording, error)
}

func (m *mockSearch) SearchRecordings(ctx context.Context, title, artist string) ([]musicbrainz.Recording, error) {
	return m.SearchFunc(ctx, title, artist)
}

// scriptedPrompter answers with fixed decisions and records requests.
type scriptedPrompter struct {
	decisions []Decision
	err       error
	requests  []Request
}

func (p *scriptedPrompter) Decide(_ context.Context, req Request) (Decision, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return Decision{}, p.err
	}
	d := p.decisions[0]
	p.decisions = p.decisions[1:]
	return d, nil
}
