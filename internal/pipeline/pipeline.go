// Package pipeline identifies and tags audio files one at a time.
package pipeline

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/tagwiz/internal/errmsg"
	"github.com/llehouerou/tagwiz/internal/fingerprint"
	"github.com/llehouerou/tagwiz/internal/identify"
	"github.com/llehouerou/tagwiz/internal/tags"
)

// Prober computes a file's fingerprint.
type Prober interface {
	Probe(ctx context.Context, path string) (fingerprint.Fingerprint, error)
}

// Matcher looks a fingerprint up.
type Matcher interface {
	Match(ctx context.Context, fp fingerprint.Fingerprint) ([]identify.Candidate, error)
}

// Searcher runs the text search fallback.
type Searcher interface {
	Search(ctx context.Context, hints identify.QueryHints) ([]identify.Candidate, error)
}

// Resolver settles on an identity.
type Resolver interface {
	NeedsFallback(fingerprint []identify.Candidate) bool
	Resolve(ctx context.Context, in identify.Input) (identify.Resolution, error)
}

// ArtworkFetcher returns cover art or nil.
type ArtworkFetcher interface {
	Fetch(ctx context.Context, releaseID, audioPath string) []byte
}

// TagStore reads and writes file tags.
type TagStore interface {
	Read(path string) (*tags.Tag, error)
	Apply(path string, u tags.Update) (bool, error)
}

// FileTags is the TagStore backed by the tags package.
type FileTags struct{}

func (FileTags) Read(path string) (*tags.Tag, error)            { return tags.Read(path) }
func (FileTags) Apply(path string, u tags.Update) (bool, error) { return tags.Apply(path, u) }

// Components are the collaborators of an Orchestrator. Artwork may be nil.
type Components struct {
	Prober   Prober
	Matcher  Matcher
	Fallback Searcher
	Resolver Resolver
	Artwork  ArtworkFetcher
	Tags     TagStore
}

// Options control a run.
type Options struct {
	DryRun        bool // resolve but never write
	IncludeTagged bool // also process files whose title, artist and album are set
}

// Orchestrator runs the identification pipeline over files.
type Orchestrator struct {
	c    Components
	opts Options
	log  logrus.FieldLogger
}

// New creates an orchestrator.
func New(c Components, opts Options, log logrus.FieldLogger) *Orchestrator {
	return &Orchestrator{c: c, opts: opts, log: log}
}

// errStop ends the run after the current file.
var errStop = errors.New("stop run")

// Run processes files in order and never aborts on a single file's
// failure. It returns early when the user stops the run or ctx is
// cancelled; no write starts after cancellation.
func (o *Orchestrator) Run(ctx context.Context, files []string) *Summary {
	summary := &Summary{}
	for i, path := range files {
		if ctx.Err() != nil {
			summary.Interrupted = true
			summary.Remaining = len(files) - i
			break
		}

		outcome, err := o.Process(ctx, path)
		summary.Add(outcome)

		if errors.Is(err, errStop) {
			if ctx.Err() != nil {
				summary.Interrupted = true
			} else {
				summary.Stopped = true
			}
			summary.Remaining = len(files) - i - 1
			break
		}
	}
	return summary
}

// Process runs one file through probe, lookup, fallback, resolution,
// artwork and write. The returned error is errStop when the run must end.
func (o *Orchestrator) Process(ctx context.Context, path string) (Outcome, error) {
	log := o.log.WithField("file", path)
	out := Outcome{Path: path}

	current, err := o.c.Tags.Read(path)
	if err != nil {
		log.WithError(err).Debug("Could not read existing tags")
		current = nil
	}
	if !o.opts.IncludeTagged && current != nil && current.IsTagged() {
		log.Debug("Already tagged, skipping")
		out.Kind = KindSkipped
		out.Reason = "already tagged"
		out.AlreadyTagged = true
		return out, nil
	}

	fp, err := o.c.Prober.Probe(ctx, path)
	if err != nil {
		return o.failed(log, out, errmsg.OpProbeFile, err), nil
	}

	fpCands, err := o.c.Matcher.Match(ctx, fp)
	if err != nil {
		// Degrades to an empty result; text search may still find it.
		log.WithError(err).Warn(errmsg.Format(errmsg.OpLookupFingerprint, err))
		fpCands = nil
	}

	hints := identify.HintsFor(path, current)
	var textCands []identify.Candidate
	if o.c.Resolver.NeedsFallback(fpCands) {
		textCands, err = o.c.Fallback.Search(ctx, hints)
		if err != nil {
			log.WithError(err).Warn(errmsg.Format(errmsg.OpSearchMetadata, err))
			textCands = nil
		}
	}

	log.WithFields(logrus.Fields{
		"fingerprint": len(fpCands),
		"text":        len(textCands),
	}).Debug("Candidates collected")

	res, err := o.c.Resolver.Resolve(ctx, identify.Input{
		Path:        path,
		Current:     current,
		Hints:       hints,
		Fingerprint: fpCands,
		Text:        textCands,
	})
	switch {
	case errors.Is(err, identify.ErrStopped):
		out.Kind = KindSkipped
		out.Reason = "run stopped by user"
		return out, errStop
	case err != nil && ctx.Err() != nil:
		out.Kind = KindSkipped
		out.Reason = "interrupted"
		return out, errStop
	case err != nil:
		return o.failed(log, out, errmsg.OpResolveCandidate, err), nil
	}

	if res.State == identify.StateRejected {
		if res.Reason == identify.ReasonSkippedByUser {
			out.Kind = KindSkipped
			out.Reason = "rejected by user"
		} else {
			out.Kind = KindNoMatch
			out.Reason = "no match found"
		}
		log.WithField("state", res.Via).Info(out.Reason)
		return out, nil
	}

	id := res.Identity
	out.Identity = id
	out.Auto = res.Auto

	update := tags.Update{
		Title:         id.Title,
		Artist:        id.Artist,
		Album:         id.Album,
		Year:          id.Year,
		MBRecordingID: id.RecordingID,
		MBReleaseID:   id.ReleaseID,
	}
	if o.c.Artwork != nil && !id.NoArtwork {
		update.CoverArt = o.c.Artwork.Fetch(ctx, id.ReleaseID, path)
		out.Artwork = update.CoverArt != nil
	}

	// Never start a write once the run is cancelled.
	if ctx.Err() != nil {
		out.Kind = KindSkipped
		out.Reason = "interrupted before write"
		out.Identity = nil
		return out, errStop
	}

	if o.opts.DryRun {
		out.Kind = KindApplied
		out.DryRun = true
		log.WithField("identity", id.Artist+" - "+id.Title).Info("Dry run, not writing")
		return out, nil
	}

	changed, err := o.c.Tags.Apply(path, update)
	if err != nil {
		return o.failed(log, out, errmsg.OpWriteTags, err), nil
	}
	out.Kind = KindApplied
	out.Changed = changed

	log.WithFields(logrus.Fields{
		"title":   id.Title,
		"artist":  id.Artist,
		"auto":    res.Auto,
		"changed": changed,
		"artwork": out.Artwork,
	}).Info("Tags applied")
	return out, nil
}

func (o *Orchestrator) failed(log logrus.FieldLogger, out Outcome, op errmsg.Op, err error) Outcome {
	out.Kind = KindError
	out.Err = err
	out.Reason = errmsg.Format(op, err)
	out.Identity = nil
	log.WithError(err).Error(out.Reason)
	return out
}
