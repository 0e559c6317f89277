// Diagnostic program: shows what each identification stage returns for
// a single file, without prompting or writing anything.
package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/llehouerou/tagwiz/internal/acoustid"
	"github.com/llehouerou/tagwiz/internal/config"
	"github.com/llehouerou/tagwiz/internal/fingerprint"
	"github.com/llehouerou/tagwiz/internal/identify"
	"github.com/llehouerou/tagwiz/internal/logging"
	"github.com/llehouerou/tagwiz/internal/musicbrainz"
	"github.com/llehouerou/tagwiz/internal/retry"
	"github.com/llehouerou/tagwiz/internal/tags"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <audio file>", filepath.Base(os.Args[0]))
	}
	path := os.Args[1]
	ctx := context.Background()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	logger, err := logging.New(logging.Options{Level: "debug"})
	if err != nil {
		log.Fatal(err)
	}

	current, err := tags.Read(path)
	if err != nil {
		log.Printf("Warning: could not read tags: %v", err)
	} else {
		log.Printf("Current tags: %q by %q on %q (%s), tagged=%v",
			current.Title, current.Artist, current.Album, current.Date, current.IsTagged())
	}

	fpcalc := cfg.GetFpcalcConfig()
	fp, err := fingerprint.NewProber(fpcalc.Path, fpcalc.Timeout, logger).Probe(ctx, path)
	if err != nil {
		log.Fatalf("Failed to fingerprint: %v", err)
	}
	log.Printf("Fingerprint: %d chars, %ds", len(fp.Value), fp.Seconds())

	policy := retry.None()
	mb := cfg.GetMusicBrainzConfig()
	mbClient := musicbrainz.NewClient(musicbrainz.Options{ContactEmail: mb.ContactEmail, Retry: policy, Log: logger})
	acoustidClient := acoustid.NewClient(acoustid.Options{
		APIKey:       cfg.GetAcoustIDConfig().APIKey,
		ContactEmail: mb.ContactEmail,
		Retry:        policy,
		Log:          logger,
	})

	match := cfg.GetMatchConfig()
	cands, err := identify.NewMatcher(acoustidClient, mbClient, match.EnrichLimit, logger).Match(ctx, fp)
	if err != nil {
		log.Printf("Warning: lookup failed: %v", err)
	}
	log.Printf("Fingerprint candidates: %d", len(cands))
	for i, c := range cands {
		if i < 10 {
			log.Printf("  [%.2f] %s (release %s)", c.Score, c, c.ReleaseID)
		}
	}

	hints := identify.HintsFor(path, current)
	text, err := identify.NewFallback(mbClient, mb.MinScore, match.TextCeiling, logger).Search(ctx, hints)
	if err != nil {
		log.Printf("Warning: search failed: %v", err)
	}
	log.Printf("Text candidates for %q / %q: %d", hints.Title, hints.Artist, len(text))
	for i, c := range text {
		if i < 10 {
			log.Printf("  [%.2f] %s (release %s)", c.Score, c, c.ReleaseID)
		}
	}

	merged := identify.Merge(cands, text, match.Min)
	if len(merged) == 0 {
		log.Println("No candidate to show")
		return
	}
	best := merged[0]
	auto := best.Source == identify.SourceFingerprint && best.Score >= match.Accept
	log.Printf("Best: %s, auto-accept=%v", best, auto)

	if best.ReleaseID == "" {
		return
	}
	art, err := mbClient.GetCoverArt(ctx, best.ReleaseID)
	switch {
	case err != nil:
		log.Printf("Warning: Failed to get cover art: %v", err)
	case art == nil:
		log.Println("No cover art available")
	default:
		log.Printf("Got cover art: %s", humanize.Bytes(uint64(len(art))))
	}
}
