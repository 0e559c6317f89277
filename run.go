package main

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/llehouerou/tagwiz/internal/acoustid"
	"github.com/llehouerou/tagwiz/internal/artwork"
	"github.com/llehouerou/tagwiz/internal/config"
	"github.com/llehouerou/tagwiz/internal/deps"
	"github.com/llehouerou/tagwiz/internal/errmsg"
	"github.com/llehouerou/tagwiz/internal/fingerprint"
	"github.com/llehouerou/tagwiz/internal/identify"
	"github.com/llehouerou/tagwiz/internal/logging"
	"github.com/llehouerou/tagwiz/internal/musicbrainz"
	"github.com/llehouerou/tagwiz/internal/pipeline"
	"github.com/llehouerou/tagwiz/internal/retry"
	"github.com/llehouerou/tagwiz/internal/ui/prompt"
)

func runTag(cmd *cobra.Command, args []string, f flags) error {
	cfg, err := config.Load(f.config)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpConfigLoad, err))
	}
	if err := cfg.Validate(); err != nil {
		return errors.New(errmsg.Format(errmsg.OpConfigValidate, err))
	}

	level := cfg.LogLevel()
	if f.logLevel != "" {
		level = f.logLevel
	}
	logger, err := logging.New(logging.Options{Level: level})
	if err != nil {
		return err
	}
	log := logging.ForRun(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	roots := args
	if len(roots) == 0 {
		roots = []string{"."}
	}
	excludes := append(append([]string{}, cfg.Scan.Exclude...), f.exclude...)
	files, err := pipeline.Scan(roots, excludes)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpLibraryScan, err))
	}
	if len(files) == 0 {
		log.Info("No audio files found")
		return nil
	}

	fpcalc := cfg.GetFpcalcConfig()
	for _, s := range deps.Missing(deps.CheckBinaries([]deps.Requirement{deps.Fpcalc(fpcalc.Path)})) {
		log.WithField("tool", s.Command).Warn(s.Detail + ", every file will fail to fingerprint")
	}

	log.WithField("files", len(files)).Info("Starting")
	orch := newOrchestrator(cfg, f, log, os.Stdin, os.Stdout)
	summary := orch.Run(ctx, files)
	for _, root := range roots {
		if abs, err := filepath.Abs(root); err == nil {
			summary.Roots = append(summary.Roots, abs)
		}
	}
	return summary.Render(cmd.OutOrStdout())
}

// newOrchestrator wires the pipeline components from the configuration
// and the command line flags.
func newOrchestrator(cfg *config.Config, f flags, log logrus.FieldLogger, in *os.File, out io.Writer) *pipeline.Orchestrator {
	rc := cfg.GetRetryConfig()
	policy := retry.New(rc.Attempts, rc.InitialDelay, rc.MaxDelay)

	mbCfg := cfg.GetMusicBrainzConfig()
	acoustidClient := acoustid.NewClient(acoustid.Options{
		APIKey:       cfg.GetAcoustIDConfig().APIKey,
		ContactEmail: mbCfg.ContactEmail,
		Timeout:      cfg.GetAcoustIDConfig().Timeout,
		Retry:        policy,
		Log:          log,
	})
	mbClient := musicbrainz.NewClient(musicbrainz.Options{
		ContactEmail: mbCfg.ContactEmail,
		Timeout:      mbCfg.Timeout,
		SearchLimit:  mbCfg.SearchLimit,
		Retry:        policy,
		Log:          log,
	})

	match := cfg.GetMatchConfig()
	thresholds := identify.Thresholds{
		Accept:        match.Accept,
		Min:           match.Min,
		AlwaysConfirm: match.AlwaysConfirm || f.confirm,
	}

	var prompter identify.Prompter
	if f.yes || !prompt.IsTerminal(in) {
		prompter = prompt.NewNonInteractive(log)
	} else {
		prompter = prompt.NewTerminal(in, out, thresholds)
	}

	fpcalc := cfg.GetFpcalcConfig()
	components := pipeline.Components{
		Prober:   fingerprint.NewProber(fpcalc.Path, fpcalc.Timeout, log),
		Matcher:  identify.NewMatcher(acoustidClient, mbClient, match.EnrichLimit, log),
		Fallback: identify.NewFallback(mbClient, mbCfg.MinScore, match.TextCeiling, log),
		Resolver: identify.NewResolver(thresholds, prompter),
		Tags:     pipeline.FileTags{},
	}
	if cfg.ArtworkEnabled() && !f.noArtwork {
		art := cfg.GetArtworkConfig()
		components.Artwork = artwork.NewFetcher(mbClient, artwork.Options{
			MaxSize:        art.MaxSize,
			FolderFallback: *art.FolderFallback,
			CacheSize:      art.CacheSize,
		}, log)
	}

	return pipeline.New(components, pipeline.Options{
		DryRun:        f.dryRun,
		IncludeTagged: f.all || cfg.Scan.IncludeTagged,
	}, log)
}
