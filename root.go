package main

import (
	"github.com/spf13/cobra"
)

// flags are the command line options of the root command. They override
// the configuration file.
type flags struct {
	config    string
	dryRun    bool
	all       bool
	confirm   bool
	noArtwork bool
	yes       bool
	logLevel  string
	exclude   []string
}

func newRootCommand() *cobra.Command {
	var f flags

	rootCmd := &cobra.Command{
		Use:   "tagwiz [paths...]",
		Short: "Identify audio files by fingerprint and fix their tags",
		Long: `tagwiz fingerprints each audio file with fpcalc, looks the fingerprint up
on AcoustID and falls back to a MusicBrainz text search when that finds
nothing. Confident matches are written directly; anything else is shown
for confirmation. With no path, the current directory is scanned.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTag(cmd, args, f)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&f.config, "config", "c", "", "Configuration file path")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	fl := rootCmd.Flags()
	fl.BoolVarP(&f.dryRun, "dry-run", "n", false, "Resolve matches but never write")
	fl.BoolVarP(&f.all, "all", "a", false, "Also process files whose title, artist and album are set")
	fl.BoolVar(&f.confirm, "confirm", false, "Always confirm, even confident matches")
	fl.BoolVar(&f.noArtwork, "no-artwork", false, "Do not fetch or embed cover art")
	fl.BoolVarP(&f.yes, "yes", "y", false, "Never prompt; only confident matches are written")
	fl.StringArrayVarP(&f.exclude, "exclude", "x", nil, "Glob of paths to skip, relative to each root (repeatable)")

	rootCmd.AddCommand(newCheckCommand(&f))
	return rootCmd
}
