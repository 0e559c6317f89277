// Command tagwiz identifies audio files by their acoustic fingerprint and
// writes title, artist, album, year, MusicBrainz IDs and cover art into
// their tags.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
