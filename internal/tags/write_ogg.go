package tags

import (
	"fmt"

	"go.senan.xyz/taglib"
)

// writeOgg merges an update into the Vorbis comments of an Ogg Vorbis or
// Opus file using TagLib. Keys absent from the map are kept.
func writeOgg(path string, u *Update) error {
	tags := make(map[string][]string)
	for _, f := range vorbisFields(u) {
		tags[f.key] = []string{f.value}
	}

	if len(tags) > 0 {
		// No taglib.Clear: existing keys not in the map survive
		if err := taglib.WriteTags(path, tags, 0); err != nil {
			return fmt.Errorf("write tags: %w", err)
		}
	}

	if len(u.CoverArt) > 0 {
		if err := taglib.WriteImage(path, u.CoverArt); err != nil {
			return fmt.Errorf("write cover art: %w", err)
		}
	}
	return nil
}
