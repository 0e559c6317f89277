package tags

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"
)

// Read reads the managed fields from a music file. Missing fields are
// left empty; a file without any tag is not an error.
func Read(path string) (*Tag, error) {
	ext := Ext(path)
	if !IsSupported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		switch ext {
		case ExtMP3, ExtAAC:
			// dhowden/tag has issues with some UTF-16 encoded ID3 tags and
			// reports untagged files as errors
			return readID3Only(path)
		default:
			// dhowden/tag can't parse some ffmpeg-created containers
			return readWithTaglib(path)
		}
	}

	t := &Tag{
		Path:       path,
		Title:      m.Title(),
		Artist:     m.Artist(),
		Album:      m.Album(),
		Date:       yearToDate(m.Year()),
		HasArtwork: m.Picture() != nil,
	}

	switch ext {
	case ExtMP3, ExtAAC:
		readID3Extended(path, t)
	case ExtFLAC:
		readFLACExtended(path, t)
	default:
		readTaglibExtended(path, t)
	}

	return t, nil
}

// readWithTaglib reads metadata using TagLib as fallback when dhowden/tag fails.
func readWithTaglib(path string) (*Tag, error) {
	rawTags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, err
	}
	tags := taglibTags(rawTags)

	t := &Tag{
		Path:   path,
		Title:  tags.get(taglib.Title),
		Artist: tags.get(taglib.Artist),
		Album:  tags.get(taglib.Album),
	}
	fillFromTaglib(tags, t)
	return t, nil
}

// readTaglibExtended completes a dhowden/tag snapshot with the fields it
// does not expose (full date, MusicBrainz IDs).
func readTaglibExtended(path string, t *Tag) {
	rawTags, err := taglib.ReadTags(path)
	if err != nil {
		return
	}
	fillFromTaglib(taglibTags(rawTags), t)
}

func fillFromTaglib(tags taglibTags, t *Tag) {
	if date := tags.get(taglib.Date, "YEAR"); date != "" {
		t.Date = date
	}

	// MusicBrainz IDs - try all known formats for compatibility:
	// 1. TagLib underscore format (MUSICBRAINZ_TRACKID)
	// 2. Uppercase with spaces (MUSICBRAINZ TRACK ID)
	// 3. Picard/Mutagen standard - mixed case with spaces (MusicBrainz Track Id)
	t.MBRecordingID = tags.get(
		taglib.MusicBrainzTrackID,
		"MUSICBRAINZ TRACK ID",
		descRecordingID,
	)
	t.MBReleaseID = tags.get(
		taglib.MusicBrainzAlbumID,
		"MUSICBRAINZ ALBUM ID",
		descReleaseID,
	)
}

// yearToDate converts a year integer to a date string.
// Returns empty string for year 0.
func yearToDate(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}
