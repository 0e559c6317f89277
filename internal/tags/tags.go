// Package tags reads and updates the metadata of audio files.
// It handles MP3, AAC, FLAC, M4A, Ogg Vorbis and Opus.
package tags

import (
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// File extensions supported by the tags package.
const (
	ExtMP3  = ".mp3"
	ExtAAC  = ".aac"
	ExtFLAC = ".flac"
	ExtM4A  = ".m4a"
	ExtOGG  = ".ogg"
	ExtOPUS = ".opus"
)

// id3Magic is the magic bytes for ID3v2 header detection.
const id3Magic = "ID3"

// Tag keys shared by the Vorbis comment and TagLib writers.
const (
	keyTitle       = "TITLE"
	keyArtist      = "ARTIST"
	keyAlbum       = "ALBUM"
	keyDate        = "DATE"
	keyRecordingID = "MUSICBRAINZ_TRACKID"
	keyReleaseID   = "MUSICBRAINZ_ALBUMID"
)

// MusicBrainz descriptions used in TXXX frames and freeform MP4 atoms
// (Picard naming).
const (
	descRecordingID = "MusicBrainz Track Id"
	descReleaseID   = "MusicBrainz Album Id"
	ufidOwner       = "http://musicbrainz.org"
)

// ErrUnsupportedFormat is returned for files whose extension is not handled.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Tag is the snapshot of the fields this package manages.
type Tag struct {
	Path   string
	Title  string
	Artist string
	Album  string
	Date   string // YYYY, YYYY-MM or YYYY-MM-DD as stored

	// MusicBrainz IDs
	MBRecordingID string
	MBReleaseID   string

	HasArtwork bool
}

// Year returns the four-digit year prefix of Date, or "" when absent.
func (t *Tag) Year() string {
	return yearOf(t.Date)
}

// IsTagged returns true if the essential fields (title, artist, album)
// are all present.
func (t *Tag) IsTagged() bool {
	return strings.TrimSpace(t.Title) != "" &&
		strings.TrimSpace(t.Artist) != "" &&
		strings.TrimSpace(t.Album) != ""
}

// AudioInfo contains audio stream properties (not tags).
type AudioInfo struct {
	Duration   time.Duration
	Format     string // MP3, AAC, FLAC, ALAC, VORBIS, OPUS
	SampleRate int
}

// Ext returns the lower-cased extension of path.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsSupported returns true if the path has a supported audio file extension.
func IsSupported(path string) bool {
	switch Ext(path) {
	case ExtMP3, ExtAAC, ExtFLAC, ExtM4A, ExtOGG, ExtOPUS:
		return true
	}
	return false
}

// FormatName returns the upper-case format label for a path, as shown
// in reports ("MP3", "FLAC", ...), or "" when unsupported.
func FormatName(path string) string {
	if !IsSupported(path) {
		return ""
	}
	return strings.ToUpper(strings.TrimPrefix(Ext(path), "."))
}

func yearOf(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return date
	}
	return date[:4]
}

// taglibTags wraps a taglib result map with helper methods.
type taglibTags map[string][]string

// get returns the first value for any of the given keys, or empty string if not found.
func (t taglibTags) get(keys ...string) string {
	for _, key := range keys {
		if values, ok := t[key]; ok && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}
