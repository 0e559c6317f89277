package tags

import (
	"errors"
	"fmt"
	"os"
	"strings"

	goflac "github.com/go-flac/go-flac"
)

// errNoFrames is returned for a FLAC file that ends after its metadata,
// such as a truncated download.
var errNoFrames = errors.New("flac: no audio frames")

// parseFLAC parses a whole FLAC file. go-flac reads the first frame header
// without a length check and panics when the audio is missing.
func parseFLAC(path string) (f *goflac.File, err error) {
	defer func() {
		if r := recover(); r != nil {
			f, err = nil, fmt.Errorf("%w: %v", errNoFrames, r)
		}
	}()
	return goflac.ParseFile(path)
}

// parseFLACMetadata reads only the metadata blocks of a FLAC file.
func parseFLACMetadata(path string) (*goflac.File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return goflac.ParseMetadata(r)
}

// readFLACExtended reads the full date, MusicBrainz IDs and picture
// presence straight from the FLAC metadata blocks.
func readFLACExtended(path string, t *Tag) {
	f, err := parseFLACMetadata(path)
	if err != nil {
		return
	}

	for _, meta := range f.Meta {
		switch meta.Type {
		case goflac.VorbisComment:
			comments := parseVorbisComments(meta.Data)
			if date := firstNonEmpty(comments[keyDate], comments["YEAR"]); date != "" {
				t.Date = date
			}
			t.MBRecordingID = comments[keyRecordingID]
			t.MBReleaseID = comments[keyReleaseID]
		case goflac.Picture:
			t.HasArtwork = true
		}
	}
}

// parseVorbisComments parses raw Vorbis comment data into a map keyed by
// upper-cased field name. The first value of a repeated field wins.
func parseVorbisComments(data []byte) map[string]string {
	comments := make(map[string]string)

	if len(data) < 4 {
		return comments
	}

	// Skip vendor string
	vendorLen := int(data[0]) | int(data[1])<<8 | int(data[2])<<16 | int(data[3])<<24
	pos := 4 + vendorLen
	if pos+4 > len(data) {
		return comments
	}

	commentCount := int(data[pos]) | int(data[pos+1])<<8 | int(data[pos+2])<<16 | int(data[pos+3])<<24
	pos += 4

	for i := 0; i < commentCount && pos+4 <= len(data); i++ {
		commentLen := int(data[pos]) | int(data[pos+1])<<8 | int(data[pos+2])<<16 | int(data[pos+3])<<24
		pos += 4

		if pos+commentLen > len(data) {
			break
		}

		comment := string(data[pos : pos+commentLen])
		pos += commentLen

		key, value, ok := strings.Cut(comment, "=")
		if !ok || key == "" {
			continue
		}
		key = strings.ToUpper(key)
		if _, seen := comments[key]; !seen {
			comments[key] = value
		}
	}

	return comments
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
