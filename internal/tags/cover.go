package tags

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	"github.com/go-flac/flacpicture"
	goflac "github.com/go-flac/go-flac"
)

// Common cover art filenames to look for in album folders.
var coverArtFilenames = []string{
	"cover.jpg", "cover.jpeg", "cover.png",
	"folder.jpg", "folder.jpeg", "folder.png",
	"front.jpg", "front.jpeg", "front.png",
	"album.jpg", "album.jpeg", "album.png",
}

// EmbeddedArt returns the embedded front cover of an audio file, or nil
// when it has none. Other picture types are ignored for ID3 and FLAC.
func EmbeddedArt(path string) ([]byte, error) {
	switch Ext(path) {
	case ExtMP3, ExtAAC:
		return id3FrontCover(path)
	case ExtFLAC:
		return flacFrontCover(path)
	}
	return firstPicture(path)
}

func id3FrontCover(path string) ([]byte, error) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"Attached picture"}})
	if errors.Is(err, id3v2.ErrUnsupportedVersion) {
		return firstPicture(path)
	}
	if err != nil {
		return nil, err
	}
	defer t.Close()

	for _, f := range t.GetFrames(t.CommonID("Attached picture")) {
		if pic, ok := f.(id3v2.PictureFrame); ok && pic.PictureType == id3v2.PTFrontCover {
			return pic.Picture, nil
		}
	}
	return nil, nil
}

func flacFrontCover(path string) ([]byte, error) {
	f, err := parseFLACMetadata(path)
	if err != nil {
		// prepended ID3 tag
		return firstPicture(path)
	}
	for _, meta := range f.Meta {
		if meta.Type != goflac.Picture {
			continue
		}
		pic, err := flacpicture.ParseFromMetaDataBlock(*meta)
		if err == nil && pic.PictureType == flacpicture.PictureTypeFrontCover {
			return pic.ImageData, nil
		}
	}
	return nil, nil
}

// firstPicture returns whichever picture dhowden/tag reports first.
func firstPicture(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if errors.Is(err, tag.ErrNoTagsFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if pic := m.Picture(); pic != nil {
		return pic.Data, nil
	}
	return nil, nil
}

// FolderArt looks for common cover art files in the given directory.
// Returns nil data when none is found.
func FolderArt(dir string) (data []byte, mimeType string, err error) {
	for _, filename := range coverArtFilenames {
		data, err := os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			// Try case-insensitive match
			data, err = os.ReadFile(filepath.Join(dir, strings.ToUpper(filename)))
			if err != nil {
				continue
			}
		}

		switch filepath.Ext(filename) {
		case ".png":
			mimeType = mimePNG
		default:
			mimeType = mimeJPEG
		}
		return data, mimeType, nil
	}

	return nil, "", nil
}
