package tags

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/bogem/id3v2/v2"
	dtag "github.com/dhowden/tag"
)

// writeID3 merges an update into the ID3v2 tag of an MP3 or AAC file.
// Frames not covered by the update are kept.
func writeID3(path string, u *Update) error {
	var legacy []legacyFrame
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if errors.Is(err, id3v2.ErrUnsupportedVersion) {
		// ID3v2.2 tags are read with dhowden/tag, stripped, and their
		// frames re-added as ID3v2.4
		legacy, err = readID3v22Frames(path)
		if err != nil {
			return fmt.Errorf("read ID3v2.2 tag: %w", err)
		}
		if stripErr := stripID3v2Tag(path); stripErr != nil {
			return fmt.Errorf("strip unsupported ID3v2.2 tag: %w", stripErr)
		}
		tag, err = id3v2.Open(path, id3v2.Options{Parse: true})
	}
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer tag.Close()

	for _, f := range legacy {
		f.addTo(tag)
	}

	// Use ID3v2.4 with UTF-8 for better Unicode support
	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	// Text frames replace any previous frame with the same ID
	if u.Title != "" {
		tag.SetTitle(u.Title)
	}
	if u.Artist != "" {
		tag.SetArtist(u.Artist)
	}
	if u.Album != "" {
		tag.SetAlbum(u.Album)
	}
	if u.Year != "" {
		// ID3v2.3 date frames would shadow TDRC for some readers
		tag.DeleteFrames("TYER")
		tag.DeleteFrames("TDAT")
		tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, u.Year)
	}

	if u.MBReleaseID != "" {
		setTXXXFrame(tag, descReleaseID, u.MBReleaseID)
	}
	if u.MBRecordingID != "" {
		setUFIDFrame(tag, u.MBRecordingID)
	}

	if len(u.CoverArt) > 0 {
		setFrontCover(tag, u.CoverArt)
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	return nil
}

// replaceFrames drops the frames with the given ID for which drop returns
// true and keeps the rest.
func replaceFrames(tag *id3v2.Tag, id string, drop func(id3v2.Framer) bool) {
	frames := tag.GetFrames(id)
	tag.DeleteFrames(id)
	for _, f := range frames {
		if !drop(f) {
			tag.AddFrame(id, f)
		}
	}
}

// setTXXXFrame sets a user-defined text frame, replacing any frame with
// the same description.
func setTXXXFrame(tag *id3v2.Tag, description, value string) {
	replaceFrames(tag, "TXXX", func(f id3v2.Framer) bool {
		txxx, ok := f.(id3v2.UserDefinedTextFrame)
		return ok && txxx.Description == description
	})
	tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
		Encoding:    id3v2.EncodingUTF8,
		Description: description,
		Value:       value,
	})
}

// setUFIDFrame sets the MusicBrainz recording ID (Picard stores it in UFID).
func setUFIDFrame(tag *id3v2.Tag, recordingID string) {
	replaceFrames(tag, "UFID", func(f id3v2.Framer) bool {
		ufid, ok := f.(id3v2.UFIDFrame)
		return ok && ufid.OwnerIdentifier == ufidOwner
	})
	tag.AddFrame("UFID", id3v2.UFIDFrame{
		OwnerIdentifier: ufidOwner,
		Identifier:      []byte(recordingID),
	})
}

// setFrontCover replaces the front cover picture. Other picture types
// (back cover, artist, ...) are kept.
func setFrontCover(tag *id3v2.Tag, data []byte) {
	apic := tag.CommonID("Attached picture")
	replaceFrames(tag, apic, func(f id3v2.Framer) bool {
		pic, ok := f.(id3v2.PictureFrame)
		return !ok || pic.PictureType == id3v2.PTFrontCover || pic.PictureType == id3v2.PTOther
	})
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    detectMimeType(data),
		PictureType: id3v2.PTFrontCover,
		Description: "Front Cover",
		Picture:     data,
	})
}

// stripID3v2Tag removes ID3v2 tags from an MP3 file.
// This is used to handle ID3v2.2 tags which the id3v2 library doesn't support.
func stripID3v2Tag(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	if len(data) < 10 || string(data[:3]) != id3Magic {
		return nil // No ID3v2 tag to strip
	}

	// Tag size is a synchsafe integer: each byte uses only 7 bits
	size := int(data[6])<<21 | int(data[7])<<14 | int(data[8])<<7 | int(data[9])
	tagSize := size + 10

	// Footer flag (ID3v2.4 only)
	if data[5]&0x10 != 0 {
		tagSize += 10
	}

	if tagSize >= len(data) {
		return fmt.Errorf("ID3v2 tag size (%d) exceeds file size (%d)", tagSize, len(data))
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if err := os.WriteFile(path, data[tagSize:], info.Mode()); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// legacyTextFrames maps ID3v2.2 text frames to their ID3v2.4 IDs.
var legacyTextFrames = map[string]string{
	"TT1": "TIT1", "TT2": "TIT2", "TT3": "TIT3",
	"TP1": "TPE1", "TP2": "TPE2", "TP3": "TPE3", "TP4": "TPE4",
	"TCM": "TCOM", "TXT": "TEXT", "TLA": "TLAN", "TCO": "TCON",
	"TAL": "TALB", "TPA": "TPOS", "TRK": "TRCK", "TRC": "TSRC",
	"TYE": "TDRC", "TEN": "TENC", "TCR": "TCOP", "TPB": "TPUB",
	"TBP": "TBPM", "TKE": "TKEY", "TOT": "TOAL", "TOA": "TOPE",
}

// legacyFrame is an ID3v2.2 frame converted for an ID3v2.4 tag.
type legacyFrame struct {
	addTo func(tag *id3v2.Tag)
}

// readID3v22Frames converts the text, comment, lyrics and picture frames
// of an ID3v2.2 tag. Frames with no ID3v2.4 counterpart are dropped.
func readID3v22Frames(path string) ([]legacyFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := dtag.ReadFrom(f)
	if errors.Is(err, dtag.ErrNoTagsFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	raw := m.Raw()
	var frames []legacyFrame
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		id, _, _ := strings.Cut(name, "_")
		switch v := raw[name].(type) {
		case string:
			v24, ok := legacyTextFrames[id]
			if !ok || v == "" {
				continue
			}
			frames = append(frames, legacyFrame{func(tag *id3v2.Tag) {
				tag.AddTextFrame(v24, id3v2.EncodingUTF8, v)
			}})
		case *dtag.Comm:
			switch id {
			case "TXX":
				frames = append(frames, legacyFrame{func(tag *id3v2.Tag) {
					tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
						Encoding:    id3v2.EncodingUTF8,
						Description: v.Description,
						Value:       v.Text,
					})
				}})
			case "COM":
				frames = append(frames, legacyFrame{func(tag *id3v2.Tag) {
					tag.AddCommentFrame(id3v2.CommentFrame{
						Encoding:    id3v2.EncodingUTF8,
						Language:    legacyLanguage(v.Language),
						Description: v.Description,
						Text:        v.Text,
					})
				}})
			case "ULT":
				frames = append(frames, legacyFrame{func(tag *id3v2.Tag) {
					tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
						Encoding:          id3v2.EncodingUTF8,
						Language:          legacyLanguage(v.Language),
						ContentDescriptor: v.Description,
						Lyrics:            v.Text,
					})
				}})
			}
		case *dtag.Picture:
			frames = append(frames, legacyFrame{func(tag *id3v2.Tag) {
				tag.AddAttachedPicture(id3v2.PictureFrame{
					Encoding:    id3v2.EncodingUTF8,
					MimeType:    detectMimeType(v.Data),
					PictureType: legacyPictureType(v.Type),
					Description: v.Description,
					Picture:     v.Data,
				})
			}})
		}
	}
	return frames, nil
}

func legacyLanguage(lang string) string {
	if len(lang) != 3 {
		return "eng"
	}
	return lang
}

// legacyPictureType maps dhowden/tag's picture type names back to the
// ID3 byte. Unknown names become PTOther.
func legacyPictureType(name string) byte {
	switch name {
	case "Cover (front)":
		return id3v2.PTFrontCover
	case "Cover (back)":
		return id3v2.PTBackCover
	case "Artist/performer":
		return id3v2.PTArtistPerformer
	case "Lead artist/lead performer/soloist":
		return id3v2.PTLeadArtistSoloist
	}
	return id3v2.PTOther
}
