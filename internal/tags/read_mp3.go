package tags

import (
	"github.com/bogem/id3v2/v2"
)

// readID3Only reads MP3/AAC metadata using only the id3v2 library.
// A file without an ID3v2 tag yields an empty snapshot.
func readID3Only(path string) (*Tag, error) {
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, err
	}
	defer id3tag.Close()

	t := &Tag{
		Path:   path,
		Title:  id3tag.Title(),
		Artist: id3tag.Artist(),
		Album:  id3tag.Album(),
	}
	fillFromID3(id3tag, t)
	return t, nil
}

// readID3Extended completes a dhowden/tag snapshot from the raw ID3v2 frames.
func readID3Extended(path string, t *Tag) {
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return
	}
	defer id3tag.Close()

	fillFromID3(id3tag, t)
}

func fillFromID3(id3tag *id3v2.Tag, t *Tag) {
	// Read date frames - try ID3v2.4 first, then fall back to ID3v2.3
	if date := getID3TextFrame(id3tag, "TDRC"); date != "" {
		t.Date = date
	} else if year := getID3TextFrame(id3tag, "TYER"); year != "" {
		t.Date = year
		// TDAT is DDMM
		if tdat := getID3TextFrame(id3tag, "TDAT"); len(tdat) == 4 {
			t.Date = year + "-" + tdat[2:4] + "-" + tdat[0:2]
		}
	}

	t.MBReleaseID = getID3TXXXFrame(id3tag, descReleaseID)

	// Recording ID lives in the UFID frame (Picard), some taggers use TXXX
	t.MBRecordingID = getID3UFID(id3tag)
	if t.MBRecordingID == "" {
		t.MBRecordingID = getID3TXXXFrame(id3tag, descRecordingID)
	}

	if len(id3tag.GetFrames(id3tag.CommonID("Attached picture"))) > 0 {
		t.HasArtwork = true
	}
}

// getID3TextFrame reads a text frame value from an ID3v2 tag.
func getID3TextFrame(id3tag *id3v2.Tag, frameID string) string {
	frames := id3tag.GetFrames(frameID)
	if len(frames) == 0 {
		return ""
	}
	if tf, ok := frames[0].(id3v2.TextFrame); ok {
		return tf.Text
	}
	return ""
}

// getID3TXXXFrame reads a user-defined text frame (TXXX) value.
func getID3TXXXFrame(id3tag *id3v2.Tag, description string) string {
	for _, frame := range id3tag.GetFrames("TXXX") {
		if txxx, ok := frame.(id3v2.UserDefinedTextFrame); ok && txxx.Description == description {
			return txxx.Value
		}
	}
	return ""
}

// getID3UFID reads the MusicBrainz recording ID from the UFID frame.
func getID3UFID(id3tag *id3v2.Tag) string {
	for _, frame := range id3tag.GetFrames("UFID") {
		if ufid, ok := frame.(id3v2.UFIDFrame); ok && ufid.OwnerIdentifier == ufidOwner {
			return string(ufid.Identifier)
		}
	}
	return ""
}
