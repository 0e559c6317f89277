package tags

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
)

func TestRead_UntaggedMP3(t *testing.T) {
	path := createTestMP3(t, t.TempDir(), "Artist - Song.mp3")

	result := mustRead(t, path)

	// The filename is never used as a title
	assertEqual(t, "Title", result.Title, "")
	assertEqual(t, "Path", result.Path, path)
	assertEqual(t, "IsTagged", result.IsTagged(), false)
	assertEqual(t, "HasArtwork", result.HasArtwork, false)
}

func TestRead_MP3_ID3v23Date(t *testing.T) {
	path := createTestMP3(t, t.TempDir(), "track.mp3")

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	tag.SetVersion(3)
	tag.SetTitle("Song")
	tag.AddTextFrame("TYER", id3v2.EncodingUTF8, "1987")
	tag.AddTextFrame("TDAT", id3v2.EncodingUTF8, "2304")
	if err := tag.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	tag.Close()

	result := mustRead(t, path)
	assertEqual(t, "Date", result.Date, "1987-04-23")
	assertEqual(t, "Year", result.Year(), "1987")
}

func TestRead_MP3_RecordingIDFromTXXX(t *testing.T) {
	path := createTestMP3(t, t.TempDir(), "track.mp3")

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	tag.SetVersion(4)
	tag.SetTitle("Song")
	tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
		Encoding:    id3v2.EncodingUTF8,
		Description: descRecordingID,
		Value:       "rec-from-txxx",
	})
	if err := tag.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	tag.Close()

	assertEqual(t, "MBRecordingID", mustRead(t, path).MBRecordingID, "rec-from-txxx")
}

func TestRead_Unicode(t *testing.T) {
	path := createTestMP3(t, t.TempDir(), "track.mp3")
	u := Update{Title: "日本語タイトル", Artist: "Émilie Simon", Album: "Ça ira"}

	mustApply(t, path, u)

	result := mustRead(t, path)
	assertEqual(t, "Title", result.Title, u.Title)
	assertEqual(t, "Artist", result.Artist, u.Artist)
	assertEqual(t, "Album", result.Album, u.Album)
}

func TestRead_NonexistentFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.mp3")); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestRead_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Read(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Read() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestYearToDate(t *testing.T) {
	assertEqual(t, "0", yearToDate(0), "")
	assertEqual(t, "2024", yearToDate(2024), "2024")
}
