package tags

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
)

// testJPEG encodes a small solid image. FLAC picture blocks need a
// decodable image to read its dimensions.
func testJPEG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := range 4 {
		for y := range 4 {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// createTestMP3 creates a minimal untagged MP3 file.
func createTestMP3(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)

	// Minimal MP3 frame (MPEG1 Layer3, 128kbps, 44100Hz, stereo)
	mp3Frame := make([]byte, 417)
	mp3Frame[0] = 0xff
	mp3Frame[1] = 0xfb
	mp3Frame[2] = 0x90
	mp3Frame[3] = 0x00

	if err := os.WriteFile(path, mp3Frame, 0o644); err != nil {
		t.Fatalf("failed to create test MP3: %v", err)
	}
	return path
}

// createWithFFmpeg creates a one second sine file with the given codec.
func createWithFFmpeg(t *testing.T, dir, name, codec string) string {
	t.Helper()
	path := filepath.Join(dir, name)

	cmd := exec.Command("ffmpeg", "-y", "-f", "lavfi", "-i", "sine=frequency=440:duration=1", "-c:a", codec, path)
	cmd.Stderr = nil
	cmd.Stdout = nil
	if err := cmd.Run(); err != nil {
		t.Skipf("ffmpeg not available: %v", err)
	}
	return path
}

func assertEqual[T comparable](t *testing.T, field string, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %v, want %v", field, got, want)
	}
}

func mustRead(t *testing.T, path string) *Tag {
	t.Helper()
	result, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	return result
}

func mustApply(t *testing.T, path string, u Update) bool {
	t.Helper()
	changed, err := Apply(path, u)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	return changed
}

// assertIdempotent applies u a second time and checks the file bytes did
// not change.
func assertIdempotent(t *testing.T, path string, u Update) {
	t.Helper()
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}

	if changed := mustApply(t, path, u); changed {
		t.Error("second Apply() reported a change")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("second Apply() modified the file")
	}
}

func fullUpdate(t *testing.T) Update {
	t.Helper()
	return Update{
		Title:         "Song A",
		Artist:        "Artist X",
		Album:         "Album R1",
		Year:          "2001",
		MBRecordingID: "recording-uuid-1234",
		MBReleaseID:   "release-uuid-1234",
		CoverArt:      testJPEG(t, color.White),
	}
}

func assertUpdateApplied(t *testing.T, got *Tag, u Update) {
	t.Helper()
	assertEqual(t, "Title", got.Title, u.Title)
	assertEqual(t, "Artist", got.Artist, u.Artist)
	assertEqual(t, "Album", got.Album, u.Album)
	assertEqual(t, "Year", got.Year(), u.Year)
	assertEqual(t, "MBRecordingID", got.MBRecordingID, u.MBRecordingID)
	assertEqual(t, "MBReleaseID", got.MBReleaseID, u.MBReleaseID)
	if len(u.CoverArt) > 0 {
		assertEqual(t, "HasArtwork", got.HasArtwork, true)
	}
}

func vorbisBlock(comments []string) *flacvorbis.MetaDataBlockVorbisComment {
	block := flacvorbis.New()
	block.Comments = append(block.Comments, comments...)
	return block
}

// flacStreamInfo is a StreamInfo block for one second of 44.1 kHz 16-bit
// stereo.
func flacStreamInfo() *goflac.MetaDataBlock {
	data := make([]byte, 34)
	data[0], data[2] = 0x10, 0x10 // block size 4096
	data[10], data[11], data[12] = 0x0A, 0xC4, 0x42
	data[13] = 0xF0
	data[16], data[17] = 0xAC, 0x44
	return &goflac.MetaDataBlock{Type: goflac.StreamInfo, Data: data}
}

// createStubFLAC writes a FLAC file made of a StreamInfo block, the given
// Vorbis comments and extra blocks. With frames false the file ends right
// after its metadata, like a truncated download.
func createStubFLAC(t *testing.T, dir, name string, comments []string, frames bool, extra ...*goflac.MetaDataBlock) string {
	t.Helper()
	path := filepath.Join(dir, name)

	cmts := vorbisBlock(comments).Marshal()
	f := &goflac.File{Meta: []*goflac.MetaDataBlock{flacStreamInfo(), &cmts}}
	f.Meta = append(f.Meta, extra...)
	if frames {
		f.Frames = goflac.FrameData{0xFF, 0xF8, 0x69, 0x08, 0x00, 0x00, 0x00}
	}
	if err := f.Save(path); err != nil {
		t.Fatalf("save flac: %v", err)
	}
	return path
}

func flacPictureBlock(t *testing.T, pictureType flacpicture.PictureType, data []byte) *goflac.MetaDataBlock {
	t.Helper()
	pic, err := flacpicture.NewFromImageData(pictureType, "", data, mimeJPEG)
	if err != nil {
		t.Fatalf("create picture: %v", err)
	}
	block := pic.Marshal()
	return &block
}

func flacComments(t *testing.T, path string) map[string]string {
	t.Helper()
	f, err := parseFLACMetadata(path)
	if err != nil {
		t.Fatalf("parse flac: %v", err)
	}
	for _, meta := range f.Meta {
		if meta.Type == goflac.VorbisComment {
			return parseVorbisComments(meta.Data)
		}
	}
	return nil
}
