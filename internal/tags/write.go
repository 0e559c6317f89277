package tags

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Update is the set of fields to write. Empty fields are left untouched
// in the file; CoverArt replaces the front cover when not empty.
type Update struct {
	Title  string
	Artist string
	Album  string
	Year   string

	MBRecordingID string
	MBReleaseID   string

	CoverArt []byte
}

// IsEmpty returns true if the update would not change anything.
func (u *Update) IsEmpty() bool {
	return u.Title == "" && u.Artist == "" && u.Album == "" && u.Year == "" &&
		u.MBRecordingID == "" && u.MBReleaseID == "" && len(u.CoverArt) == 0
}

// matches returns true if the snapshot already holds every field of u.
// Years compare on their four-digit prefix so "2001-05-03" satisfies "2001".
func (u *Update) matches(t *Tag) bool {
	same := func(want, got string) bool {
		return want == "" || want == got
	}
	if !same(u.Title, t.Title) || !same(u.Artist, t.Artist) || !same(u.Album, t.Album) {
		return false
	}
	if u.Year != "" && yearOf(u.Year) != t.Year() {
		return false
	}
	return same(u.MBRecordingID, t.MBRecordingID) && same(u.MBReleaseID, t.MBReleaseID)
}

// WriteError reports a failed tag update. The file is left as it was.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write tags %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Apply writes u into the file at path. It returns false without touching
// the file when the tags already match, which makes repeated calls with
// the same update leave the file byte-identical.
//
// The write is made on a copy in the same directory which then replaces
// the original, so a failure never leaves a half-written file behind.
// Failures are *WriteError.
func Apply(path string, u Update) (changed bool, err error) {
	changed, err = apply(path, u)
	if err != nil {
		return false, &WriteError{Path: path, Err: err}
	}
	return changed, nil
}

func apply(path string, u Update) (bool, error) {
	if !IsSupported(path) {
		return false, fmt.Errorf("%w: %s", ErrUnsupportedFormat, Ext(path))
	}
	if u.IsEmpty() {
		return false, nil
	}
	u.Year = yearOf(u.Year)

	current, err := Read(path)
	if err != nil {
		return false, fmt.Errorf("read tags: %w", err)
	}
	if u.matches(current) {
		if len(u.CoverArt) == 0 {
			return false, nil
		}
		art, err := EmbeddedArt(path)
		if err == nil && bytes.Equal(art, u.CoverArt) {
			return false, nil
		}
	}

	if err := replaceFile(path, func(tmp string) error {
		return writeUpdate(tmp, &u)
	}); err != nil {
		return false, err
	}
	return true, nil
}

// writeUpdate dispatches to the format-specific writer. It modifies the
// file in place.
func writeUpdate(path string, u *Update) error {
	switch Ext(path) {
	case ExtMP3, ExtAAC:
		return writeID3(path, u)
	case ExtFLAC:
		return writeFLAC(path, u)
	case ExtM4A:
		return writeM4A(path, u)
	case ExtOGG, ExtOPUS:
		return writeOgg(path, u)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, Ext(path))
}

// replaceFile copies path to a temporary sibling, lets write modify the
// copy, then renames it over path with the original permissions.
func replaceFile(path string, write func(tmp string) error) (err error) {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}

	// Keep the extension: format detection in the writers relies on it
	base := filepath.Base(path)
	pattern := "." + strings.TrimSuffix(base, filepath.Ext(base)) + ".*" + filepath.Ext(base)
	tmp, err := os.CreateTemp(filepath.Dir(path), pattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := copyInto(tmp, path); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("copy file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := write(tmpPath); err != nil {
		return err
	}

	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}

func copyInto(dst *os.File, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if _, err := io.Copy(dst, in); err != nil {
		return err
	}
	return dst.Sync()
}

const (
	mimeJPEG = "image/jpeg"
	mimePNG  = "image/png"
)

// detectMimeType detects the MIME type of image data.
func detectMimeType(data []byte) string {
	if len(data) == 0 {
		return mimeJPEG
	}
	if http.DetectContentType(data) == mimePNG {
		return mimePNG
	}
	// Default to JPEG for unknown types
	return mimeJPEG
}
