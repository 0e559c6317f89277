package tags

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

// writeFLAC merges an update into the Vorbis comments and front cover of
// a FLAC file. Comments for other fields are kept in their order.
func writeFLAC(path string, u *Update) error {
	// Parse the FLAC file, handling ID3v2 headers if present
	f, id3Size, err := parseFLACWithID3Support(path)
	if err != nil {
		return fmt.Errorf("parse file: %w", err)
	}

	// If file had ID3v2 header, strip it first before we can modify tags
	if id3Size > 0 {
		if err := stripID3v2Header(path, id3Size); err != nil {
			return fmt.Errorf("strip ID3v2 header: %w", err)
		}
		f, err = parseFLAC(path)
		if err != nil {
			return fmt.Errorf("parse file after ID3 strip: %w", err)
		}
	}

	cmtIdx := -1
	var cmts *flacvorbis.MetaDataBlockVorbisComment
	for i, meta := range f.Meta {
		if meta.Type == flac.VorbisComment {
			cmtIdx = i
			cmts, err = flacvorbis.ParseFromMetaDataBlock(*meta)
			if err != nil {
				return fmt.Errorf("parse vorbis comments: %w", err)
			}
			break
		}
	}
	if cmts == nil {
		cmts = flacvorbis.New()
	}

	if err := mergeVorbisComments(cmts, vorbisFields(u)); err != nil {
		return err
	}

	cmtBlock := cmts.Marshal()
	if cmtIdx >= 0 {
		f.Meta[cmtIdx] = &cmtBlock
	} else {
		f.Meta = append(f.Meta, &cmtBlock)
	}

	if len(u.CoverArt) > 0 {
		if err := replaceFLACFrontCover(f, u.CoverArt); err != nil {
			return err
		}
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("save file: %w", err)
	}
	return nil
}

// vorbisField is a single Vorbis comment assignment.
type vorbisField struct {
	key   string
	value string
}

// vorbisFields lists the non-empty fields of u as Vorbis comments, in a
// fixed order.
func vorbisFields(u *Update) []vorbisField {
	all := []vorbisField{
		{keyTitle, u.Title},
		{keyArtist, u.Artist},
		{keyAlbum, u.Album},
		{keyDate, u.Year},
		{keyRecordingID, u.MBRecordingID},
		{keyReleaseID, u.MBReleaseID},
	}
	fields := all[:0]
	for _, f := range all {
		if f.value != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// mergeVorbisComments drops every comment whose key is set by fields and
// appends the new values.
func mergeVorbisComments(cmts *flacvorbis.MetaDataBlockVorbisComment, fields []vorbisField) error {
	replaced := make(map[string]bool, len(fields))
	for _, f := range fields {
		replaced[f.key] = true
	}
	if replaced[keyDate] {
		// YEAR is the non-standard twin of DATE
		replaced["YEAR"] = true
	}

	kept := cmts.Comments[:0]
	for _, c := range cmts.Comments {
		key, _, _ := strings.Cut(c, "=")
		if !replaced[strings.ToUpper(key)] {
			kept = append(kept, c)
		}
	}
	cmts.Comments = kept

	for _, f := range fields {
		if err := cmts.Add(f.key, f.value); err != nil {
			return fmt.Errorf("add %s: %w", strings.ToLower(f.key), err)
		}
	}
	return nil
}

// replaceFLACFrontCover removes front cover picture blocks and appends a
// new one. Pictures of other types are kept.
func replaceFLACFrontCover(f *flac.File, data []byte) error {
	newMeta := make([]*flac.MetaDataBlock, 0, len(f.Meta)+1)
	for _, meta := range f.Meta {
		if meta.Type == flac.Picture {
			pic, err := flacpicture.ParseFromMetaDataBlock(*meta)
			if err != nil || pic.PictureType == flacpicture.PictureTypeFrontCover {
				continue
			}
		}
		newMeta = append(newMeta, meta)
	}

	pic, err := flacpicture.NewFromImageData(
		flacpicture.PictureTypeFrontCover,
		"Front Cover",
		data,
		detectMimeType(data),
	)
	if err != nil {
		return fmt.Errorf("create picture: %w", err)
	}
	picBlock := pic.Marshal()
	f.Meta = append(newMeta, &picBlock)
	return nil
}

// parseFLACWithID3Support parses a FLAC file, handling ID3v2 headers if present.
// Returns the parsed FLAC file, the size of any ID3v2 header found, and any error.
func parseFLACWithID3Support(path string) (*flac.File, int64, error) {
	f, err := parseFLAC(path)
	if err == nil {
		return f, 0, nil
	}
	if errors.Is(err, errNoFrames) {
		return nil, 0, err
	}

	file, openErr := os.Open(path)
	if openErr != nil {
		return nil, 0, err
	}
	defer file.Close()

	header := make([]byte, 10)
	if _, readErr := io.ReadFull(file, header); readErr != nil {
		return nil, 0, err
	}
	if !bytes.Equal(header[:3], []byte(id3Magic)) {
		return nil, 0, err
	}

	// Size is stored in bytes 6-9 as syncsafe integer (7 bits per byte)
	id3Size := int64(10)
	id3Size += int64(header[6]&0x7f)<<21 |
		int64(header[7]&0x7f)<<14 |
		int64(header[8]&0x7f)<<7 |
		int64(header[9]&0x7f)

	// Verify FLAC magic after ID3v2 header
	if _, seekErr := file.Seek(id3Size, io.SeekStart); seekErr != nil {
		return nil, 0, err
	}
	flacMagic := make([]byte, 4)
	if _, readErr := io.ReadFull(file, flacMagic); readErr != nil {
		return nil, 0, err
	}
	if !bytes.Equal(flacMagic, []byte("fLaC")) {
		return nil, 0, errors.New("no fLaC marker found after ID3v2 header")
	}

	return nil, id3Size, nil
}

// stripID3v2Header removes ID3v2 header from a file by rewriting it.
func stripID3v2Header(path string, id3Size int64) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if int64(len(data)) <= id3Size {
		return errors.New("file too small to strip ID3v2 header")
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data[id3Size:], info.Mode().Perm())
}
