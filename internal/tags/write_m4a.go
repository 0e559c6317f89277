package tags

import (
	"fmt"

	"github.com/Sorrow446/go-mp4tag"
)

// writeM4A merges an update into the atoms of an MP4/M4A file.
// go-mp4tag only rewrites the atoms that are set; pictures are appended
// unless explicitly deleted.
func writeM4A(path string, u *Update) error {
	mp4, err := mp4tag.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer mp4.Close()

	custom := make(map[string]string)
	if u.MBRecordingID != "" {
		custom[descRecordingID] = u.MBRecordingID
	}
	if u.MBReleaseID != "" {
		custom[descReleaseID] = u.MBReleaseID
	}

	tags := &mp4tag.MP4Tags{
		Title:  u.Title,
		Artist: u.Artist,
		Album:  u.Album,
		Date:   u.Year,
		Custom: custom,
	}

	var del []string
	if len(u.CoverArt) > 0 {
		tags.Pictures = []*mp4tag.MP4Picture{{Data: u.CoverArt}}
		del = append(del, "allpictures")
	}

	if err := mp4.Write(tags, del); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}
