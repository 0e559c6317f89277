package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/maruel/natural"

	"github.com/llehouerou/tagwiz/internal/tags"
)

// ErrBadPattern is returned for an exclude glob that cannot be parsed.
var ErrBadPattern = errors.New("invalid exclude pattern")

// Scan returns the supported audio files under roots in natural order.
// A root may be a single file. Exclude patterns are doublestar globs
// matched against the slash-separated path relative to the root being
// walked. Hidden files and directories are skipped.
func Scan(roots, excludes []string) ([]string, error) {
	for _, p := range excludes {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: %q", ErrBadPattern, p)
		}
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if tags.IsSupported(abs) {
				add(abs)
			}
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				// unreadable subdirectories are skipped, the rest of the tree is still scanned
				if d != nil && d.IsDir() && path != abs {
					return filepath.SkipDir
				}
				return walkErr
			}
			if path == abs {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			rel, err := filepath.Rel(abs, path)
			if err != nil {
				return err
			}
			if excluded(filepath.ToSlash(rel), d.IsDir(), excludes) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !d.IsDir() && d.Type().IsRegular() && tags.IsSupported(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		return natural.Less(files[i], files[j])
	})
	return files, nil
}

// excluded matches rel against the patterns. Directories also match
// patterns written for their contents, so "Podcasts/**" prunes the whole
// folder.
func excluded(rel string, isDir bool, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if isDir {
			if ok, _ := doublestar.Match(p, rel+"/"); ok {
				return true
			}
		}
	}
	return false
}
