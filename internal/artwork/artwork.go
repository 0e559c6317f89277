// Package artwork fetches front covers for resolved releases.
package artwork

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jellydator/ttlcache/v3"
	"github.com/nfnt/resize"
	"github.com/sirupsen/logrus"

	"github.com/llehouerou/tagwiz/internal/tags"
)

const (
	jpegQuality = 90
	cacheTTL    = time.Hour
)

// CoverSource downloads the front cover of a release. It returns nil data
// without error when the release has none.
type CoverSource interface {
	GetCoverArt(ctx context.Context, releaseID string) ([]byte, error)
}

// Options configures a Fetcher.
type Options struct {
	MaxSize        int  // longest edge in pixels; larger images are downscaled
	FolderFallback bool // look for cover.jpg & co next to the file
	CacheSize      int  // releases kept in memory
}

// Fetcher retrieves cover art. Every failure degrades to "no artwork".
type Fetcher struct {
	source CoverSource
	cache  *ttlcache.Cache[string, []byte]
	opts   Options
	log    logrus.FieldLogger
}

// NewFetcher creates a fetcher backed by source.
func NewFetcher(source CoverSource, opts Options, log logrus.FieldLogger) *Fetcher {
	capacity := uint64(max(opts.CacheSize, 1)) //nolint:gosec // clamped positive
	cache := ttlcache.New[string, []byte](
		ttlcache.WithTTL[string, []byte](cacheTTL),
		ttlcache.WithCapacity[string, []byte](capacity),
	)
	return &Fetcher{source: source, cache: cache, opts: opts, log: log}
}

// Fetch returns the cover for releaseID, or the folder cover of audioPath
// when the release has none and the fallback is enabled. Returns nil when
// no usable image was found.
func (f *Fetcher) Fetch(ctx context.Context, releaseID, audioPath string) []byte {
	log := f.log.WithField("release", releaseID)

	if data := f.fromRelease(ctx, releaseID, log); data != nil {
		return data
	}
	if !f.opts.FolderFallback || audioPath == "" {
		return nil
	}

	dir := filepath.Dir(audioPath)
	data, _, err := tags.FolderArt(dir)
	if err != nil {
		log.WithError(err).Debug("Could not read folder art")
		return nil
	}
	if data == nil {
		return nil
	}
	log.WithField("dir", dir).Debug("Using folder art")
	return f.normalize(data, log)
}

func (f *Fetcher) fromRelease(ctx context.Context, releaseID string, log logrus.FieldLogger) []byte {
	if releaseID == "" {
		return nil
	}
	if item := f.cache.Get(releaseID); item != nil {
		return item.Value()
	}

	data, err := f.source.GetCoverArt(ctx, releaseID)
	if err != nil {
		// Transient; the next track of the album may try again.
		log.WithError(err).Warn("Could not fetch cover art")
		return nil
	}
	if data == nil {
		log.Debug("Release has no front cover")
		f.cache.Set(releaseID, nil, ttlcache.DefaultTTL)
		return nil
	}

	data = f.normalize(data, log)
	f.cache.Set(releaseID, data, ttlcache.DefaultTTL)
	return data
}

// normalize downscales images larger than MaxSize to JPEG. Undecodable
// data is dropped since no tag format can describe it.
func (f *Fetcher) normalize(data []byte, log logrus.FieldLogger) []byte {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.WithError(err).Warn("Discarding undecodable cover art")
		return nil
	}

	bounds := img.Bounds()
	if f.opts.MaxSize <= 0 || max(bounds.Dx(), bounds.Dy()) <= f.opts.MaxSize {
		log.WithFields(logrus.Fields{
			"format": format,
			"size":   humanize.Bytes(uint64(len(data))),
		}).Debug("Cover art ready")
		return data
	}

	size := uint(f.opts.MaxSize) //nolint:gosec // checked positive above
	resized := resize.Thumbnail(size, size, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		log.WithError(err).Warn("Could not re-encode cover art, keeping original")
		return data
	}

	log.WithFields(logrus.Fields{
		"from": humanize.Bytes(uint64(len(data))),
		"to":   humanize.Bytes(uint64(buf.Len())),
		"dims": bounds.Dx(),
	}).Debug("Downscaled cover art")
	return buf.Bytes()
}
