package musicbrainz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
)

const (
	coverArtBaseURL = "https://coverartarchive.org"

	// covers larger than this are not worth embedding
	maxCoverBytes = 16 << 20
)

// GetCoverArt fetches the front cover for a release from Cover Art Archive.
// Returns nil data and no error when the release has no front cover.
func (c *Client) GetCoverArt(ctx context.Context, releaseMBID string) ([]byte, error) {
	if releaseMBID == "" {
		return nil, nil
	}
	reqURL := fmt.Sprintf("%s/release/%s/front", c.coverURL, url.PathEscape(releaseMBID))

	var data []byte
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		resp, err := c.do(ctx, reqURL, "image/jpeg, image/png")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := checkStatus(resp); err != nil {
			return err
		}

		data, err = io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes+1))
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}
		if len(data) > maxCoverBytes {
			return fmt.Errorf("cover art exceeds %d bytes", maxCoverBytes)
		}
		return nil
	})

	// 404 means no cover art available - not an error
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
