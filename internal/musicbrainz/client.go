package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/llehouerou/tagwiz/internal/retry"
)

const (
	defaultBaseURL = "https://musicbrainz.org/ws/2"
	appName        = "tagwiz/0.1"
	rateLimitDur   = 1100 * time.Millisecond // MusicBrainz allows about 1 request per second

	defaultTimeout     = 30 * time.Second
	defaultSearchLimit = 10
)

// ErrNotFound is returned when an entity does not exist.
var ErrNotFound = errors.New("musicbrainz: not found")

// Options configures a Client.
type Options struct {
	// ContactEmail is sent in the User-Agent as the usage policy requires.
	ContactEmail string
	Timeout      time.Duration
	SearchLimit  int
	Retry        retry.Policy
	Log          logrus.FieldLogger
}

// Client provides access to the MusicBrainz API and the Cover Art Archive.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	retry       retry.Policy
	userAgent   string
	baseURL     string
	coverURL    string
	searchLimit int
	log         logrus.FieldLogger
}

// NewClient creates a new MusicBrainz API client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := opts.SearchLimit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Every(rateLimitDur), 1),
		retry:       opts.Retry,
		userAgent:   UserAgent(opts.ContactEmail),
		baseURL:     defaultBaseURL,
		coverURL:    coverArtBaseURL,
		searchLimit: limit,
		log:         log,
	}
}

// UserAgent builds the identifying User-Agent MusicBrainz asks clients to send.
func UserAgent(contact string) string {
	if contact == "" {
		return appName
	}
	return fmt.Sprintf("%s ( %s )", appName, contact)
}

// SearchRecordings searches recordings by title and, when known, artist.
// Results keep the service's relevance order.
func (c *Client) SearchRecordings(ctx context.Context, title, artist string) ([]Recording, error) {
	query := RecordingQuery(title, artist)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("fmt", "json")
	params.Set("limit", strconv.Itoa(c.searchLimit))

	var result recordingSearchResponse
	if err := c.getJSON(ctx, "/recording?"+params.Encode(), &result); err != nil {
		return nil, err
	}

	recordings := make([]Recording, 0, len(result.Recordings))
	for i := range result.Recordings {
		recordings = append(recordings, convertRecording(&result.Recordings[i]))
	}

	c.log.WithFields(logrus.Fields{
		"query":   query,
		"results": len(recordings),
	}).Debug("MusicBrainz recording search")
	return recordings, nil
}

// GetRecording fetches a recording with its artists and releases.
func (c *Client) GetRecording(ctx context.Context, mbid string) (*Recording, error) {
	params := url.Values{}
	params.Set("fmt", "json")
	params.Set("inc", "artist-credits+releases+release-groups")

	var result recordingResult
	if err := c.getJSON(ctx, fmt.Sprintf("/recording/%s?%s", url.PathEscape(mbid), params.Encode()), &result); err != nil {
		return nil, err
	}

	rec := convertRecording(&result)
	return &rec, nil
}

// RecordingQuery builds the Lucene query for a recording search. Returns
// "" without a title.
func RecordingQuery(title, artist string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	query := fmt.Sprintf(`recording:"%s"`, escapeQuery(title))
	if artist = strings.TrimSpace(artist); artist != "" {
		query += fmt.Sprintf(` AND artist:"%s"`, escapeQuery(artist))
	}
	return query
}

// escapeQuery escapes characters that would end a quoted Lucene phrase.
func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// getJSON performs a rate-limited GET against the API, retrying transient
// failures, and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.retry.Do(ctx, func(ctx context.Context) error {
		resp, err := c.do(ctx, c.baseURL+path, "application/json")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := checkStatus(resp); err != nil {
			return err
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

// do waits for the rate limiter and sends one GET request.
func (c *Client) do(ctx context.Context, reqURL, accept string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &retry.HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}

// convertRecording converts a raw recording, picking the release that best
// represents it.
func convertRecording(r *recordingResult) Recording {
	rec := Recording{
		ID:     r.ID,
		Title:  r.Title,
		Artist: extractArtist(r.ArtistCredit),
		Score:  r.Score,
	}

	rel := pickRelease(r.Releases)
	if rel == nil {
		rec.Date = r.FirstReleaseDate
		return rec
	}

	rec.ReleaseID = rel.ID
	rec.Album = rel.Title
	rec.Date = rel.Date
	if rel.ReleaseGroup != nil {
		rec.ReleaseGroup = rel.ReleaseGroup.ID
		if extractYear(rec.Date) == "" {
			rec.Date = rel.ReleaseGroup.FirstReleaseDate
		}
	}
	if extractYear(rec.Date) == "" {
		rec.Date = r.FirstReleaseDate
	}
	return rec
}

// pickRelease prefers official album releases, then the earliest date.
// The API order is kept between equals.
func pickRelease(releases []releaseResult) *releaseResult {
	var best *releaseResult
	bestRank := -1
	for i := range releases {
		r := &releases[i]
		rank := 0
		if strings.EqualFold(r.Status, "official") {
			rank += 2
		}
		if r.ReleaseGroup != nil && strings.EqualFold(r.ReleaseGroup.PrimaryType, "album") &&
			len(r.ReleaseGroup.SecondaryTypes) == 0 {
			rank++
		}
		switch {
		case rank > bestRank:
			best, bestRank = r, rank
		case rank == bestRank && earlier(r.Date, best.Date):
			best = r
		}
	}
	return best
}

// earlier reports whether date a is known and before b.
func earlier(a, b string) bool {
	if a == "" {
		return false
	}
	if b == "" {
		return true
	}
	return a < b
}

// extractArtist extracts the artist name from artist credits.
func extractArtist(credits []artistCredit) string {
	if len(credits) == 0 {
		return ""
	}

	parts := make([]string, 0, len(credits))
	for _, c := range credits {
		name := c.Name
		if name == "" {
			name = c.Artist.Name
		}
		parts = append(parts, name+c.JoinPhrase)
	}
	return strings.Join(parts, "")
}

// extractYear returns the year portion of a date string (YYYY-MM-DD or YYYY).
func extractYear(date string) string {
	if len(date) < 4 {
		return ""
	}
	for _, ch := range date[:4] {
		if ch < '0' || ch > '9' {
			return ""
		}
	}
	return date[:4]
}
