// Package acoustid looks up chromaprint fingerprints on the AcoustID web
// service.
package acoustid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/llehouerou/tagwiz/internal/retry"
)

const (
	defaultBaseURL = "https://api.acoustid.org/v2"
	lookupMeta     = "recordings releases releasegroups"

	// AcoustID allows 3 requests per second
	rateLimit = 3
	burst     = 1

	defaultTimeout = 10 * time.Second

	// a recording can appear on dozens of compilations
	maxReleasesPerRecording = 5
)

var (
	// ErrUnauthorized is returned when the API key is rejected.
	ErrUnauthorized = errors.New("acoustid: invalid API key")
	// ErrRateLimited is returned when the service throttles requests.
	ErrRateLimited = errors.New("acoustid: rate limited")
)

// APIError is an error reported in the body of an AcoustID response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("acoustid error %d: %s", e.Code, e.Message)
}

// AcoustID error codes, see https://acoustid.org/webservice
const (
	codeInvalidAPIKey     = 4
	codeInternalError     = 5
	codeInvalidUserAPIKey = 6
	codeServiceDown       = 13
	codeTooManyRequests   = 14
)

// Options configures a Client.
type Options struct {
	APIKey       string
	ContactEmail string
	Timeout      time.Duration
	Retry        retry.Policy
	Log          logrus.FieldLogger
}

// Client performs fingerprint lookups.
type Client struct {
	apiKey     string
	userAgent  string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      retry.Policy
	log        logrus.FieldLogger
}

// NewClient creates a new AcoustID client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		apiKey:     opts.APIKey,
		userAgent:  fmt.Sprintf("tagwiz/0.1 ( %s )", opts.ContactEmail),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second/rateLimit), burst),
		retry:      opts.Retry,
		log:        log,
	}
}

// Lookup returns the recordings matching a fingerprint, one Match per
// (recording, release) pair, in the order the service ranked them.
func (c *Client) Lookup(ctx context.Context, fingerprint string, duration int) ([]Match, error) {
	if c.apiKey == "" {
		return nil, ErrUnauthorized
	}

	form := url.Values{
		"client":      {c.apiKey},
		"fingerprint": {fingerprint},
		"duration":    {strconv.Itoa(duration)},
		"meta":        {lookupMeta},
		"format":      {"json"},
	}

	var resp lookupResponse
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.post(ctx, "/lookup", form)
		return err
	})
	if err != nil {
		return nil, err
	}

	matches := flatten(resp.Results)
	c.log.WithFields(logrus.Fields{
		"results": len(resp.Results),
		"matches": len(matches),
	}).Debug("AcoustID lookup complete")
	return matches, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values) (lookupResponse, error) {
	var out lookupResponse

	if err := c.limiter.Wait(ctx); err != nil {
		return out, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return out, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	// Errors come back as JSON with a 4xx/5xx status.
	if jsonErr := json.Unmarshal(body, &out); jsonErr != nil {
		if resp.StatusCode != http.StatusOK {
			return out, classifyStatus(resp.StatusCode, string(body))
		}
		return out, fmt.Errorf("decode response: %w", jsonErr)
	}

	if out.Status != "ok" {
		if out.Error != nil {
			return out, classifyAPIError(out.Error)
		}
		return out, classifyStatus(resp.StatusCode, "status "+out.Status)
	}
	return out, nil
}

func classifyAPIError(e *APIError) error {
	switch e.Code {
	case codeInvalidAPIKey, codeInvalidUserAPIKey:
		return fmt.Errorf("%w: %s", ErrUnauthorized, e.Message)
	case codeTooManyRequests:
		return retry.Retryable(fmt.Errorf("%w: %w", ErrRateLimited, e))
	case codeInternalError, codeServiceDown:
		return retry.Retryable(e)
	}
	return e
}

func classifyStatus(code int, msg string) error {
	httpErr := &retry.HTTPError{StatusCode: code, Message: msg}
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrUnauthorized, httpErr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimited, httpErr)
	}
	return httpErr
}

// flatten turns the nested result tree into Match rows.
func flatten(results []lookupResult) []Match {
	var matches []Match
	for _, res := range results {
		for _, rec := range res.Recordings {
			base := Match{
				Score:       res.Score,
				RecordingID: rec.ID,
				Title:       rec.Title,
				Artist:      joinArtists(rec.Artists),
			}

			rels := recordingReleases(rec)
			if len(rels) == 0 {
				matches = append(matches, base)
				continue
			}
			for _, r := range rels {
				m := base
				m.ReleaseID = r.release.ID
				m.Album = r.release.Title
				m.ReleaseGroup = r.group
				if m.Album == "" {
					m.Album = r.group
				}
				if r.release.Date != nil && r.release.Date.Year > 0 {
					m.Year = fmt.Sprintf("%04d", r.release.Date.Year)
				}
				if m.Artist == "" {
					m.Artist = joinArtists(r.release.Artists)
				}
				matches = append(matches, m)
			}
		}
	}
	return matches
}

type groupedRelease struct {
	release release
	group   string
}

// recordingReleases collects the releases of a recording, whether nested
// in release groups or listed directly, dated releases first, earliest
// first.
func recordingReleases(rec recording) []groupedRelease {
	var out []groupedRelease
	seen := make(map[string]bool)
	add := func(r release, group string) {
		if r.ID == "" || seen[r.ID] {
			return
		}
		seen[r.ID] = true
		out = append(out, groupedRelease{release: r, group: group})
	}

	for _, g := range rec.ReleaseGroups {
		for _, r := range g.Releases {
			add(r, g.Title)
		}
		if len(g.Releases) == 0 && g.ID != "" {
			// Only the group is known; it still names the album.
			out = append(out, groupedRelease{group: g.Title})
		}
	}
	for _, r := range rec.Releases {
		add(r, "")
	}

	sort.SliceStable(out, func(i, j int) bool {
		return dateKey(out[i].release.Date) < dateKey(out[j].release.Date)
	})
	if len(out) > maxReleasesPerRecording {
		out = out[:maxReleasesPerRecording]
	}
	return out
}

// dateKey orders undated releases last.
func dateKey(d *date) int {
	if d == nil || d.Year == 0 {
		return 99999999
	}
	return d.Year*10000 + d.Month*100 + d.Day
}

// joinArtists renders an artist credit the way MusicBrainz displays it.
func joinArtists(artists []artist) string {
	var b strings.Builder
	for i, a := range artists {
		b.WriteString(a.Name)
		switch {
		case a.JoinPhrase != "":
			b.WriteString(a.JoinPhrase)
		case i < len(artists)-1:
			b.WriteString(", ")
		}
	}
	return b.String()
}
