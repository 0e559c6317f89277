// Package musicbrainz provides a client for the MusicBrainz API.
package musicbrainz

// Recording is a MusicBrainz recording together with the release chosen
// to represent it.
type Recording struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Artist       string // Extracted from artist-credit
	Score        int    `json:"score"` // Search relevance score (0-100)
	ReleaseID    string // Representative release
	Album        string // Title of that release
	Date         string // YYYY-MM-DD, YYYY-MM or YYYY
	ReleaseGroup string // Release group ID
}

// Year returns the year portion of the release date.
func (r Recording) Year() string {
	return extractYear(r.Date)
}

// recordingSearchResponse is the raw response from a recording search.
type recordingSearchResponse struct {
	Count      int               `json:"count"`
	Recordings []recordingResult `json:"recordings"`
}

// recordingResult is a recording as returned by search and lookup.
type recordingResult struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Score            int             `json:"score"`
	Length           int             `json:"length"` // milliseconds
	FirstReleaseDate string          `json:"first-release-date"`
	ArtistCredit     []artistCredit  `json:"artist-credit"`
	Releases         []releaseResult `json:"releases"`
}

// releaseResult is a release nested in a recording.
type releaseResult struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Status       string        `json:"status"`
	Date         string        `json:"date"`
	Country      string        `json:"country"`
	ReleaseGroup *releaseGroup `json:"release-group"`
}

// artistCredit represents an artist contribution.
type artistCredit struct {
	Name   string `json:"name"`
	Artist struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		SortName string `json:"sort-name"`
	} `json:"artist"`
	JoinPhrase string `json:"joinphrase"`
}

// releaseGroup contains release type info.
type releaseGroup struct {
	ID               string   `json:"id"`
	PrimaryType      string   `json:"primary-type"`
	SecondaryTypes   []string `json:"secondary-types"`
	FirstReleaseDate string   `json:"first-release-date"`
}
