package acoustid

// Match is one (recording, release) pairing returned for a fingerprint.
// Release fields are empty when AcoustID knows the recording but no
// release for it.
type Match struct {
	Score        float64
	RecordingID  string
	Title        string
	Artist       string
	ReleaseID    string
	Album        string
	ReleaseGroup string
	Year         string
}

// lookupResponse is the raw /v2/lookup response.
type lookupResponse struct {
	Status  string         `json:"status"`
	Results []lookupResult `json:"results"`
	Error   *APIError      `json:"error"`
}

type lookupResult struct {
	ID         string      `json:"id"`
	Score      float64     `json:"score"`
	Recordings []recording `json:"recordings"`
}

type recording struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Duration      float64        `json:"duration"`
	Artists       []artist       `json:"artists"`
	Releases      []release      `json:"releases"`
	ReleaseGroups []releaseGroup `json:"releasegroups"`
}

type artist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	JoinPhrase string `json:"joinphrase"`
}

type releaseGroup struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Type     string    `json:"type"`
	Artists  []artist  `json:"artists"`
	Releases []release `json:"releases"`
}

type release struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Country string   `json:"country"`
	Date    *date    `json:"date"`
	Artists []artist `json:"artists"`
}

type date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}
