package tags

import "testing"

func TestTag_Year(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2023-06-15", "2023"},
		{"2023-06", "2023"},
		{"2023", "2023"},
		{" 1999 ", "1999"},
		{"", ""},
		{"99", "99"},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			tag := &Tag{Date: tt.date}
			if got := tag.Year(); got != tt.want {
				t.Errorf("Year() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTag_IsTagged(t *testing.T) {
	tests := []struct {
		name string
		tag  Tag
		want bool
	}{
		{"all essential fields", Tag{Title: "Song", Artist: "Artist", Album: "Album"}, true},
		{"missing album", Tag{Title: "Song", Artist: "Artist"}, false},
		{"blank artist", Tag{Title: "Song", Artist: "  ", Album: "Album"}, false},
		{"year is not essential", Tag{Title: "Song", Artist: "Artist", Album: "Album", Date: ""}, true},
		{"empty", Tag{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tag.IsTagged(); got != tt.want {
				t.Errorf("IsTagged() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/music/song.mp3", true},
		{"/music/song.MP3", true},
		{"/music/song.aac", true},
		{"/music/song.flac", true},
		{"/music/song.m4a", true},
		{"/music/song.ogg", true},
		{"/music/song.opus", true},
		{"/music/song.wav", false},
		{"/music/song.mp4", false},
		{"/music/cover.jpg", false},
		{"/music/noext", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsSupported(tt.path); got != tt.want {
				t.Errorf("IsSupported(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestFormatName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a.mp3", "MP3"},
		{"a.Flac", "FLAC"},
		{"a.opus", "OPUS"},
		{"a.txt", ""},
	}

	for _, tt := range tests {
		if got := FormatName(tt.path); got != tt.want {
			t.Errorf("FormatName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
