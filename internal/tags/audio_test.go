package tags

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadAudioInfo_MP3(t *testing.T) {
	path := createTestMP3(t, t.TempDir(), "track.mp3")

	info, err := ReadAudioInfo(path)
	if err != nil {
		t.Fatalf("ReadAudioInfo() error: %v", err)
	}

	assertEqual(t, "Format", info.Format, "MP3")
	assertEqual(t, "SampleRate", info.SampleRate, 44100)
}

// adtsFrame builds an ADTS header (44.1kHz, stereo) followed by padding.
func adtsFrame(size int) []byte {
	frame := make([]byte, size)
	frame[0] = 0xff
	frame[1] = 0xf1         // MPEG-4, no CRC
	frame[2] = 0x50         // AAC LC, sampling index 4 (44100)
	frame[3] = 0x80 | byte(size>>11)&0x03
	frame[4] = byte(size >> 3)
	frame[5] = byte(size&0x07)<<5 | 0x1f
	frame[6] = 0xfc
	return frame
}

func TestReadAudioInfo_ADTS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.aac")

	var data []byte
	for range 43 {
		data = append(data, adtsFrame(100)...)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("create file: %v", err)
	}

	info, err := ReadAudioInfo(path)
	if err != nil {
		t.Fatalf("ReadAudioInfo() error: %v", err)
	}

	assertEqual(t, "Format", info.Format, "AAC")
	assertEqual(t, "SampleRate", info.SampleRate, 44100)
	// 43 frames * 1024 samples / 44100 Hz ~ 998ms
	if info.Duration < 990*time.Millisecond || info.Duration > 1010*time.Millisecond {
		t.Errorf("Duration = %v, want ~998ms", info.Duration)
	}
}

func TestReadAudioInfo_InvalidStreams(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
	}{
		{"text in aac", "bad.aac", []byte("definitely not audio")},
		{"text in ogg", "bad.ogg", []byte("definitely not audio")},
		{"empty opus", "empty.opus", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, tt.data, 0o600); err != nil {
				t.Fatalf("create file: %v", err)
			}

			_, err := ReadAudioInfo(path)
			if !errors.Is(err, ErrInvalidAudio) {
				t.Errorf("ReadAudioInfo() error = %v, want ErrInvalidAudio", err)
			}
		})
	}
}

func TestReadAudioInfo_FLAC(t *testing.T) {
	dir := t.TempDir()

	info, err := ReadAudioInfo(createStubFLAC(t, dir, "ok.flac", nil, true))
	if err != nil {
		t.Fatalf("ReadAudioInfo() error: %v", err)
	}
	assertEqual(t, "Format", info.Format, "FLAC")
	assertEqual(t, "SampleRate", info.SampleRate, 44100)
	assertEqual(t, "Duration", info.Duration, time.Second)

	_, err = ReadAudioInfo(createStubFLAC(t, dir, "cut.flac", nil, false))
	if !errors.Is(err, ErrInvalidAudio) {
		t.Errorf("truncated: error = %v, want ErrInvalidAudio", err)
	}
}

func TestReadAudioInfo_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o600); err != nil {
		t.Fatalf("create file: %v", err)
	}

	_, err := ReadAudioInfo(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ReadAudioInfo() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestReadAudioInfo_Duration(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		file   string
		codec  string
		format string
	}{
		{"Opus", "a.opus", "libopus", "OPUS"},
		{"Vorbis", "a.ogg", "libvorbis", "VORBIS"},
		{"FLAC", "a.flac", "flac", "FLAC"},
		{"M4A", "a.m4a", "aac", "AAC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := createWithFFmpeg(t, dir, tt.file, tt.codec)

			info, err := ReadAudioInfo(path)
			if err != nil {
				t.Fatalf("ReadAudioInfo() error: %v", err)
			}

			assertEqual(t, "Format", info.Format, tt.format)
			// Test files are 1s long
			if info.Duration < 900*time.Millisecond || info.Duration > 1100*time.Millisecond {
				t.Errorf("Duration = %v, want approximately 1s", info.Duration)
			}
		})
	}
}
