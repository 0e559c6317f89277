package fingerprint

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/tagwiz/internal/tags"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeFpcalc writes a shell script standing in for fpcalc.
func fakeFpcalc(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "fpcalc")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func audioFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o600))
	return path
}

func newTestProber(fpcalc string, timeout time.Duration) *Prober {
	p := NewProber(fpcalc, timeout, quietLogger())
	p.inspect = func(string) (*tags.AudioInfo, error) {
		return &tags.AudioInfo{Format: "FLAC", Duration: 215 * time.Second}, nil
	}
	return p
}

func TestProbe_Success(t *testing.T) {
	bin := fakeFpcalc(t, `echo '{"duration": 214.6, "fingerprint": "AQADtEmUaEkS"}'`)
	p := newTestProber(bin, time.Second)

	fp, err := p.Probe(context.Background(), audioFile(t, "track.flac"))

	require.NoError(t, err)
	assert.Equal(t, "AQADtEmUaEkS", fp.Value)
	assert.InDelta(t, 214.6, fp.Duration, 0.001)
	assert.Equal(t, 215, fp.Seconds())
}

func TestProbe_DurationFallsBackToStreamInfo(t *testing.T) {
	bin := fakeFpcalc(t, `echo '{"fingerprint": "AQAD"}'`)
	p := newTestProber(bin, time.Second)

	fp, err := p.Probe(context.Background(), audioFile(t, "track.flac"))

	require.NoError(t, err)
	assert.Equal(t, 215, fp.Seconds())
}

func TestProbe_Failures(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		wantErr error
	}{
		{"non-zero exit", `echo "ERROR: Could not open the input file" >&2; exit 2`, ErrFingerprintFailed},
		{"empty fingerprint", `echo '{"duration": 10, "fingerprint": ""}'`, ErrFingerprintFailed},
		{"garbage output", `echo 'not json'`, ErrFingerprintFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProber(fakeFpcalc(t, tt.script), time.Second)
			path := audioFile(t, "track.mp3")

			_, err := p.Probe(context.Background(), path)

			var probeErr *ProbeError
			require.ErrorAs(t, err, &probeErr)
			assert.Equal(t, path, probeErr.Path)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProbe_Timeout(t *testing.T) {
	p := newTestProber(fakeFpcalc(t, "exec sleep 5"), 100*time.Millisecond)

	start := time.Now()
	_, err := p.Probe(context.Background(), audioFile(t, "track.ogg"))

	require.ErrorIs(t, err, ErrFingerprintFailed)
	assert.Contains(t, err.Error(), "timeout")
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestProbe_MissingBinary(t *testing.T) {
	p := newTestProber(filepath.Join(t.TempDir(), "no-fpcalc"), time.Second)

	_, err := p.Probe(context.Background(), audioFile(t, "track.mp3"))

	assert.ErrorIs(t, err, ErrFpcalcNotFound)
}

func TestProbe_UnsupportedFormat(t *testing.T) {
	p := newTestProber("fpcalc", time.Second)

	_, err := p.Probe(context.Background(), audioFile(t, "track.wav"))

	var probeErr *ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.ErrorIs(t, err, tags.ErrUnsupportedFormat)
}

func TestProbe_InvalidAudioSkipsFpcalc(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "called")
	p := newTestProber(fakeFpcalc(t, "touch "+marker), time.Second)
	p.inspect = func(string) (*tags.AudioInfo, error) {
		return nil, tags.ErrInvalidAudio
	}

	_, err := p.Probe(context.Background(), audioFile(t, "track.mp3"))

	require.ErrorIs(t, err, tags.ErrInvalidAudio)
	_, statErr := os.Stat(marker)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "fpcalc must not run on invalid audio")
}

func TestNewProber_Defaults(t *testing.T) {
	p := NewProber("", 0, quietLogger())

	assert.Equal(t, "fpcalc", p.fpcalcPath)
	assert.Equal(t, DefaultTimeout, p.timeout)
}
