// Package fingerprint computes acoustic fingerprints with the chromaprint
// fpcalc tool.
package fingerprint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/tagwiz/internal/tags"
)

// DefaultTimeout bounds a single fpcalc execution.
const DefaultTimeout = 30 * time.Second

var (
	// ErrFpcalcNotFound is returned when the fpcalc binary cannot be located.
	ErrFpcalcNotFound = errors.New("fpcalc not found")
	// ErrFingerprintFailed is returned when fpcalc runs but yields nothing usable.
	ErrFingerprintFailed = errors.New("fingerprint generation failed")
)

// Fingerprint is the acoustic signature of one file.
type Fingerprint struct {
	Value    string
	Duration float64 // seconds
}

// Seconds returns the duration rounded to whole seconds.
func (f Fingerprint) Seconds() int {
	return int(math.Round(f.Duration))
}

// ProbeError reports why a file could not be fingerprinted.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// fpcalcOutput is the JSON printed by fpcalc -json.
type fpcalcOutput struct {
	Duration    float64 `json:"duration"`
	Fingerprint string  `json:"fingerprint"`
}

// Prober runs fpcalc on audio files.
type Prober struct {
	fpcalcPath string
	timeout    time.Duration
	log        logrus.FieldLogger

	// inspect validates the audio stream before fpcalc is spawned.
	inspect func(path string) (*tags.AudioInfo, error)
}

// NewProber creates a prober. An empty fpcalcPath looks up "fpcalc" in PATH.
func NewProber(fpcalcPath string, timeout time.Duration, log logrus.FieldLogger) *Prober {
	if fpcalcPath == "" {
		fpcalcPath = "fpcalc"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		fpcalcPath: fpcalcPath,
		timeout:    timeout,
		log:        log,
		inspect:    tags.ReadAudioInfo,
	}
}

// Probe fingerprints the file at path. Every failure is a *ProbeError;
// nothing is retried.
func (p *Prober) Probe(ctx context.Context, path string) (Fingerprint, error) {
	if !tags.IsSupported(path) {
		return Fingerprint{}, &ProbeError{Path: path, Err: tags.ErrUnsupportedFormat}
	}

	info, err := p.inspect(path)
	if err != nil {
		return Fingerprint{}, &ProbeError{Path: path, Err: err}
	}

	fp, err := p.run(ctx, path)
	if err != nil {
		return Fingerprint{}, &ProbeError{Path: path, Err: err}
	}
	if fp.Duration <= 0 {
		fp.Duration = info.Duration.Seconds()
	}

	p.log.WithFields(logrus.Fields{
		"format":   info.Format,
		"duration": fp.Seconds(),
	}).Debug("Generated fingerprint")

	return fp, nil
}

func (p *Prober) run(ctx context.Context, path string) (Fingerprint, error) {
	bin, err := exec.LookPath(p.fpcalcPath)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: %s", ErrFpcalcNotFound, p.fpcalcPath)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, "-json", path)
	output, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Fingerprint{}, fmt.Errorf("%w: timeout after %v", ErrFingerprintFailed, p.timeout)
		}
		if ctx.Err() != nil {
			return Fingerprint{}, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			return Fingerprint{}, fmt.Errorf("%w: %w: %s", ErrFingerprintFailed, err, stderr)
		}
		return Fingerprint{}, fmt.Errorf("%w: %w", ErrFingerprintFailed, err)
	}

	var out fpcalcOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return Fingerprint{}, fmt.Errorf("%w: parse fpcalc output: %w", ErrFingerprintFailed, err)
	}
	if out.Fingerprint == "" {
		return Fingerprint{}, fmt.Errorf("%w: empty fingerprint", ErrFingerprintFailed)
	}

	return Fingerprint{Value: out.Fingerprint, Duration: out.Duration}, nil
}
