// Package logging configures the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string    // panic, fatal, error, warn, info, debug or trace; default info
	Output io.Writer // default stderr
}

// New constructs a text logger with full timestamps.
func New(opts Options) (*logrus.Logger, error) {
	level := logrus.InfoLevel
	if s := strings.TrimSpace(opts.Level); s != "" {
		var err error
		level, err = logrus.ParseLevel(s)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l, nil
}

// ForRun returns an entry tagged with a fresh run id, so lines of
// separate invocations can be told apart in a shared log.
func ForRun(l logrus.FieldLogger) *logrus.Entry {
	return l.WithField("run", NewRunID())
}

// NewRunID returns a short random identifier.
func NewRunID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Discard returns a logger that writes nowhere.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
