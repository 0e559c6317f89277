package prompt

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/llehouerou/tagwiz/internal/identify"
)

// Terminal asks through a bubbletea program, one program per decision.
type Terminal struct {
	in         io.Reader
	out        io.Writer
	thresholds identify.Thresholds
}

// NewTerminal creates a prompter reading keys from in and drawing on out.
func NewTerminal(in io.Reader, out io.Writer, t identify.Thresholds) *Terminal {
	return &Terminal{in: in, out: out, thresholds: t}
}

// Decide implements identify.Prompter. Closing the program without an
// answer stops the run.
func (t *Terminal) Decide(ctx context.Context, req identify.Request) (identify.Decision, error) {
	m := NewModel(req, t.thresholds)
	prog := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(t.in),
		tea.WithOutput(t.out),
		tea.WithoutSignalHandler(),
	)

	final, err := prog.Run()
	if ctx.Err() != nil {
		return identify.Decision{}, ctx.Err()
	}
	if err != nil {
		return identify.Decision{}, fmt.Errorf("prompt: %w", err)
	}

	if fm, ok := final.(*Model); ok {
		if d, done := fm.Decision(); done {
			return d, nil
		}
	}
	return identify.Decision{Action: identify.ActionStop}, nil
}

// NonInteractive rejects every request. It is used when there is no
// terminal to ask on or the user asked never to be prompted.
type NonInteractive struct {
	log logrus.FieldLogger
}

// NewNonInteractive creates a prompter that never asks.
func NewNonInteractive(log logrus.FieldLogger) *NonInteractive {
	return &NonInteractive{log: log}
}

// Decide implements identify.Prompter.
func (n *NonInteractive) Decide(_ context.Context, req identify.Request) (identify.Decision, error) {
	n.log.WithFields(logrus.Fields{
		"file":       req.Path,
		"state":      req.State,
		"candidates": len(req.Candidates),
	}).Info("Needs confirmation, leaving file untouched")
	return identify.Decision{Action: identify.ActionReject}, nil
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
