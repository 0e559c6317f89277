package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/tagwiz/internal/deps"
)

func withCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("ACOUSTID_API_KEY", "test-key")
	t.Setenv("EMAIL_ADDRESS", "tagwiz@example.com")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_MissingCredentialsIsFatal(t *testing.T) {
	t.Setenv("ACOUSTID_API_KEY", "")
	t.Setenv("EMAIL_ADDRESS", "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mp3"), nil, 0o644))

	_, err := execute(t, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to validate configuration")
	assert.Contains(t, err.Error(), "ACOUSTID_API_KEY")
}

func TestRoot_ThresholdOutOfRangeIsFatal(t *testing.T) {
	withCredentials(t)
	t.Setenv("TAGWIZ_MATCH_MIN", "1.5")

	_, err := execute(t, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to validate configuration")
	assert.Contains(t, err.Error(), "match.min")
}

func TestRoot_ScansDirectoryArgument(t *testing.T) {
	withCredentials(t)
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "check"), 0o755))

	// a path named like the subcommand is still a path
	out, err := execute(t, filepath.Join(dir, "check"))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRoot_BadExclude(t *testing.T) {
	withCredentials(t)

	_, err := execute(t, t.TempDir(), "--exclude", "[oops")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to scan folder")
}

func TestRoot_MissingPath(t *testing.T) {
	withCredentials(t)

	_, err := execute(t, filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to scan folder")
}

func TestRoot_NothingToDo(t *testing.T) {
	withCredentials(t)

	out, err := execute(t, t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	withCredentials(t)
	cmd := newRootCommand()
	cmd.SetArgs([]string{t.TempDir(), "--log-level", "loud"})
	assert.ErrorContains(t, cmd.Execute(), "log level")
}

func TestCheck_MissingTool(t *testing.T) {
	withCredentials(t)
	t.Setenv("TAGWIZ_FPCALC_PATH", "tagwiz-no-such-fpcalc")

	out, err := execute(t, "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 required tool(s) missing")
	assert.Contains(t, out, "tagwiz-no-such-fpcalc")
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, "Credentials: configured")
}

func TestRenderStatuses(t *testing.T) {
	out := renderStatuses([]deps.Status{
		{Requirement: deps.Fpcalc("fpcalc"), Available: true, Path: "/usr/bin/fpcalc"},
		{Requirement: deps.Requirement{Name: "Other", Command: "other"}, Detail: `binary "other" not found`},
	})

	assert.Contains(t, out, "Chromaprint")
	assert.Contains(t, out, "/usr/bin/fpcalc")
	assert.Contains(t, out, `binary "other" not found`)
}
