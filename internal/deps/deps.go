// Package deps reports whether the external tools tagwiz shells out to
// are installed.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement is an external binary tagwiz relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the availability of one requirement.
type Status struct {
	Requirement
	Available bool
	Path      string
	Detail    string
}

// Fpcalc returns the requirement for the chromaprint fingerprinter.
func Fpcalc(command string) Requirement {
	if command == "" {
		command = "fpcalc"
	}
	return Requirement{
		Name:        "Chromaprint",
		Command:     command,
		Description: "computes acoustic fingerprints (fpcalc)",
	}
}

// CheckBinaries resolves every requirement against PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		status := Status{Requirement: req}
		if req.Command == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(req.Command)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", req.Command)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// Missing returns the required entries that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
