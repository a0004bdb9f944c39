package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement is an external binary a configured build will execute.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is a Requirement plus the result of looking it up on PATH.
// Detail holds the resolved path when Available, otherwise the reason.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// CheckBinaries resolves every requirement against PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		results = append(results, resolve(req))
	}
	return results
}

func resolve(req Requirement) Status {
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := lookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found on PATH", req.Command)
		return status
	}
	status.Available = true
	status.Detail = path
	return status
}

// MissingRequired filters statuses down to unavailable, non-optional ones.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
