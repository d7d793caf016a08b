// Package deps reports external binaries cddasrc can fall back on.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external dependency.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries used at runtime. Ripping itself needs
// none; eject(1) is only tried when the CDROMEJECT ioctl fails.
func Requirements() []Requirement {
	return []Requirement{
		{
			Name:        "eject",
			Command:     "eject",
			Description: "Fallback for drives that reject the eject ioctl",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Command = path
		results = append(results, status)
	}
	return results
}
