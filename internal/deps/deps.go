package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary kdvd shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DriveRequirements lists the utilities used to mount, label and eject
// optical media. None are needed to catalogue an already mounted disc.
func DriveRequirements() []Requirement {
	return []Requirement{
		{Name: "mount", Command: "mount", Description: "Mounts inserted discs"},
		{Name: "umount", Command: "umount", Description: "Releases discs the daemon mounted"},
		{Name: "lsblk", Command: "lsblk", Description: "Reads volume labels", Optional: true},
		{Name: "eject", Command: "eject", Description: "Ejects discs from the drive", Optional: true},
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
		switch {
		case cmd == "":
			status.Detail = "command not configured"
		default:
			if _, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Available = true
			}
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}
