package disc

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// lsblkOutput is swapped in tests.
var lsblkOutput = func(ctx context.Context, device string) ([]byte, error) {
	return exec.CommandContext(ctx, "lsblk", "-P", "-o", "LABEL,FSTYPE", device).Output()
}

// ReadLabel returns the volume label lsblk reports for device.
func ReadLabel(ctx context.Context, device string, timeout time.Duration) (string, error) {
	device = strings.TrimSpace(device)
	if device == "" {
		return "", fmt.Errorf("no device specified")
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	output, err := lsblkOutput(ctx, device)
	if err != nil {
		return "", fmt.Errorf("failed to run lsblk: %w", err)
	}

	label, fstype := ParseLSBLKLabelFSType(string(output))
	if strings.TrimSpace(label) != "" && strings.TrimSpace(fstype) != "" {
		return label, nil
	}
	return "", fmt.Errorf("no disc label found")
}

// ParseLSBLKLabelFSType parses lsblk -P output and returns the first
// LABEL/FSTYPE pair. Quoted values may contain spaces.
func ParseLSBLKLabelFSType(output string) (string, string) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		data := parseLSBLKPairs(line)
		if len(data) == 0 {
			continue
		}
		return data["LABEL"], data["FSTYPE"]
	}
	return "", ""
}

func parseLSBLKPairs(line string) map[string]string {
	result := make(map[string]string)
	for line != "" {
		line = strings.TrimLeft(line, " \t")
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			break
		}
		key := line[:eq]
		rest := line[eq+1:]
		var value string
		if strings.HasPrefix(rest, `"`) {
			end := strings.IndexByte(rest[1:], '"')
			if end < 0 {
				value, line = rest[1:], ""
			} else {
				value, line = rest[1:end+1], rest[end+2:]
			}
		} else {
			sp := strings.IndexAny(rest, " \t")
			if sp < 0 {
				value, line = rest, ""
			} else {
				value, line = rest[:sp], rest[sp:]
			}
		}
		result[key] = value
	}
	return result
}
