package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"kdvd/internal/container"
	"kdvd/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiscRoot verifies that root holds a readable 8KDVD playlist. A missing
// disc is reported but optional since the drive may simply be empty.
func CheckDiscRoot(root string) Result {
	const name = "Disc root"
	layout := container.LayoutFor(root)

	info, err := os.Stat(layout.ManifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (no 8KDVD playlist; is a disc mounted?)", layout.Root)}
		}
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: stat: %v)", layout.ManifestPath, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a regular file)", layout.ManifestPath)}
	}
	if err := unix.Access(layout.ManifestPath, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: unreadable: %v)", layout.ManifestPath, err)}
	}
	if info, err := os.Stat(layout.StreamDir); err != nil || !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: missing STREAM directory)", layout.Root)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (playlist readable)", layout.Root)}
}

// CheckDriveDeps reports the utilities the daemon needs to mount and label
// inserted discs.
func CheckDriveDeps(_ context.Context) []Result {
	statuses := deps.CheckBinaries(deps.DriveRequirements())
	out := make([]Result, 0, len(statuses))
	for _, s := range statuses {
		r := Result{Name: s.Name, Passed: s.Available, Optional: s.Optional, Detail: s.Description}
		if !s.Available {
			r.Detail = s.Detail
		}
		out = append(out, r)
	}
	return out
}
