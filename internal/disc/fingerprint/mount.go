package fingerprint

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"kdvd/internal/logging"
)

// ErrMountNotFound reports a device absent from the mount table.
var ErrMountNotFound = errors.New("optical drive mount point not found")

// mountsPath is swapped in tests.
var mountsPath = "/proc/mounts"

// FallbackMountPoints are probed for an 8KDVD tree when the drive is not in
// the mount table, e.g. when a desktop automounter uses a private namespace.
var FallbackMountPoints = []string{"/media/cdrom", "/mnt/cdrom", "/media/8kdvd"}

// runCommand executes a system command. It is a package-level variable so
// tests can replace it with a stub.
var runCommand = func(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// ResolveMountPoint returns where device is mounted according to the kernel
// mount table. Symlinked device paths such as /dev/cdrom are canonicalized.
func ResolveMountPoint(device string) (string, error) {
	f, err := os.Open(mountsPath)
	if err != nil {
		return "", fmt.Errorf("open mounts: %w", err)
	}
	defer f.Close()

	requested, _ := filepath.EvalSymlinks(device)
	if requested == "" {
		requested = device
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		mountDevice := decodeMountField(fields[0])
		mountPath := decodeMountField(fields[1])

		canonical, _ := filepath.EvalSymlinks(mountDevice)
		if canonical == "" {
			canonical = mountDevice
		}

		if sameDevice(requested, canonical) {
			return mountPath, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan mounts: %w", err)
	}
	return "", ErrMountNotFound
}

// EnsureMount returns the mount point for device, mounting it through fstab
// when necessary. weMounted reports whether the caller should Unmount when
// done.
func EnsureMount(ctx context.Context, logger *slog.Logger, device string) (mountPoint string, weMounted bool, err error) {
	logger = logging.NewComponentLogger(logger, "mount")

	mountPoint, err = ResolveMountPoint(device)
	if err != nil && !errors.Is(err, ErrMountNotFound) {
		return "", false, err
	}
	if mountPoint != "" {
		logger.Info("disc already mounted",
			logging.String("decision_type", "mount"),
			logging.String("decision_result", "already_mounted"),
			logging.String("mount_point", mountPoint))
		return mountPoint, false, nil
	}

	if mp := fallbackMountPoint(); mp != "" {
		logger.Info("disc found at fallback mount point",
			logging.String("decision_type", "mount"),
			logging.String("decision_result", "fallback"),
			logging.String("mount_point", mp))
		return mp, false, nil
	}

	logger.Info("mounting disc",
		logging.String("decision_type", "mount"),
		logging.String("decision_result", "auto_mount"),
		logging.String("device", device))
	if err := runCommand(ctx, "mount", device); err != nil {
		return "", false, fmt.Errorf("mount %s: %w", device, err)
	}

	mountPoint, err = ResolveMountPoint(device)
	if err != nil || mountPoint == "" {
		Unmount(ctx, logger, device)
		return "", false, fmt.Errorf("mount %s succeeded but mount point not found", device)
	}

	logger.Info("disc mounted",
		logging.String("mount_point", mountPoint),
		logging.String("device", device))
	return mountPoint, true, nil
}

// Unmount calls umount on device. Failures are logged, not returned.
func Unmount(ctx context.Context, logger *slog.Logger, device string) {
	logger = logging.NewComponentLogger(logger, "mount")
	logger.Info("unmounting disc", logging.String("device", device))
	if err := runCommand(ctx, "umount", device); err != nil {
		logging.WarnWithContext(logger, "failed to unmount disc", "unmount_failed",
			logging.String("device", device),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "disc may still be mounted; manual umount may be needed"),
			logging.String(logging.FieldImpact, "disc remains mounted until manual intervention or eject"))
	}
}

func fallbackMountPoint() string {
	for _, mp := range FallbackMountPoints {
		info, err := os.Stat(filepath.Join(mp, titleDir))
		if err == nil && info.IsDir() {
			return mp
		}
	}
	return ""
}

func decodeMountField(field string) string {
	replacer := strings.NewReplacer(
		"\\040", " ",
		"\\011", "\t",
		"\\012", "\n",
		"\\134", "\\",
	)
	return replacer.Replace(field)
}

func sameDevice(a, b string) bool {
	if a == b {
		return true
	}
	if strings.HasPrefix(a, "/dev/") && strings.HasPrefix(b, "/dev/") {
		return filepath.Base(a) == filepath.Base(b)
	}
	return false
}
