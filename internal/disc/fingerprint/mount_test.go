package fingerprint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func useMounts(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mounts")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write mounts: %v", err)
	}
	orig := mountsPath
	mountsPath = path
	t.Cleanup(func() { mountsPath = orig })
}

func noFallbacks(t *testing.T) {
	t.Helper()
	orig := FallbackMountPoints
	FallbackMountPoints = nil
	t.Cleanup(func() { FallbackMountPoints = orig })
}

func stubCommands(t *testing.T, fn func(name string) error) *[]string {
	t.Helper()
	var calls []string
	orig := runCommand
	runCommand = func(_ context.Context, name string, _ ...string) error {
		calls = append(calls, name)
		return fn(name)
	}
	t.Cleanup(func() { runCommand = orig })
	return &calls
}

func TestResolveMountPointDecodesEscapes(t *testing.T) {
	useMounts(t, strings.Join([]string{
		"proc /proc proc rw 0 0",
		"/dev/sr1 /media/other udf ro 0 0",
		`/dev/sr0 /media/My\040Disc udf ro 0 0`,
	}, "\n"))

	got, err := ResolveMountPoint("/dev/sr0")
	if err != nil {
		t.Fatalf("ResolveMountPoint: %v", err)
	}
	if got != "/media/My Disc" {
		t.Fatalf("mount point = %q", got)
	}
}

func TestResolveMountPointNotFound(t *testing.T) {
	useMounts(t, "/dev/sda1 / ext4 rw 0 0\n")
	if _, err := ResolveMountPoint("/dev/sr9"); !errors.Is(err, ErrMountNotFound) {
		t.Fatalf("expected ErrMountNotFound, got %v", err)
	}
}

func TestDecodeMountField(t *testing.T) {
	if got := decodeMountField(`a\040b\011c\134d`); got != "a b\tc\\d" {
		t.Fatalf("decodeMountField = %q", got)
	}
}

func TestEnsureMountAlreadyMounted(t *testing.T) {
	useMounts(t, "/dev/sr0 /media/disc udf ro 0 0\n")
	calls := stubCommands(t, func(string) error { return nil })

	mp, weMounted, err := EnsureMount(context.Background(), nil, "/dev/sr0")
	if err != nil || mp != "/media/disc" || weMounted {
		t.Fatalf("EnsureMount = %q,%v,%v", mp, weMounted, err)
	}
	if len(*calls) != 0 {
		t.Fatalf("expected no commands, got %v", *calls)
	}
}

func TestEnsureMountUsesFallback(t *testing.T) {
	useMounts(t, "")
	fallback := t.TempDir()
	if err := os.MkdirAll(filepath.Join(fallback, "8KDVD_TS"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	orig := FallbackMountPoints
	FallbackMountPoints = []string{filepath.Join(t.TempDir(), "absent"), fallback}
	t.Cleanup(func() { FallbackMountPoints = orig })
	stubCommands(t, func(string) error { return nil })

	mp, weMounted, err := EnsureMount(context.Background(), nil, "/dev/sr0")
	if err != nil || mp != fallback || weMounted {
		t.Fatalf("EnsureMount = %q,%v,%v", mp, weMounted, err)
	}
}

func TestEnsureMountCleansUpWhenMountPointMissing(t *testing.T) {
	useMounts(t, "")
	noFallbacks(t)
	calls := stubCommands(t, func(string) error { return nil })

	_, _, err := EnsureMount(context.Background(), nil, "/dev/sr99")
	if err == nil || !strings.Contains(err.Error(), "mount point not found") {
		t.Fatalf("expected mount point error, got %v", err)
	}
	if len(*calls) != 2 || (*calls)[0] != "mount" || (*calls)[1] != "umount" {
		t.Fatalf("expected [mount umount], got %v", *calls)
	}
}

func TestEnsureMountFailure(t *testing.T) {
	useMounts(t, "")
	noFallbacks(t)
	stubCommands(t, func(string) error { return errors.New("no medium found") })

	_, _, err := EnsureMount(context.Background(), nil, "/dev/sr99")
	if err == nil || !strings.Contains(err.Error(), "mount /dev/sr99") {
		t.Fatalf("expected device in error, got %v", err)
	}
}

func TestUnmountFailureIsLogged(t *testing.T) {
	calls := stubCommands(t, func(string) error { return errors.New("device busy") })
	Unmount(context.Background(), nil, "/dev/sr0")
	if len(*calls) != 1 || (*calls)[0] != "umount" {
		t.Fatalf("expected umount call, got %v", *calls)
	}
}
