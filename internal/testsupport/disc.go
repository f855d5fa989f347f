package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Disc describes an 8KDVD tree to materialize for a test.
type Disc struct {
	// Manifest lines written verbatim to 8KDVD_TS/PLAYLIST/main.m3u8. A nil
	// slice skips writing the manifest.
	Manifest []string
	// Streams are created under 8KDVD_TS/STREAM.
	Streams []string
}

// ReferenceManifest is the canonical two-entry disc manifest with a comment
// and an unrecognized entry.
var ReferenceManifest = []string{
	"#comment",
	"stream/movie.EVO8",
	"stream/movie.EVO4",
	"ignored.txt",
}

// BuildDisc writes the disc under a new temp directory and returns its root.
func BuildDisc(t testing.TB, disc Disc) string {
	t.Helper()
	root := t.TempDir()
	WriteDisc(t, root, disc)
	return root
}

// WriteDisc writes the disc under root.
func WriteDisc(t testing.TB, root string, disc Disc) {
	t.Helper()

	playlist := filepath.Join(root, "8KDVD_TS", "PLAYLIST")
	streams := filepath.Join(root, "8KDVD_TS", "STREAM")
	for _, dir := range []string{playlist, streams} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	if disc.Manifest != nil {
		content := strings.Join(disc.Manifest, "\n") + "\n"
		if err := os.WriteFile(filepath.Join(playlist, "main.m3u8"), []byte(content), 0o644); err != nil {
			t.Fatalf("write manifest: %v", err)
		}
	}
	for i, name := range disc.Streams {
		WriteFile(t, filepath.Join(streams, name), int64(1024*(i+1)))
	}
}
