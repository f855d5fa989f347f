package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

const (
	titleDir    = "8KDVD_TS"
	playlistDir = "PLAYLIST"
	streamDir   = "STREAM"
)

// ErrNoPlaylist reports a root without any file under 8KDVD_TS/PLAYLIST.
var ErrNoPlaylist = errors.New("no playlist files to fingerprint")

// Compute returns a deterministic fingerprint for the disc mounted at root.
//
// 8KDVD discs hash every playlist file in full plus the name and size of each
// stream file, never stream payload.
func Compute(ctx context.Context, root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("stat disc root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("disc root %q is not a directory", root)
	}

	return computeDiscFingerprint(ctx, root)
}

// ComputeTimeout wraps Compute with a deadline to avoid blocking indefinitely
// on slow media. The default timeout is 30 seconds.
func ComputeTimeout(ctx context.Context, root string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return Compute(ctx, root)
}

func computeDiscFingerprint(ctx context.Context, base string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	playlists, err := listFiles(filepath.Join(base, titleDir, playlistDir))
	if err != nil || len(playlists) == 0 {
		return "", ErrNoPlaylist
	}
	streams, _ := listFiles(filepath.Join(base, titleDir, streamDir))

	h := sha256.New()
	for _, name := range playlists {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rel := filepath.ToSlash(filepath.Join(titleDir, playlistDir, name))
		abs := filepath.Join(base, titleDir, playlistDir, name)
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", rel, err)
		}
		if err := appendFileToHash(h, abs, rel, info.Size()); err != nil {
			return "", err
		}
	}
	for _, name := range streams {
		rel := filepath.ToSlash(filepath.Join(titleDir, streamDir, name))
		info, err := os.Stat(filepath.Join(base, titleDir, streamDir, name))
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", rel, err)
		}
		writeComponent(h, rel)
		writeComponent(h, strconv.FormatInt(info.Size(), 10))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// listFiles returns the sorted names of regular entries in dir.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func appendFileToHash(h hash.Hash, abs, rel string, size int64) error {
	writeComponent(h, rel)
	writeComponent(h, strconv.FormatInt(size, 10))

	file, err := os.Open(abs)
	if err != nil {
		return fmt.Errorf("open %s: %w", rel, err)
	}
	defer file.Close()

	if _, err := io.Copy(h, file); err != nil {
		return fmt.Errorf("hash %s: %w", rel, err)
	}
	_, _ = h.Write([]byte{0})
	return nil
}

func writeComponent(w io.Writer, value string) {
	_, _ = w.Write([]byte(value))
	_, _ = w.Write([]byte{0})
}
