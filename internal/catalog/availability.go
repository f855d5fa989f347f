package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"

	"kdvd/internal/logging"
)

// fileReadable is swapped in tests.
var fileReadable = regularReadable

// CheckAvailability marks each descriptor available when streamDir/filename
// is a regular file the process can read. Every descriptor is checked
// independently; a missing file never stops the pass. When ctx is cancelled
// the descriptors not yet checked stay unavailable.
func (c *Catalog) CheckAvailability(ctx context.Context, streamDir string) {
	if ctx == nil {
		ctx = context.Background()
	}
	for i := range c.entries {
		c.entries[i].Available = false
	}
	if len(c.entries) == 0 {
		return
	}

	workers := c.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(c.entries) {
		workers = len(c.entries)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				// Each worker writes only the index it was handed.
				c.entries[i].Available = fileReadable(filepath.Join(streamDir, c.entries[i].Filename))
			}
		}()
	}

feed:
	for i := range c.entries {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	available := 0
	for _, d := range c.entries {
		if d.Available {
			available++
			continue
		}
		c.logger.Debug("stream file unavailable",
			logging.String("filename", d.Filename),
			logging.String("format", d.Format.String()))
	}
	c.logger.Info("stream availability checked",
		logging.String("stream_dir", streamDir),
		logging.Int("streams", len(c.entries)),
		logging.Int("available", available))
}

func regularReadable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return unix.Access(path, unix.R_OK) == nil
}
