package daemon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kdvd/internal/container"
	"kdvd/internal/disc"
	"kdvd/internal/history"
	"kdvd/internal/logging"
	"kdvd/internal/metrics"
	"kdvd/internal/stream"
)

// DiscResult describes what happened to a detected disc.
type DiscResult struct {
	Handled     bool   `json:"handled"`
	Message     string `json:"message"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Selection is the outcome of a stream selection request.
type Selection struct {
	Root   string        `json:"root"`
	Format string        `json:"format"`
	Stream stream.Handle `json:"stream"`
}

// HandleDevice waits for the drive, mounts the medium when needed and
// catalogues it. A disc without the 8KDVD layout is reported as not handled.
func (d *Daemon) HandleDevice(ctx context.Context, device string) (*DiscResult, error) {
	if err := d.waitForDrive(ctx, device); err != nil {
		return nil, fmt.Errorf("wait for %s: %w", device, err)
	}

	mountPoint, weMounted, err := d.mount(ctx, device)
	if err != nil {
		return nil, err
	}
	if weMounted {
		defer d.unmount(context.WithoutCancel(ctx), device)
	}

	if !disc.HasLayout(mountPoint) {
		return &DiscResult{Message: "no 8KDVD_TS layout at " + mountPoint}, nil
	}

	label := d.readLabel(ctx, device)
	entry, err := d.catalogue(ctx, mountPoint, label)
	if err != nil {
		return nil, err
	}
	return &DiscResult{
		Handled:     true,
		Message:     fmt.Sprintf("catalogued %d streams (%d available)", entry.StreamCount, entry.AvailableCount),
		Fingerprint: entry.Fingerprint,
	}, nil
}

// HandleDisc catalogues an already mounted disc root and records it in the
// scan history.
func (d *Daemon) HandleDisc(ctx context.Context, root string) (*history.Entry, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = d.cfg.Paths.DiscRoot
	}
	if root == "" {
		return nil, errors.New("no disc root given and paths.disc_root is unset")
	}
	return d.catalogue(ctx, root, "")
}

func (d *Daemon) catalogue(ctx context.Context, root, label string) (*history.Entry, error) {
	d.scanMu.Lock()
	defer d.scanMu.Unlock()

	start := time.Now()
	report, err := disc.Inspect(ctx, root, disc.ContainerOptions(d.cfg, d.logger))
	elapsed := time.Since(start).Seconds()
	if err != nil {
		result := metrics.ResultError
		if container.KindOf(err) == container.KindManifest {
			result = metrics.ResultManifestUnreadable
		}
		d.metrics.RecordOpen(result, elapsed)
		return nil, err
	}
	d.metrics.RecordOpen(metrics.ResultOK, elapsed)
	d.metrics.SetCatalog(report.Summary)

	report.Label = label
	entry, err := d.store.Record(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("record scan: %w", err)
	}
	d.refreshHistoryGauge(ctx)

	d.lastMu.Lock()
	d.last = entry
	d.lastMu.Unlock()

	d.logger.Info("disc catalogued",
		logging.String(logging.FieldEventType, "disc_catalogued"),
		logging.String("fingerprint", entry.Fingerprint),
		logging.String(logging.FieldDiscRoot, entry.Root),
		logging.Int("scan_count", entry.ScanCount),
		logging.Int("streams", entry.StreamCount),
		logging.Int("available", entry.AvailableCount))
	return entry, nil
}

// Select opens root and picks the first available stream of format.
func (d *Daemon) Select(ctx context.Context, root string, format stream.Format) (*Selection, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = d.cfg.Paths.DiscRoot
	}
	if root == "" {
		return nil, errors.New("no disc root given and paths.disc_root is unset")
	}

	c, err := container.Open(ctx, root, disc.ContainerOptions(d.cfg, d.logger))
	if err != nil {
		return nil, err
	}
	defer c.Close()

	handle, err := c.Select(format)
	if err != nil {
		d.metrics.RecordSelection(format.String(), metrics.SelectionUnavailable)
		return nil, err
	}
	d.metrics.RecordSelection(format.String(), metrics.SelectionSelected)
	return &Selection{Root: c.Root(), Format: format.String(), Stream: handle}, nil
}
