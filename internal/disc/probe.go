package disc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"kdvd/internal/catalog"
	"kdvd/internal/config"
	"kdvd/internal/container"
	"kdvd/internal/disc/fingerprint"
	"kdvd/internal/logging"
	"kdvd/internal/stream"
)

// Report summarizes one catalogued disc.
type Report struct {
	Fingerprint string                  `json:"fingerprint"`
	CatalogHash string                  `json:"catalog_hash"`
	Root        string                  `json:"root"`
	Label       string                  `json:"label,omitempty"`
	SessionID   string                  `json:"session_id"`
	ScannedAt   time.Time               `json:"scanned_at"`
	Streams     []stream.Descriptor     `json:"streams"`
	Summary     []catalog.FormatSummary `json:"summary"`
}

// Available counts streams whose files are present.
func (r *Report) Available() int {
	n := 0
	for _, s := range r.Streams {
		if s.Available {
			n++
		}
	}
	return n
}

// HasLayout reports whether root carries the 8KDVD playlist and stream
// directories.
func HasLayout(root string) bool {
	layout := container.LayoutFor(root)
	for _, dir := range []string{layout.PlaylistDir, layout.StreamDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return false
		}
	}
	return true
}

// ContainerOptions maps configuration onto container options. A zero
// max_streams lifts the catalogue cap.
func ContainerOptions(cfg *config.Config, logger *slog.Logger) container.Options {
	opts := container.Options{Logger: logger}
	if cfg == nil {
		return opts
	}
	opts.MaxStreams = cfg.Manifest.MaxStreams
	if opts.MaxStreams == 0 {
		opts.MaxStreams = -1
	}
	opts.TierDefaultsOnly = cfg.Manifest.TierDefaultsOnly
	opts.Workers = cfg.Catalog.AvailabilityWorkers
	return opts
}

// fingerprintTimeout bounds hashing of slow optical media.
const fingerprintTimeout = 30 * time.Second

// Inspect opens root, catalogues its streams and fingerprints the disc. The
// container is closed before returning.
func Inspect(ctx context.Context, root string, opts container.Options) (*Report, error) {
	logger := logging.NewComponentLogger(opts.Logger, "disc")

	c, err := container.Open(ctx, root, opts)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	descriptors, err := c.Descriptors()
	if err != nil {
		return nil, err
	}
	summary, err := c.Summary()
	if err != nil {
		return nil, err
	}

	fp, err := fingerprint.ComputeTimeout(ctx, c.Root(), fingerprintTimeout)
	if err != nil {
		return nil, fmt.Errorf("fingerprint %s: %w", c.Root(), err)
	}

	report := &Report{
		Fingerprint: fp,
		CatalogHash: fingerprint.CatalogFingerprint(descriptors),
		Root:        c.Root(),
		SessionID:   c.SessionID(),
		ScannedAt:   time.Now().UTC(),
		Streams:     descriptors,
		Summary:     summary,
	}
	logger.Info("disc inspected",
		logging.String(logging.FieldEventType, "disc_inspected"),
		logging.String(logging.FieldSessionID, report.SessionID),
		logging.String("fingerprint", fp),
		logging.Int("streams", len(descriptors)),
		logging.Int("available", report.Available()))
	return report, nil
}
