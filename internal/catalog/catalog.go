package catalog

import (
	"errors"
	"fmt"
	"log/slog"

	"kdvd/internal/logging"
	"kdvd/internal/stream"
)

// DefaultWorkers bounds concurrent availability checks.
const DefaultWorkers = 4

// ErrNoAvailableStream reports that no available descriptor matches a format.
var ErrNoAvailableStream = errors.New("no available stream")

const noSelection = -1

// Catalog holds the classified descriptors of one disc in manifest order,
// keyed by filename. It is not safe for concurrent mutation; callers populate
// it once and then query it.
type Catalog struct {
	// Workers bounds concurrent availability checks. Values <= 0 use
	// DefaultWorkers.
	Workers int

	logger  *slog.Logger
	entries []stream.Descriptor
	index   map[string]int
	current int
}

// New constructs an empty catalog.
func New(logger *slog.Logger) *Catalog {
	return &Catalog{
		Workers: DefaultWorkers,
		logger:  logging.NewComponentLogger(logger, "catalog"),
		index:   make(map[string]int),
		current: noSelection,
	}
}

// Ingest replaces the catalog contents wholesale. Availability flags are
// reset and any recorded selection is dropped. Repeated filenames keep their
// first occurrence.
func (c *Catalog) Ingest(descriptors []stream.Descriptor) {
	c.entries = make([]stream.Descriptor, 0, len(descriptors))
	c.index = make(map[string]int, len(descriptors))
	c.current = noSelection

	for _, d := range descriptors {
		if d.Filename == "" || !d.Format.Known() {
			continue
		}
		if _, dup := c.index[d.Filename]; dup {
			continue
		}
		d.Available = false
		c.index[d.Filename] = len(c.entries)
		c.entries = append(c.entries, d)
	}

	c.logger.Debug("catalog ingested", logging.Int("streams", len(c.entries)))
}

// FindAvailable returns the index of the first descriptor, in ingestion
// order, whose format matches and whose file is available.
func (c *Catalog) FindAvailable(format stream.Format) (int, bool) {
	for i, d := range c.entries {
		if d.Format == format && d.Available {
			return i, true
		}
	}
	return 0, false
}

// Select records the first available descriptor of format as the current
// selection.
func (c *Catalog) Select(format stream.Format) (stream.Descriptor, error) {
	idx, ok := c.FindAvailable(format)
	if !ok {
		return stream.Descriptor{}, fmt.Errorf("%w for format %s", ErrNoAvailableStream, format)
	}
	c.current = idx
	return c.entries[idx], nil
}

// Current returns the descriptor recorded by the last successful Select.
func (c *Catalog) Current() (stream.Descriptor, bool) {
	if c.current < 0 || c.current >= len(c.entries) {
		return stream.Descriptor{}, false
	}
	return c.entries[c.current], true
}

// Lookup returns the descriptor for filename.
func (c *Catalog) Lookup(filename string) (stream.Descriptor, bool) {
	idx, ok := c.index[filename]
	if !ok {
		return stream.Descriptor{}, false
	}
	return c.entries[idx], true
}

// Descriptors returns a copy of the catalog in ingestion order.
func (c *Catalog) Descriptors() []stream.Descriptor {
	out := make([]stream.Descriptor, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of catalogued descriptors.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Reset drops every descriptor and the selection.
func (c *Catalog) Reset() {
	c.entries = nil
	c.index = make(map[string]int)
	c.current = noSelection
}

// FormatSummary counts descriptors for one tier.
type FormatSummary struct {
	Format    stream.Format `json:"format"`
	Total     int           `json:"total"`
	Available int           `json:"available"`
}

// Summary reports per-tier totals for every known tier, in table order.
func (c *Catalog) Summary() []FormatSummary {
	return Summarize(c.entries)
}

// Summarize reports per-tier totals for descriptors.
func Summarize(descriptors []stream.Descriptor) []FormatSummary {
	formats := stream.Formats()
	out := make([]FormatSummary, len(formats))
	pos := make(map[stream.Format]int, len(formats))
	for i, f := range formats {
		out[i].Format = f
		pos[f] = i
	}
	for _, d := range descriptors {
		i, ok := pos[d.Format]
		if !ok {
			continue
		}
		out[i].Total++
		if d.Available {
			out[i].Available++
		}
	}
	return out
}
