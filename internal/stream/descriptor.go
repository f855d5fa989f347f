package stream

import (
	"fmt"
	"path/filepath"
)

// TierDefaults holds the technical metadata assumed for a tier when the
// manifest does not declare its own.
type TierDefaults struct {
	BandwidthBps int64
	Width        int
	Height       int
}

var tierDefaults = map[Format]TierDefaults{
	Tier8K: {BandwidthBps: 100_000_000, Width: 7680, Height: 4320},
	Tier4K: {BandwidthBps: 20_000_000, Width: 3840, Height: 2160},
	TierHD: {BandwidthBps: 10_000_000, Width: 1920, Height: 1080},
	Tier3D: {BandwidthBps: 20_000_000, Width: 3840, Height: 2160},
}

// Defaults returns the tier defaults for f. Unknown yields the zero value.
func (f Format) Defaults() TierDefaults {
	return tierDefaults[f]
}

// Descriptor is one classified, manifest-referenced media file.
type Descriptor struct {
	Filename     string `json:"filename"`
	Format       Format `json:"format"`
	BandwidthBps int64  `json:"bandwidth_bps"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Codecs       string `json:"codecs,omitempty"`
	// Declared is true when bandwidth or resolution came from the manifest
	// rather than the tier defaults.
	Declared  bool `json:"declared"`
	Available bool `json:"available"`
}

// NewDescriptor builds an unavailable descriptor with tier defaults applied.
func NewDescriptor(filename string, format Format) Descriptor {
	d := format.Defaults()
	return Descriptor{
		Filename:     filename,
		Format:       format,
		BandwidthBps: d.BandwidthBps,
		Width:        d.Width,
		Height:       d.Height,
	}
}

// Resolution renders WxH.
func (d Descriptor) Resolution() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Handle is the read-only view of a descriptor handed to demuxers. The
// demuxer opens Path itself; the catalog never reads media payload.
type Handle struct {
	Filename     string `json:"filename"`
	Path         string `json:"path"`
	Format       Format `json:"format"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	BandwidthBps int64  `json:"bandwidth_bps"`
	Codecs       string `json:"codecs,omitempty"`
	Available    bool   `json:"available"`
}

// HandleFor builds a handle for d rooted at streamDir.
func HandleFor(d Descriptor, streamDir string) Handle {
	h := Handle{
		Filename:     d.Filename,
		Format:       d.Format,
		Width:        d.Width,
		Height:       d.Height,
		BandwidthBps: d.BandwidthBps,
		Codecs:       d.Codecs,
		Available:    d.Available,
	}
	if streamDir != "" {
		h.Path = filepath.Join(streamDir, d.Filename)
	}
	return h
}
