package history

import (
	"time"

	"kdvd/internal/stream"
)

// Entry is the persisted snapshot of one disc, keyed by its fingerprint.
// Rescanning a disc replaces its streams and bumps ScanCount.
type Entry struct {
	Fingerprint    string              `json:"fingerprint"`
	CatalogHash    string              `json:"catalog_hash"`
	Root           string              `json:"root"`
	Label          string              `json:"label,omitempty"`
	SessionID      string              `json:"session_id"`
	StreamCount    int                 `json:"stream_count"`
	AvailableCount int                 `json:"available_count"`
	ScanCount      int                 `json:"scan_count"`
	FirstSeenAt    time.Time           `json:"first_seen_at"`
	ScannedAt      time.Time           `json:"scanned_at"`
	Streams        []stream.Descriptor `json:"streams,omitempty"`
}

const discColumns = "fingerprint, catalog_hash, root, label, session_id, stream_count, available_count, scan_count, first_seen_at, scanned_at"

const streamColumns = "filename, format, bandwidth_bps, width, height, codecs, declared, available"
