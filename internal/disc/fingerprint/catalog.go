package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"kdvd/internal/stream"
)

// CatalogFingerprint hashes the technical metadata of a catalogue in manifest
// order. Availability and the disc root are excluded so the same authored
// content matches across copies and mounts.
func CatalogFingerprint(descriptors []stream.Descriptor) string {
	h := sha256.New()
	for _, d := range descriptors {
		writeComponent(h, d.Filename)
		writeComponent(h, d.Format.String())
		writeComponent(h, strconv.FormatInt(d.BandwidthBps, 10))
		writeComponent(h, strconv.Itoa(d.Width))
		writeComponent(h, strconv.Itoa(d.Height))
		writeComponent(h, strings.ToLower(strings.TrimSpace(d.Codecs)))
	}
	return hex.EncodeToString(h.Sum(nil))
}
