// Package fingerprint computes deterministic fingerprints for 8KDVD discs and
// resolves where an optical drive is mounted.
//
// The disc fingerprint is a SHA-256 over the playlist files and the stream
// directory listing; it keys the scan history. CatalogFingerprint hashes the
// parsed stream metadata instead, so identical authoring on different
// pressings can be matched.
package fingerprint
