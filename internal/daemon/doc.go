// Package daemon coordinates the long-running kdvdd process.
//
// It wires configuration, the scan history store, Prometheus collectors and
// the udev drive watcher into a single lifecycle with flock-based locking to
// prevent multiple instances. When media appears in the configured drive the
// daemon mounts it if needed, opens the 8KDVD container, fingerprints the
// disc and records the catalogue in the history database.
//
// The HTTP API exposes status, history, on-demand scans and stream selection
// for discs that are already mounted. Keep catalogue logic in the container
// and catalog packages; this package handles startup, shutdown and the glue
// between system events and those packages.
package daemon
