// Package container is the demuxer-facing entry point for an 8KDVD disc. A
// Context opens a disc root, catalogues the streams its manifest lists,
// checks which stream files are present and hands out read-only handles for
// the selected tier. Media payload is never read here.
//
// Errors are sentinel-wrapped and carry a kind through ErrorKind:
// "manifest" for an unreadable playlist, "state" for calls outside the
// Opened state, and "unavailable" when a tier has nothing to play.
package container
