// Package main hosts the kdvd CLI entrypoint and command graph.
//
// The Cobra-based command tree opens 8KDVD disc trees directly for
// inspection and stream selection, maintains the scan history database,
// scaffolds configuration, and talks to a running kdvdd over its HTTP API for
// status and detection control. Configuration resolution and logger setup
// live in the shared command context so subcommands stay declarative.
package main
