// Package history persists catalogue snapshots of scanned discs in SQLite.
//
// Each disc is keyed by its content fingerprint; rescanning replaces the
// stored streams and bumps the scan counter. The database lives at
// <state_dir>/history.db. Schema changes bump schemaVersion; users delete
// the database to adopt them.
package history
