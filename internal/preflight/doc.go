// Package preflight provides readiness checks for the filesystem paths and
// system utilities kdvd depends on.
//
// `kdvd config validate` runs RunAll and prints each result. Disc and drive
// checks are skipped when no disc root or optical drive is configured; an
// empty drive is reported as an optional failure.
package preflight
