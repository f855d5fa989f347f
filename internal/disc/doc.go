// Package disc bridges physical 8KDVD media and the container catalogue.
//
// It probes a mounted root for the 8KDVD layout, inspects it into a Report
// (catalogue plus fingerprint), reads drive tray state and volume labels,
// and ejects discs. Device quirks stay here so the daemon and CLI deal only
// in roots and reports.
package disc
