// Package stream defines the 8KDVD stream taxonomy: the tier enumeration,
// extension classification, per-tier defaults, and the Descriptor and Handle
// records shared by the manifest scanner, catalog, and container layers.
package stream
