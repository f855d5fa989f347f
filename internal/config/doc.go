// Package config loads, normalizes, and validates kdvd configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the KDVD_DISC_ROOT environment
// fallback. The Config type centralizes every knob the CLI and daemon need:
// state and log directories, manifest scanning limits, availability worker
// counts, drive monitoring, and log output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
