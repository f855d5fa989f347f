// Package metrics exposes kdvdd's Prometheus collectors.
package metrics
