// Package server exposes an optional HTTP API for observing a running
// transcription: health, run progress, quota usage, and Prometheus metrics.
package server
