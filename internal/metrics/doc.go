// Package metrics defines the Prometheus instrumentation for the
// transcription pipeline, quota ledger, and remote API calls.
package metrics
