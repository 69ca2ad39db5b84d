// Package config loads and validates the YAML configuration for the
// transcriber. Every section validates itself so a bad file fails fast at
// startup with a field-level message.
package config
