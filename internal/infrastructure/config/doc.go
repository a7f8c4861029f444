// Package config loads and validates Homedeck configuration.
//
// Configuration is layered: hardcoded defaults, then the YAML file, then
// HOMEDECK_* environment variable overrides. Load returns a validated
// *Config; invalid configurations fail fast at startup rather than at
// first use.
//
// Timing values for panel UI behaviour (debounce interval, toast
// durations) live here too so tests and deployments can tune them
// without code changes.
package config
