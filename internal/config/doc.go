// Package config loads, normalizes, and validates Clarion configuration.
//
// Configuration comes from a TOML file with environment fallbacks for
// the listen address (HOST, PORT), the scratch directory
// (CLARION_SCRATCH_DIR), and the ntfy topic (CLARION_NTFY_TOPIC).
// Values resolve in order: built-in defaults, file, environment.
package config
