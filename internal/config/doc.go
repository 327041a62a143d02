// Package config loads and validates the terminal client configuration.
//
// Configuration is YAML with ${VAR} environment variable expansion.
// Loading is tiered: Load parses, LoadWithDefaults fills optional fields,
// LoadAndValidate additionally enforces required fields.
package config
