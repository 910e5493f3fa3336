// Package config loads linkdir settings from an optional YAML file and
// LINKDIR_-prefixed environment variables. Command-line flags are applied
// on top by the caller.
package config
