// Package config loads, normalizes, and validates prdowngrade configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes the default
// target version, output location, compression level, watch-mode timing, and
// logging format so the CLI and the watcher resolve settings in one pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
