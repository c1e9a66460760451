// Package config loads, normalizes, and validates murmur's TOML
// configuration. Loading is tolerant of a missing file (defaults apply) but
// strict about unusable values: path fields are expanded to absolute paths and
// the result is validated before any subsystem sees it.
package config
