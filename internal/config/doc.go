// Package config loads, normalizes, and validates cddasrc configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the CDDASRC_DEVICE environment
// fallback. Validation enforces the read-speed range (-1..100) before any
// device is touched, so an out-of-range value never reaches a drive.
package config
