// Package config loads and validates recmatch configuration.
//
// Configuration lives in a TOML file. Load applies defaults, expands
// relative and home-anchored paths, and validates the result so the rest
// of the program can assume a coherent configuration.
package config
