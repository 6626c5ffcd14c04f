// Package config loads, normalizes, and validates photoscan configuration.
//
// It supplies repository defaults rooted in the XDG base directories, expands
// user paths (including tilde shortcuts), and reads TOML files. The Config
// type centralizes every knob the daemon and CLI need: storage locations,
// model backend endpoints, clustering thresholds, and scan pipeline bounds.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical extension lists, and clear validation errors.
package config
