// Package config loads, normalizes, and validates animesync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ANIMESYNC_API_TOKEN and ANIMESYNC_DATABASE_URL. The Config type centralizes
// every knob the daemon and CLI need: where the catalog lives, how to reach
// the Shikimori API, and how politely to pace requests against it.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
