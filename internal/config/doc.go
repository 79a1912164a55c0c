// Package config loads, normalizes, and validates bookwatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// BOOKWATCH_API_TOKEN. The Config type centralizes every knob the CLI and the
// watch loop need: the collaborator API endpoint, acquisition thresholds and
// format lists, notification targets, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, de-duplicated language lists, and clear validation errors.
package config
