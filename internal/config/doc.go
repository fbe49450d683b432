// Package config loads, normalizes, and validates streamcheck configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY, STREAMCHECK_PROXY_URL and PORT. The Config type centralizes every
// knob the proxy and CLI need, so credentials, cache sizing and import limits
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
