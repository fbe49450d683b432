// Package services defines shared utilities consumed by the catalog proxy, the
// import pipeline, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp import run IDs, row indexes, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that let callers classify
//     failures (lookup vs validation) and map them to HTTP statuses.
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform across the proxy and the importer.
package services
