// Package catalog is the lookup client the import pipeline and CLI use to
// reach the catalog proxy.
//
// Records from the proxy follow TMDB's loosely specified JSON, so every field
// beyond the id and title is optional and defaulted at parse time: entries
// without a positive id are dropped, empty strings become absent, and
// unparsable release dates are skipped. Any non-success answer or transport
// failure is returned as a services.ErrLookup; the client does not retry.
package catalog
