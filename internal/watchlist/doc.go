// Package watchlist persists the user's watchlist in SQLite.
//
// Entries are keyed by catalog id and inserts are idempotent: adding an id that
// already exists is a no-op reported as not inserted. The package also
// enriches entries with per-territory watch providers for display; provider
// lookups that fail are treated as missing data rather than errors.
package watchlist
