// Package letterboxd imports a Letterboxd CSV export and matches each row to
// a single catalog entry.
//
// Matching is staged and deliberately strict. A year-scoped search runs first
// and its failure is tolerated; an unscoped search follows when it produced
// nothing. Among the first few candidates, a row is accepted only when the
// normalized titles are equal and the candidate's earliest release year across
// all territories equals the row's year. Everything else is reported as
// not_found and left to manual review through a Session.
//
// Rows are resolved one at a time so at most one row's lookups are in flight
// against the catalog. Earliest release years are memoized per run.
package letterboxd
