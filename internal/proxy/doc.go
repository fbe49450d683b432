// Package proxy serves the catalog API the import pipeline and CLI consume.
//
// The server fronts TMDB: it injects the API key, applies regional and
// language defaults, and memoizes search, discover, genre and provider-id
// lookups in a TTL cache driven by an injected clock. Routes live under
// /api/movies and answer JSON; upstream failures surface as 502 with an
// {"error": "..."} body.
package proxy
