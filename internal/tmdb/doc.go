// Package tmdb provides the upstream TMDB v3 client the catalog proxy forwards to.
//
// It authenticates every request with the configured API key, retries rate
// limited and server-side failures with exponential backoff, and returns raw
// JSON payloads so the proxy can pass catalog responses through field-for-field.
// The few payloads the proxy has to inspect (provider lists, per-region watch
// providers) are decoded into typed records. Options allow tests to supply
// custom HTTP clients and retry timing without modifying production code.
package tmdb
