// Command streamcheck runs the catalog proxy and the Letterboxd watchlist
// importer.
//
// `streamcheck serve` fronts TMDB with a caching HTTP proxy. Every other
// command talks to that proxy: `import` matches a Letterboxd CSV export and
// optionally commits the matches to the local watchlist, while `search`,
// `similar`, `popular`, `discover`, and `watchlist` browse the catalog and
// manage saved titles.
package main
