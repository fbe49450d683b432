package main

import (
	"encoding/json"
	"strings"
	"testing"

	"streamcheck/internal/catalog"
)

func TestSearchSortsByRating(t *testing.T) {
	env := setupCLITestEnv(t)
	seedImportCatalog(env)

	out, _, err := runCLI(t, env, nil, "search", "Alien", "--sort", "rating")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	alien := strings.Index(out, "Alien ")
	covenant := strings.Index(out, "Alien: Covenant")
	if alien < 0 || covenant < 0 || alien > covenant {
		t.Fatalf("expected Alien before Alien: Covenant\n%s", out)
	}

	if _, _, err := runCLI(t, env, nil, "search", "Alien", "--sort", "length"); err == nil {
		t.Fatal("expected unknown sort key to fail")
	}
}

func TestSearchYearAndJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	seedImportCatalog(env)

	out, _, err := runCLI(t, env, nil, "search", "Heat", "--year", "1995", "--json")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	var results []catalog.Candidate
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 2 || results[0].ID != 50 {
		t.Fatalf("expected catalog order preserved, got %+v", results)
	}

	out, _, err = runCLI(t, env, nil, "search", "Nothing", "Here")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, `No results for "Nothing Here"`)
}

func TestPopularSimilarAndGenres(t *testing.T) {
	env := setupCLITestEnv(t)
	env.tmdb.discover = []fakeMovie{
		{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-31", VoteAverage: 8.2},
	}

	out, _, err := runCLI(t, env, nil, "popular")
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	requireContains(t, out, "The Matrix")
	requireContains(t, out, "Page 1 of 1 (1 titles)")

	out, _, err = runCLI(t, env, nil, "similar", "949")
	if err != nil {
		t.Fatalf("similar: %v", err)
	}
	requireContains(t, out, "The Matrix")

	if _, _, err := runCLI(t, env, nil, "similar", "abc"); err == nil {
		t.Fatal("expected invalid id to fail")
	}

	out, _, err = runCLI(t, env, nil, "genres")
	if err != nil {
		t.Fatalf("genres: %v", err)
	}
	requireContains(t, out, "Action")
	requireContains(t, out, "Drama")
}

func TestDiscoverResolvesProvider(t *testing.T) {
	env := setupCLITestEnv(t)
	env.tmdb.catalog = []fakeProvider{{ID: 8, Name: "Netflix"}, {ID: 337, Name: "Disney Plus"}}
	env.tmdb.discover = []fakeMovie{{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-31"}}

	out, _, err := runCLI(t, env, nil, "discover", "--provider", "disney plus", "--genre", "28", "--region", "se")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	requireContains(t, out, "The Matrix")

	var discoverRequest string
	for _, request := range env.tmdb.requestLog() {
		if strings.HasPrefix(request, "/discover/movie") {
			discoverRequest = request
		}
	}
	requireContains(t, discoverRequest, "with_watch_providers=337")
	requireContains(t, discoverRequest, "watch_region=SE")
	requireContains(t, discoverRequest, "with_genres=28")

	_, _, err = runCLI(t, env, nil, "discover", "--provider", "Nonexistent")
	if err == nil || !strings.Contains(err.Error(), "not offered") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestMovieShowsProviders(t *testing.T) {
	env := setupCLITestEnv(t)
	seedImportCatalog(env)
	env.tmdb.providers[949] = map[string][]fakeProvider{"NO": {{ID: 8, Name: "Netflix"}}}

	out, _, err := runCLI(t, env, nil, "movie", "949")
	if err != nil {
		t.Fatalf("movie: %v", err)
	}
	requireContains(t, out, "== Heat (1995) ==")
	requireContains(t, out, "Runtime:   110 min")
	requireContains(t, out, "[OK] Netflix")

	out, _, err = runCLI(t, env, nil, "movie", "949", "--region", "US")
	if err != nil {
		t.Fatalf("movie --region: %v", err)
	}
	requireContains(t, out, "no providers listed")
}
