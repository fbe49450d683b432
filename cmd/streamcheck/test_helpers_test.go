package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"streamcheck/internal/config"
	"streamcheck/internal/logging"
	"streamcheck/internal/proxy"
	"streamcheck/internal/tmdb"
)

type fakeMovie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
	Popularity  float64 `json:"popularity,omitempty"`
	Overview    string  `json:"overview,omitempty"`
}

type fakeRelease struct {
	Territory string
	Date      string
}

type fakeProvider struct {
	ID   int64  `json:"provider_id"`
	Name string `json:"provider_name"`
}

// fakeTMDB serves the subset of the TMDB v3 API the proxy calls.
type fakeTMDB struct {
	mu        sync.Mutex
	searches  map[string][]fakeMovie
	releases  map[int64][]fakeRelease
	providers map[int64]map[string][]fakeProvider
	catalog   []fakeProvider
	discover  []fakeMovie
	requests  []string
}

func newFakeTMDB() *fakeTMDB {
	return &fakeTMDB{
		searches:  make(map[string][]fakeMovie),
		releases:  make(map[int64][]fakeRelease),
		providers: make(map[int64]map[string][]fakeProvider),
	}
}

func (f *fakeTMDB) addSearch(query, year string, movies ...fakeMovie) {
	f.searches[strings.ToLower(query)+"|"+year] = movies
}

func (f *fakeTMDB) addMovie(movie fakeMovie, releases ...fakeRelease) {
	f.releases[movie.ID] = releases
}

func (f *fakeTMDB) movie(id int64) (fakeMovie, bool) {
	for _, list := range f.searches {
		for _, movie := range list {
			if movie.ID == id {
				return movie, true
			}
		}
	}
	return fakeMovie{}, false
}

func (f *fakeTMDB) requestLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeTMDB) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search/movie", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		results := f.searches[strings.ToLower(q.Get("query"))+"|"+q.Get("primary_release_year")]
		writeFakePage(w, results)
	})
	mux.HandleFunc("GET /movie/popular", func(w http.ResponseWriter, r *http.Request) {
		writeFakePage(w, f.discover)
	})
	mux.HandleFunc("GET /genre/movie/list", func(w http.ResponseWriter, r *http.Request) {
		writeFakeJSON(w, map[string]any{"genres": []map[string]any{{"id": 28, "name": "Action"}, {"id": 18, "name": "Drama"}}})
	})
	mux.HandleFunc("GET /watch/providers/movie", func(w http.ResponseWriter, r *http.Request) {
		writeFakeJSON(w, map[string]any{"results": f.catalog})
	})
	mux.HandleFunc("GET /discover/movie", func(w http.ResponseWriter, r *http.Request) {
		writeFakePage(w, f.discover)
	})
	mux.HandleFunc("GET /movie/{id}", func(w http.ResponseWriter, r *http.Request) {
		movie, ok := f.movie(pathID(r))
		if !ok {
			http.Error(w, `{"status_message":"not found"}`, http.StatusNotFound)
			return
		}
		writeFakeJSON(w, map[string]any{
			"id":           movie.ID,
			"title":        movie.Title,
			"release_date": movie.ReleaseDate,
			"vote_average": movie.VoteAverage,
			"overview":     movie.Overview,
			"runtime":      110,
			"genres":       []map[string]any{{"id": 18, "name": "Drama"}},
		})
	})
	mux.HandleFunc("GET /movie/{id}/release_dates", func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		results := make([]map[string]any, 0)
		for _, release := range f.releases[id] {
			results = append(results, map[string]any{
				"iso_3166_1":    release.Territory,
				"release_dates": []map[string]any{{"release_date": release.Date}},
			})
		}
		writeFakeJSON(w, map[string]any{"id": id, "results": results})
	})
	mux.HandleFunc("GET /movie/{id}/watch/providers", func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		results := make(map[string]any)
		for region, flatrate := range f.providers[id] {
			results[region] = map[string]any{"link": "https://example.test/" + region, "flatrate": flatrate}
		}
		writeFakeJSON(w, map[string]any{"id": id, "results": results})
	})
	mux.HandleFunc("GET /movie/{id}/similar", func(w http.ResponseWriter, r *http.Request) {
		writeFakePage(w, f.discover)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.URL.Path+"?"+r.URL.RawQuery)
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

func pathID(r *http.Request) int64 {
	var id int64
	fmt.Sscan(r.PathValue("id"), &id)
	return id
}

func writeFakePage(w http.ResponseWriter, movies []fakeMovie) {
	if movies == nil {
		movies = []fakeMovie{}
	}
	writeFakeJSON(w, map[string]any{"page": 1, "total_pages": 1, "total_results": len(movies), "results": movies})
}

func writeFakeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type cliTestEnv struct {
	tmdb       *fakeTMDB
	configPath string
	dataDir    string
	baseDir    string
}

// setupCLITestEnv wires fake TMDB -> tmdb client -> proxy -> CLI under a
// throwaway HOME.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", base)
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("STREAMCHECK_PROXY_URL", "")
	t.Setenv("PORT", "")

	fake := newFakeTMDB()
	upstream := httptest.NewServer(fake.handler())
	t.Cleanup(upstream.Close)

	client, err := tmdb.New("test-key", upstream.URL, "en-US", tmdb.WithRetryDelay(time.Millisecond))
	if err != nil {
		t.Fatalf("tmdb.New: %v", err)
	}
	proxyCfg := config.Default()
	server, err := proxy.New(&proxyCfg, client, logging.NewNop())
	if err != nil {
		t.Fatalf("proxy.New: %v", err)
	}
	proxySrv := httptest.NewServer(server.Handler())
	t.Cleanup(proxySrv.Close)

	dataDir := filepath.Join(base, "data")
	configPath := filepath.Join(base, ".config", "streamcheck", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\n\n[server]\nbind = %q\n\n[catalog]\nproxy_url = %q\n\n[logging]\nlevel = \"error\"\n",
		dataDir,
		filepath.Join(base, "logs"),
		"127.0.0.1:0",
		proxySrv.URL+"/api/movies",
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{tmdb: fake, configPath: configPath, dataDir: dataDir, baseDir: base}
}

func runCLI(t *testing.T, env *cliTestEnv, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	flags := []string{"--env-file", ""}
	if env != nil {
		flags = append(flags, "--config", env.configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", needle, haystack)
	}
}

func requireNotContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if strings.Contains(haystack, needle) {
		t.Fatalf("expected output to not contain %q\n--- output ---\n%s", needle, haystack)
	}
}

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
