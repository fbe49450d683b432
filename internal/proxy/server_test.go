package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"streamcheck/internal/config"
	"streamcheck/internal/logging"
	"streamcheck/internal/tmdb"
)

type fakeUpstream struct {
	mu        sync.Mutex
	calls     map[string]int
	searchErr error
	lastOpts  tmdb.SearchOptions
	discover  tmdb.DiscoverOptions
	providers []tmdb.Provider
	watch     *tmdb.WatchProvidersResponse
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		calls:     map[string]int{},
		providers: []tmdb.Provider{{ID: 8, Name: "Netflix"}, {ID: 337, Name: "Disney Plus"}},
	}
}

func (f *fakeUpstream) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeUpstream) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeUpstream) SearchMovie(_ context.Context, query string, opts tmdb.SearchOptions) (json.RawMessage, error) {
	f.record("search")
	f.lastOpts = opts
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return json.RawMessage(`{"page":1,"results":[{"id":78,"title":"` + query + `"}],"total_results":1}`), nil
}

func (f *fakeUpstream) Popular(context.Context, int, string) (json.RawMessage, error) {
	f.record("popular")
	return json.RawMessage(`{"results":[]}`), nil
}

func (f *fakeUpstream) MovieDetails(_ context.Context, id int64, _ string) (json.RawMessage, error) {
	f.record("details")
	return json.RawMessage(`{"id":603,"title":"The Matrix","runtime":136}`), nil
}

func (f *fakeUpstream) ReleaseDates(context.Context, int64) (json.RawMessage, error) {
	f.record("release_dates")
	return json.RawMessage(`{"id":603,"results":[]}`), nil
}

func (f *fakeUpstream) WatchProviders(context.Context, int64) (*tmdb.WatchProvidersResponse, error) {
	f.record("watch_providers")
	return f.watch, nil
}

func (f *fakeUpstream) Similar(context.Context, int64, int, string) (json.RawMessage, error) {
	f.record("similar")
	return json.RawMessage(`{"results":[]}`), nil
}

func (f *fakeUpstream) Genres(context.Context, string) (json.RawMessage, error) {
	f.record("genres")
	return json.RawMessage(`{"genres":[{"id":18,"name":"Drama"}]}`), nil
}

func (f *fakeUpstream) MovieProviders(context.Context, string) ([]tmdb.Provider, error) {
	f.record("providers")
	return f.providers, nil
}

func (f *fakeUpstream) Discover(_ context.Context, opts tmdb.DiscoverOptions) (json.RawMessage, error) {
	f.record("discover")
	f.discover = opts
	return json.RawMessage(`{"results":[{"id":1}]}`), nil
}

func newTestServer(t *testing.T, upstream Upstream, clock Clock) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Bind = "127.0.0.1:0"
	server, err := New(&cfg, upstream, logging.NewNop(), WithClock(clock))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return server
}

func serve(t *testing.T, server *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return payload["error"]
}

func TestHealth(t *testing.T) {
	server := newTestServer(t, newFakeUpstream(), nil)
	rec := serve(t, server, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected request id header")
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	upstream := newFakeUpstream()
	server := newTestServer(t, upstream, nil)
	rec := serve(t, server, "/api/movies/search?q=%20")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); !strings.Contains(msg, `"q"`) {
		t.Fatalf("unexpected error %q", msg)
	}
	if upstream.count("search") != 0 {
		t.Fatal("upstream should not be called without a query")
	}
}

func TestSearchAppliesDefaultsAndYear(t *testing.T) {
	upstream := newFakeUpstream()
	server := newTestServer(t, upstream, nil)
	rec := serve(t, server, "/api/movies/search?q=Alien&year=1979")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if upstream.lastOpts.Year != 1979 || upstream.lastOpts.Region != "NO" || upstream.lastOpts.Language != "en-US" {
		t.Fatalf("unexpected search options %#v", upstream.lastOpts)
	}
}

func TestSearchRejectsInvalidYear(t *testing.T) {
	server := newTestServer(t, newFakeUpstream(), nil)
	rec := serve(t, server, "/api/movies/search?q=Alien&year=nineteen")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSearchIsCachedUntilTTL(t *testing.T) {
	clock := &manualClock{now: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	upstream := newFakeUpstream()
	server := newTestServer(t, upstream, clock)

	first := serve(t, server, "/api/movies/search?q=Heat")
	second := serve(t, server, "/api/movies/search?q=heat")
	if first.Header().Get(cacheHeader) != "MISS" || second.Header().Get(cacheHeader) != "HIT" {
		t.Fatalf("unexpected cache headers %q %q", first.Header().Get(cacheHeader), second.Header().Get(cacheHeader))
	}
	if upstream.count("search") != 1 {
		t.Fatalf("expected one upstream call, got %d", upstream.count("search"))
	}

	clock.Advance(11 * time.Minute)
	serve(t, server, "/api/movies/search?q=Heat")
	if upstream.count("search") != 2 {
		t.Fatalf("expected refetch after TTL, got %d calls", upstream.count("search"))
	}
}

func TestUpstreamFailureIsBadGateway(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.searchErr = &tmdb.StatusError{Path: "/search/movie", Status: 401, Body: "Invalid API key"}
	server := newTestServer(t, upstream, nil)

	rec := serve(t, server, "/api/movies/search?q=Heat")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "TMDB request failed with 401: Invalid API key" {
		t.Fatalf("unexpected error %q", msg)
	}

	upstream.searchErr = errors.New("connection refused")
	rec = serve(t, server, "/api/movies/search?q=Other")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for transport error, got %d", rec.Code)
	}
}

func TestMovieRoutesRejectInvalidID(t *testing.T) {
	upstream := newFakeUpstream()
	server := newTestServer(t, upstream, nil)
	for _, target := range []string{
		"/api/movies/abc",
		"/api/movies/0/release-dates",
		"/api/movies/-4/similar",
		"/api/movies/x/watch-providers",
	} {
		rec := serve(t, server, target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
	if upstream.count("details") != 0 {
		t.Fatal("upstream should not be called for invalid ids")
	}
}

func TestMovieDetailsPassThrough(t *testing.T) {
	server := newTestServer(t, newFakeUpstream(), nil)
	rec := serve(t, server, "/api/movies/603")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"id":603,"title":"The Matrix","runtime":136}` {
		t.Fatalf("expected verbatim upstream body, got %q", rec.Body.String())
	}
}

func TestWatchProvidersFiltersRegion(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.watch = &tmdb.WatchProvidersResponse{
		ID: 603,
		Results: map[string]json.RawMessage{
			"NO": json.RawMessage(`{"flatrate":[{"provider_id":8,"provider_name":"Netflix"}]}`),
			"US": json.RawMessage(`{"rent":[]}`),
		},
	}
	server := newTestServer(t, upstream, nil)

	rec := serve(t, server, "/api/movies/603/watch-providers?watch_region=no")
	var payload tmdb.WatchProvidersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Results) != 1 {
		t.Fatalf("expected only NO region, got %v", payload.Results)
	}
	if _, ok := payload.Results["NO"]; !ok {
		t.Fatalf("expected NO region, got %v", payload.Results)
	}

	rec = serve(t, server, "/api/movies/603/watch-providers")
	payload = tmdb.WatchProvidersResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Results) != 2 {
		t.Fatalf("expected all regions without filter, got %v", payload.Results)
	}
}

func TestDiscoverResolvesProviderOnce(t *testing.T) {
	upstream := newFakeUpstream()
	server := newTestServer(t, upstream, nil)

	rec := serve(t, server, "/api/movies/netflix?genres=18,35")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	serve(t, server, "/api/movies/netflix?page=2")

	if upstream.count("providers") != 1 {
		t.Fatalf("expected provider lookup once, got %d", upstream.count("providers"))
	}
	if upstream.count("discover") != 2 {
		t.Fatalf("expected two discover calls, got %d", upstream.count("discover"))
	}
	if len(upstream.discover.ProviderIDs) != 1 || upstream.discover.ProviderIDs[0] != 8 {
		t.Fatalf("unexpected provider ids %v", upstream.discover.ProviderIDs)
	}
}

func TestDiscoverUnknownProvider(t *testing.T) {
	server := newTestServer(t, newFakeUpstream(), nil)
	rec := serve(t, server, "/api/movies/discover?provider=Nonexistent")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(t, newFakeUpstream(), nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/movies/search", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected permissive CORS origin")
	}
}

func TestStartAndStop(t *testing.T) {
	server := newTestServer(t, newFakeUpstream(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := server.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	addr := server.Addr()
	if addr == "" {
		t.Fatal("expected bound address")
	}
	resp, err := http.Get("http://" + addr + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	server.Stop()
	if server.Addr() != "" {
		t.Fatal("expected address cleared after stop")
	}
}

func TestStopPurgesCaches(t *testing.T) {
	upstream := newFakeUpstream()
	server := newTestServer(t, upstream, nil)
	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if rec := serve(t, server, "/api/movies/netflix"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if server.payloads.Len() == 0 || server.providers.Len() == 0 {
		t.Fatalf("expected cached entries before stop, payloads=%d providers=%d", server.payloads.Len(), server.providers.Len())
	}

	server.Stop()
	if server.payloads.Len() != 0 || server.providers.Len() != 0 {
		t.Fatalf("expected caches purged, payloads=%d providers=%d", server.payloads.Len(), server.providers.Len())
	}
}
