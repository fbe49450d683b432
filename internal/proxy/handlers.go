package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"streamcheck/internal/logging"
	"streamcheck/internal/services"
	"streamcheck/internal/tmdb"
)

const cacheHeader = "X-Cache"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	page, err := intParam(r, "page", 1)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	language := s.languageParam(r)
	payload, err := s.upstream.Popular(r.Context(), page, language)
	if err != nil {
		s.fail(w, r, upstreamError("popular", err))
		return
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeError(w, http.StatusBadRequest, `query param "q" is required`)
		return
	}
	page, err := intParam(r, "page", 1)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	year, err := intParam(r, "year", 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts := tmdb.SearchOptions{
		Year:     year,
		Page:     page,
		Language: s.languageParam(r),
		Region:   s.regionParam(r, "region"),
	}
	key := fmt.Sprintf("search|%s|%d|%d|%s|%s", strings.ToLower(query), opts.Year, opts.Page, opts.Language, opts.Region)
	s.serveCached(w, r, key, "search", func(ctx context.Context) (json.RawMessage, error) {
		return s.upstream.SearchMovie(ctx, query, opts)
	})
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	language := s.languageParam(r)
	s.serveCached(w, r, "genres|"+language, "genres", func(ctx context.Context) (json.RawMessage, error) {
		return s.upstream.Genres(ctx, language)
	})
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	page, err := intParam(r, "page", 1)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	genres, err := idListParam(r, "genres")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	region := s.regionParam(r, "region")
	provider := strings.TrimSpace(r.URL.Query().Get("provider"))
	if provider == "" {
		provider = s.provider
	}
	providerID, err := s.providerID(r.Context(), provider, region)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts := tmdb.DiscoverOptions{
		ProviderIDs: []int64{providerID},
		Region:      region,
		Genres:      genres,
		Sort:        strings.TrimSpace(r.URL.Query().Get("sort")),
		Page:        page,
		Language:    s.languageParam(r),
	}
	key := fmt.Sprintf("discover|%d|%s|%v|%s|%d|%s", providerID, opts.Region, opts.Genres, opts.Sort, opts.Page, opts.Language)
	s.serveCached(w, r, key, "discover", func(ctx context.Context) (json.RawMessage, error) {
		return s.upstream.Discover(ctx, opts)
	})
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := s.movieID(w, r)
	if !ok {
		return
	}
	payload, err := s.upstream.MovieDetails(r.Context(), id, s.languageParam(r))
	if err != nil {
		s.fail(w, r, upstreamError("details", err))
		return
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleReleaseDates(w http.ResponseWriter, r *http.Request) {
	id, ok := s.movieID(w, r)
	if !ok {
		return
	}
	payload, err := s.upstream.ReleaseDates(r.Context(), id)
	if err != nil {
		s.fail(w, r, upstreamError("release dates", err))
		return
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleWatchProviders(w http.ResponseWriter, r *http.Request) {
	id, ok := s.movieID(w, r)
	if !ok {
		return
	}
	resp, err := s.upstream.WatchProviders(r.Context(), id)
	if err != nil {
		s.fail(w, r, upstreamError("watch providers", err))
		return
	}
	if region := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("watch_region"))); region != "" {
		filtered := make(map[string]json.RawMessage, 1)
		if entry, ok := resp.Results[region]; ok {
			filtered[region] = entry
		}
		resp = &tmdb.WatchProvidersResponse{ID: resp.ID, Results: filtered}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id, ok := s.movieID(w, r)
	if !ok {
		return
	}
	page, err := intParam(r, "page", 1)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	payload, err := s.upstream.Similar(r.Context(), id, page, s.languageParam(r))
	if err != nil {
		s.fail(w, r, upstreamError("similar", err))
		return
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, key, operation string, fetch func(context.Context) (json.RawMessage, error)) {
	if payload, ok := s.payloads.Get(key); ok {
		w.Header().Set(cacheHeader, "HIT")
		s.writeJSON(w, http.StatusOK, payload)
		return
	}
	payload, err := fetch(r.Context())
	if err != nil {
		s.fail(w, r, upstreamError(operation, err))
		return
	}
	s.payloads.Set(key, payload)
	w.Header().Set(cacheHeader, "MISS")
	s.writeJSON(w, http.StatusOK, payload)
}

// providerID resolves a provider display name to its TMDB id for a region.
func (s *Server) providerID(ctx context.Context, name, region string) (int64, error) {
	key := strings.ToLower(name) + "|" + region
	if id, ok := s.providers.Get(key); ok {
		return id, nil
	}
	providers, err := s.upstream.MovieProviders(ctx, region)
	if err != nil {
		return 0, upstreamError("resolve provider", err)
	}
	for _, provider := range providers {
		if strings.EqualFold(strings.TrimSpace(provider.Name), name) {
			s.providers.Set(key, provider.ID)
			s.logger.Debug("provider resolved",
				logging.String("provider", provider.Name),
				logging.Int64("provider_id", provider.ID),
				logging.String("region", region),
			)
			return provider.ID, nil
		}
	}
	return 0, services.Wrap(services.ErrNotFound, "proxy", "resolve provider",
		fmt.Sprintf("provider %q not offered in %s", name, region), nil)
}

func (s *Server) movieID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid movie id")
		return 0, false
	}
	return id, true
}

func (s *Server) languageParam(r *http.Request) string {
	if language := strings.TrimSpace(r.URL.Query().Get("language")); language != "" {
		return language
	}
	return s.language
}

func (s *Server) regionParam(r *http.Request, key string) string {
	if region := strings.TrimSpace(r.URL.Query().Get(key)); region != "" {
		return strings.ToUpper(region)
	}
	return s.region
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	logger := logging.WithContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logging.WarnWithContext(logger, "upstream request failed", "upstream_failed",
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check tmdb.api_key and network connectivity"),
			logging.String(logging.FieldImpact, "client receives 502"),
		)
	}
	s.writeError(w, status, errorMessage(err))
}

func upstreamError(operation string, err error) error {
	if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrValidation) {
		return err
	}
	return services.Wrap(services.ErrLookup, "tmdb", operation, "", err)
}

// errorMessage keeps the upstream cause readable for API clients.
func errorMessage(err error) string {
	var statusErr *tmdb.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("TMDB request failed with %d: %s", statusErr.Status, strings.TrimSpace(statusErr.Body))
	}
	return err.Error()
}

func intParam(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, services.Wrap(services.ErrValidation, "proxy", "parse query", fmt.Sprintf("invalid %s %q", key, raw), nil)
	}
	return value, nil
}

func idListParam(r *http.Request, key string) ([]int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.FieldsFunc(raw, func(c rune) bool { return c == ',' || c == '|' }) {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, services.Wrap(services.ErrValidation, "proxy", "parse query", fmt.Sprintf("invalid %s %q", key, raw), nil)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
