package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const maxErrorBody = 512

// StatusError reports a non-200 answer from TMDB.
type StatusError struct {
	Path    string
	Status  int
	Body    string
	Latency time.Duration
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("tmdb %s returned %d (latency=%v)", e.Path, e.Status, e.Latency)
	}
	return fmt.Sprintf("tmdb %s returned %d (latency=%v): %s", e.Path, e.Status, e.Latency, body)
}

// Retryable reports whether the failure is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	attempts   uint
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMaxRetries sets how many times a retryable failure is re-attempted.
func WithMaxRetries(retries int) Option {
	return func(c *Client) {
		if retries >= 0 {
			c.attempts = uint(retries) + 1
		}
	}
}

// WithRetryDelay sets the base delay for exponential backoff between attempts.
func WithRetryDelay(delay time.Duration) Option {
	return func(c *Client) {
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		attempts:   4,
		retryDelay: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchOptions contains optional parameters for TMDB movie search.
type SearchOptions struct {
	Year         int
	Page         int
	Language     string
	Region       string
	IncludeAdult bool
}

// SearchMovie performs a TMDB movie search. Year maps to primary_release_year.
func (c *Client) SearchMovie(ctx context.Context, query string, opts SearchOptions) (json.RawMessage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", strconv.FormatBool(opts.IncludeAdult))
	setPage(params, opts.Page)
	if opts.Year > 0 {
		params.Set("primary_release_year", strconv.Itoa(opts.Year))
	}
	if region := strings.TrimSpace(opts.Region); region != "" {
		params.Set("region", region)
	}
	return c.get(ctx, "/search/movie", opts.Language, params)
}

// Popular lists currently popular movies.
func (c *Client) Popular(ctx context.Context, page int, language string) (json.RawMessage, error) {
	params := url.Values{}
	setPage(params, page)
	return c.get(ctx, "/movie/popular", language, params)
}

// MovieDetails fetches movie details by TMDB ID.
func (c *Client) MovieDetails(ctx context.Context, movieID int64, language string) (json.RawMessage, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	return c.get(ctx, fmt.Sprintf("/movie/%d", movieID), language, nil)
}

// ReleaseDates fetches per-territory release dates for a movie.
func (c *Client) ReleaseDates(ctx context.Context, movieID int64) (json.RawMessage, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	return c.get(ctx, fmt.Sprintf("/movie/%d/release_dates", movieID), "", nil)
}

// Similar lists titles TMDB considers similar to the movie.
func (c *Client) Similar(ctx context.Context, movieID int64, page int, language string) (json.RawMessage, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	params := url.Values{}
	setPage(params, page)
	return c.get(ctx, fmt.Sprintf("/movie/%d/similar", movieID), language, params)
}

// Genres lists the movie genres.
func (c *Client) Genres(ctx context.Context, language string) (json.RawMessage, error) {
	return c.get(ctx, "/genre/movie/list", language, nil)
}

// WatchProvidersResponse is the per-territory provider payload of a movie.
type WatchProvidersResponse struct {
	ID      int64                      `json:"id"`
	Results map[string]json.RawMessage `json:"results"`
}

// WatchProviders fetches the watch providers of a movie for every territory.
func (c *Client) WatchProviders(ctx context.Context, movieID int64) (*WatchProvidersResponse, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	raw, err := c.get(ctx, fmt.Sprintf("/movie/%d/watch/providers", movieID), "", nil)
	if err != nil {
		return nil, err
	}
	var payload WatchProvidersResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode watch providers: %w", err)
	}
	if payload.Results == nil {
		payload.Results = map[string]json.RawMessage{}
	}
	return &payload, nil
}

// Provider is a streaming service known to TMDB.
type Provider struct {
	ID              int64  `json:"provider_id"`
	Name            string `json:"provider_name"`
	LogoPath        string `json:"logo_path"`
	DisplayPriority int    `json:"display_priority"`
}

// MovieProviders lists the movie watch providers available in a region.
func (c *Client) MovieProviders(ctx context.Context, region string) ([]Provider, error) {
	params := url.Values{}
	if region = strings.TrimSpace(region); region != "" {
		params.Set("watch_region", region)
	}
	raw, err := c.get(ctx, "/watch/providers/movie", "", params)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Results []Provider `json:"results"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode movie providers: %w", err)
	}
	return payload.Results, nil
}

// DiscoverOptions narrows a discover query to flatrate titles of given providers.
type DiscoverOptions struct {
	ProviderIDs []int64
	Region      string
	Genres      []int64
	Sort        string
	Page        int
	Language    string
}

// Discover lists movies available as flatrate on the requested providers.
func (c *Client) Discover(ctx context.Context, opts DiscoverOptions) (json.RawMessage, error) {
	params := url.Values{}
	setPage(params, opts.Page)
	if len(opts.ProviderIDs) > 0 {
		params.Set("with_watch_providers", joinIDs(opts.ProviderIDs, "|"))
		params.Set("with_watch_monetization_types", "flatrate")
	}
	if region := strings.TrimSpace(opts.Region); region != "" {
		params.Set("watch_region", region)
	}
	if len(opts.Genres) > 0 {
		params.Set("with_genres", joinIDs(opts.Genres, ","))
	}
	sort := strings.TrimSpace(opts.Sort)
	if sort == "" {
		sort = "popularity.desc"
	}
	params.Set("sort_by", sort)
	return c.get(ctx, "/discover/movie", opts.Language, params)
}

func (c *Client) get(ctx context.Context, path, language string, params url.Values) (json.RawMessage, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	query := url.Values{}
	for key, values := range params {
		query[key] = values
	}
	query.Set("api_key", c.apiKey)
	if language = strings.TrimSpace(language); language == "" {
		language = c.language
	}
	if language != "" {
		query.Set("language", language)
	}
	endpoint.RawQuery = query.Encode()

	return retry.DoWithData(
		func() (json.RawMessage, error) {
			return c.do(ctx, path, endpoint.String())
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
	)
}

func (c *Client) do(ctx context.Context, path, endpoint string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Path: path, Status: resp.StatusCode, Body: string(body), Latency: latency}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tmdb response: %w", err)
	}
	if !json.Valid(body) {
		return nil, retry.Unrecoverable(fmt.Errorf("decode tmdb response: invalid json from %s", path))
	}
	return json.RawMessage(body), nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}

func setPage(params url.Values, page int) {
	if page <= 0 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))
}

func joinIDs(ids []int64, sep string) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, sep)
}
