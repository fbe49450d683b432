package catalog

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

	"streamcheck/internal/config"
	"streamcheck/internal/services"
)

const maxErrorBody = 512

// Client talks to the catalog proxy.
type Client struct {
	baseURL    string
	language   string
	region     string
	httpClient *http.Client
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

// WithLanguage sets the language passed on list and detail lookups.
func WithLanguage(language string) Option {
	return func(c *Client) {
		c.language = strings.TrimSpace(language)
	}
}

// WithRegion sets the territory used for watch providers and discover.
func WithRegion(region string) Option {
	return func(c *Client) {
		c.region = strings.ToUpper(strings.TrimSpace(region))
	}
}

// New creates a client rooted at the proxy's movie API, e.g. http://host:4000/api/movies.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("catalog base url required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig creates a client using the catalog and TMDB sections of cfg.
func NewFromConfig(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("catalog: config required")
	}
	timeout := time.Duration(cfg.Catalog.TimeoutSeconds) * time.Second
	return New(cfg.Catalog.ProxyURL,
		WithHTTPClient(&http.Client{Timeout: timeout}),
		WithLanguage(cfg.TMDB.Language),
		WithRegion(cfg.TMDB.Region),
	)
}

// Region reports the default territory of the client.
func (c *Client) Region() string {
	return c.region
}

// SearchByTitle searches the catalog. A non-empty year narrows the search but
// does not guarantee the results carry that year.
func (c *Client) SearchByTitle(ctx context.Context, title, year string) ([]Candidate, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "search", "title must not be empty", nil)
	}
	params := url.Values{}
	params.Set("q", title)
	if year = strings.TrimSpace(year); year != "" {
		params.Set("year", year)
	}
	var page Page
	if err := c.get(ctx, "search", "/search", params, &page); err != nil {
		return nil, err
	}
	return cleanCandidates(page.Results), nil
}

// ReleaseDates returns every release date per territory. Territories are keyed
// by their ISO 3166-1 code, or by position when the code is missing.
func (c *Client) ReleaseDates(ctx context.Context, movieID int64) (map[string][]time.Time, error) {
	if err := validateID(movieID, "release dates"); err != nil {
		return nil, err
	}
	var payload struct {
		Results []struct {
			Territory    string `json:"iso_3166_1"`
			ReleaseDates []struct {
				ReleaseDate string `json:"release_date"`
			} `json:"release_dates"`
		} `json:"results"`
	}
	if err := c.get(ctx, "release dates", fmt.Sprintf("/%d/release-dates", movieID), nil, &payload); err != nil {
		return nil, err
	}
	out := make(map[string][]time.Time, len(payload.Results))
	for i, entry := range payload.Results {
		key := strings.TrimSpace(entry.Territory)
		if key == "" {
			key = strconv.Itoa(i)
		}
		dates := out[key]
		for _, rd := range entry.ReleaseDates {
			if parsed, ok := parseReleaseDate(rd.ReleaseDate); ok {
				dates = append(dates, parsed)
			}
		}
		out[key] = dates
	}
	return out, nil
}

// Details fetches a single movie.
func (c *Client) Details(ctx context.Context, movieID int64) (*Details, error) {
	if err := validateID(movieID, "details"); err != nil {
		return nil, err
	}
	params := c.languageParams()
	var details Details
	if err := c.get(ctx, "details", fmt.Sprintf("/%d", movieID), params, &details); err != nil {
		return nil, err
	}
	if details.ID <= 0 {
		return nil, services.Wrap(services.ErrLookup, "catalog", "details", fmt.Sprintf("movie %d returned no id", movieID), nil)
	}
	details.clean()
	return &details, nil
}

// WatchProviders returns the providers for one territory. A nil result with
// no error means the catalog has no data for that territory.
func (c *Client) WatchProviders(ctx context.Context, movieID int64, region string) (*Providers, error) {
	if err := validateID(movieID, "watch providers"); err != nil {
		return nil, err
	}
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = c.region
	}
	params := url.Values{}
	if region != "" {
		params.Set("watch_region", region)
	}
	var payload struct {
		Results map[string]*Providers `json:"results"`
	}
	if err := c.get(ctx, "watch providers", fmt.Sprintf("/%d/watch-providers", movieID), params, &payload); err != nil {
		return nil, err
	}
	return payload.Results[region], nil
}

// Similar lists titles similar to the movie.
func (c *Client) Similar(ctx context.Context, movieID int64, page int) ([]Candidate, error) {
	if err := validateID(movieID, "similar"); err != nil {
		return nil, err
	}
	params := c.languageParams()
	setPage(params, page)
	var result Page
	if err := c.get(ctx, "similar", fmt.Sprintf("/%d/similar", movieID), params, &result); err != nil {
		return nil, err
	}
	return cleanCandidates(result.Results), nil
}

// Popular lists currently popular movies.
func (c *Client) Popular(ctx context.Context, page int) (*Page, error) {
	params := c.languageParams()
	setPage(params, page)
	var result Page
	if err := c.get(ctx, "popular", "/popular", params, &result); err != nil {
		return nil, err
	}
	result.Results = cleanCandidates(result.Results)
	return &result, nil
}

// Genres lists the catalog genres.
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	var payload struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.get(ctx, "genres", "/genres", c.languageParams(), &payload); err != nil {
		return nil, err
	}
	return payload.Genres, nil
}

// Discover lists titles streaming on a provider.
func (c *Client) Discover(ctx context.Context, query DiscoverQuery) (*Page, error) {
	params := c.languageParams()
	setPage(params, query.Page)
	region := strings.ToUpper(strings.TrimSpace(query.Region))
	if region == "" {
		region = c.region
	}
	if region != "" {
		params.Set("region", region)
	}
	if provider := strings.TrimSpace(query.Provider); provider != "" {
		params.Set("provider", provider)
	}
	if len(query.Genres) > 0 {
		parts := make([]string, 0, len(query.Genres))
		for _, id := range query.Genres {
			parts = append(parts, strconv.FormatInt(id, 10))
		}
		params.Set("genres", strings.Join(parts, ","))
	}
	if sort := strings.TrimSpace(query.Sort); sort != "" {
		params.Set("sort", sort)
	}
	var result Page
	if err := c.get(ctx, "discover", "/discover", params, &result); err != nil {
		return nil, err
	}
	result.Results = cleanCandidates(result.Results)
	return &result, nil
}

func (c *Client) get(ctx context.Context, operation, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return services.Wrap(services.ErrLookup, "catalog", operation, "build url", err)
	}
	if len(params) > 0 {
		endpoint.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return services.Wrap(services.ErrLookup, "catalog", operation, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrLookup, "catalog", operation, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return services.Wrap(services.ErrLookup, "catalog", operation,
			fmt.Sprintf("status %d: %s", resp.StatusCode, proxyMessage(body)), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrLookup, "catalog", operation, "decode response", err)
	}
	return nil
}

func (c *Client) languageParams() url.Values {
	params := url.Values{}
	if c.language != "" {
		params.Set("language", c.language)
	}
	return params
}

// proxyMessage prefers the proxy's {"error": "..."} text over the raw body.
func proxyMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return strings.TrimSpace(payload.Error)
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return "empty response"
}

func validateID(movieID int64, operation string) error {
	if movieID <= 0 {
		return services.Wrap(services.ErrValidation, "catalog", operation, fmt.Sprintf("invalid movie id %d", movieID), nil)
	}
	return nil
}

func setPage(params url.Values, page int) {
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}
}
