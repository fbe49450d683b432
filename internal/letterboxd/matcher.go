package letterboxd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"streamcheck/internal/catalog"
	"streamcheck/internal/logging"
	"streamcheck/internal/services"
)

// DefaultCandidateLimit is how many ranked search results are considered per row.
const DefaultCandidateLimit = 8

// Status is the classification of one imported row.
type Status string

const (
	StatusPending  Status = "pending"
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
	StatusError    Status = "error"
)

// Terminal reports whether the row has been classified.
func (s Status) Terminal() bool {
	return s == StatusFound || s == StatusNotFound || s == StatusError
}

// MatchResult is the outcome for one row. Movie is set iff Status is found and
// Error iff Status is error.
type MatchResult struct {
	Parsed     ParsedRow          `json:"parsed"`
	Status     Status             `json:"status"`
	Movie      *catalog.Candidate `json:"movie,omitempty"`
	Error      string             `json:"error,omitempty"`
	Selected   bool               `json:"selected"`
	ExactMatch bool               `json:"exactMatch"`
}

func pendingResult(row ParsedRow) MatchResult {
	return MatchResult{Parsed: row, Status: StatusPending, Selected: true}
}

func notFound(row ParsedRow) MatchResult {
	return MatchResult{Parsed: row, Status: StatusNotFound, Selected: true}
}

func failed(row ParsedRow, message string) MatchResult {
	return MatchResult{Parsed: row, Status: StatusError, Error: message, Selected: true}
}

// Catalog is the lookup surface the matcher needs.
type Catalog interface {
	SearchByTitle(ctx context.Context, title, year string) ([]catalog.Candidate, error)
	ReleaseDateSource
}

// Matcher resolves imported rows against the catalog.
type Matcher struct {
	catalog        Catalog
	logger         *slog.Logger
	candidateLimit int
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithCandidateLimit caps how many ranked results are scanned per row.
func WithCandidateLimit(limit int) MatcherOption {
	return func(m *Matcher) {
		if limit > 0 {
			m.candidateLimit = limit
		}
	}
}

// NewMatcher creates a matcher.
func NewMatcher(cat Catalog, logger *slog.Logger, opts ...MatcherOption) *Matcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Matcher{
		catalog:        cat,
		logger:         logging.NewComponentLogger(logger, "letterboxd"),
		candidateLimit: DefaultCandidateLimit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ProgressFunc observes each row as soon as it reaches a terminal status.
type ProgressFunc func(index int, result MatchResult)

type runConfig struct {
	progress ProgressFunc
}

// RunOption configures one ResolveAll call.
type RunOption func(*runConfig)

// WithProgress registers a per-row progress callback.
func WithProgress(fn ProgressFunc) RunOption {
	return func(c *runConfig) {
		c.progress = fn
	}
}

// ResolveAll classifies every row, one row at a time and in input order. The
// returned slice always has one result per row. When ctx is cancelled the row
// in flight and all later rows stay pending and ctx.Err() is returned alongside.
func (m *Matcher) ResolveAll(ctx context.Context, rows []ParsedRow, opts ...RunOption) ([]MatchResult, error) {
	cfg := runConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	results := make([]MatchResult, len(rows))
	for i, row := range rows {
		results[i] = pendingResult(row)
	}
	if m.catalog == nil {
		return results, services.Wrap(services.ErrConfiguration, "letterboxd", "resolve", "catalog client unavailable", nil)
	}

	years := newYearResolver(m.catalog, m.logger)
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			m.logger.Info("import run cancelled", logging.Int("resolved", i), logging.Int("total", len(rows)))
			return results, err
		}
		rowCtx := services.WithRow(ctx, i)
		result := m.resolveRow(rowCtx, row, years)
		if ctx.Err() != nil {
			m.logger.Info("import run cancelled", logging.Int("resolved", i), logging.Int("total", len(rows)))
			return results, ctx.Err()
		}
		results[i] = result
		if cfg.progress != nil {
			cfg.progress(i, result)
		}
	}

	m.logger.Debug("earliest year lookups", logging.Int("fetches", years.fetches), logging.Int("rows", len(rows)))
	return results, nil
}

// resolveRow never panics; an unexpected failure classifies the row as error.
func (m *Matcher) resolveRow(ctx context.Context, row ParsedRow, years *yearResolver) (result MatchResult) {
	logger := logging.WithContext(ctx, m.logger).With(logging.Args(
		logging.String("title", row.Title),
		logging.String("year", row.Year),
	)...)
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("row resolution panicked", logging.String("panic", fmt.Sprint(rec)))
			result = failed(row, fmt.Sprint(rec))
		}
	}()

	candidates, err := m.search(ctx, logger, row)
	if err != nil {
		logger.Warn("row lookup failed", logging.Args(append(
			logging.DecisionAttrs("letterboxd_match", string(StatusError), "search_failed"),
			logging.Error(err),
		)...)...)
		return failed(row, err.Error())
	}
	if len(candidates) == 0 {
		logger.Info("row not matched", logging.Args(logging.DecisionAttrs("letterboxd_match", string(StatusNotFound), "no_results")...)...)
		return notFound(row)
	}
	if len(candidates) > m.candidateLimit {
		candidates = candidates[:m.candidateLimit]
	}

	if row.Year == "" {
		logger.Info("row not matched", logging.Args(logging.DecisionAttrs("letterboxd_match", string(StatusNotFound), "no_year")...)...)
		return notFound(row)
	}

	want := NormalizeTitle(row.Title)
	titleMatches := 0
	for idx := range candidates {
		candidate := candidates[idx]
		if NormalizeTitle(candidate.Title) != want {
			continue
		}
		titleMatches++
		year, ok := years.earliestYear(ctx, candidate.ID)
		logger.Debug("candidate considered",
			logging.Int("rank", idx),
			logging.Int64("tmdb_id", candidate.ID),
			logging.String("candidate_title", candidate.Title),
			logging.Int("earliest_year", year),
			logging.Bool("earliest_year_known", ok),
		)
		if ok && strconv.Itoa(year) == row.Year {
			logger.Info("row matched", logging.Args(append(
				logging.DecisionAttrs("letterboxd_match", string(StatusFound), "title_and_earliest_year"),
				logging.Int64("tmdb_id", candidate.ID),
				logging.Int("rank", idx),
			)...)...)
			return MatchResult{
				Parsed:     row,
				Status:     StatusFound,
				Movie:      &candidate,
				Selected:   true,
				ExactMatch: true,
			}
		}
	}

	reason := "no_title_match"
	if titleMatches > 0 {
		reason = "year_mismatch"
	}
	logger.Info("row not matched", logging.Args(append(
		logging.DecisionAttrs("letterboxd_match", string(StatusNotFound), reason),
		logging.Int("candidates", len(candidates)),
		logging.Int("title_matches", titleMatches),
	)...)...)
	return notFound(row)
}

// search runs the year-scoped search when the row has a year and falls back
// to an unscoped search when that failed or came back empty.
func (m *Matcher) search(ctx context.Context, logger *slog.Logger, row ParsedRow) ([]catalog.Candidate, error) {
	if row.Year != "" {
		candidates, err := m.catalog.SearchByTitle(ctx, row.Title, row.Year)
		switch {
		case err != nil:
			// A client timeout also matches context.DeadlineExceeded; only the
			// run context ending stops the fallback.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Debug("year-scoped search failed, retrying unscoped", logging.Error(err))
		case len(candidates) > 0:
			return candidates, nil
		}
	}
	return m.catalog.SearchByTitle(ctx, row.Title, "")
}
