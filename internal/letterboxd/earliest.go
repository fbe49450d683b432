package letterboxd

import (
	"context"
	"log/slog"
	"time"

	"streamcheck/internal/logging"
)

// ReleaseDateSource returns every release date of a catalog entry per territory.
type ReleaseDateSource interface {
	ReleaseDates(ctx context.Context, movieID int64) (map[string][]time.Time, error)
}

type yearLookup struct {
	year  int
	known bool
}

// yearResolver memoizes earliest release years for one matching run. Each id
// is fetched at most once; failures and empty answers are remembered as unknown.
type yearResolver struct {
	source  ReleaseDateSource
	logger  *slog.Logger
	years   map[int64]yearLookup
	fetches int
}

func newYearResolver(source ReleaseDateSource, logger *slog.Logger) *yearResolver {
	return &yearResolver{
		source: source,
		logger: logger,
		years:  make(map[int64]yearLookup),
	}
}

func (r *yearResolver) earliestYear(ctx context.Context, movieID int64) (int, bool) {
	if cached, ok := r.years[movieID]; ok {
		return cached.year, cached.known
	}
	r.fetches++
	lookup := yearLookup{}
	dates, err := r.source.ReleaseDates(ctx, movieID)
	if err != nil {
		logging.WithContext(ctx, r.logger).Debug("release dates unavailable",
			logging.Int64("tmdb_id", movieID),
			logging.Error(err),
		)
	} else {
		lookup.year, lookup.known = earliestOf(dates)
	}
	r.years[movieID] = lookup
	return lookup.year, lookup.known
}

func earliestOf(dates map[string][]time.Time) (int, bool) {
	earliest, found := 0, false
	for _, territory := range dates {
		for _, date := range territory {
			if date.IsZero() {
				continue
			}
			if year := date.Year(); !found || year < earliest {
				earliest, found = year, true
			}
		}
	}
	return earliest, found
}
