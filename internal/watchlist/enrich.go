package watchlist

import (
	"context"
	"log/slog"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"streamcheck/internal/catalog"
	"streamcheck/internal/logging"
)

// ProviderFetcher looks up a title's providers in one territory.
type ProviderFetcher interface {
	WatchProviders(ctx context.Context, movieID int64, region string) (*catalog.Providers, error)
}

// Enriched pairs an entry with its providers. Providers is nil when the
// catalog had no data or the lookup failed.
type Enriched struct {
	Entry
	Providers *catalog.Providers `json:"providers,omitempty"`
}

// Enrich fetches providers for every entry with at most concurrency lookups in
// flight. Lookup failures are logged and leave Providers nil.
func Enrich(ctx context.Context, entries []Entry, fetcher ProviderFetcher, region string, concurrency int, logger *slog.Logger) []Enriched {
	if logger == nil {
		logger = logging.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	out := make([]Enriched, len(entries))
	p := pool.New().WithMaxGoroutines(concurrency)
	for i, entry := range entries {
		out[i] = Enriched{Entry: entry}
		if fetcher == nil {
			continue
		}
		p.Go(func() {
			providers, err := fetcher.WatchProviders(ctx, entry.ID, region)
			if err != nil {
				logger.Debug("watch providers unavailable",
					logging.Int64("tmdb_id", entry.ID),
					logging.String("region", region),
					logging.Error(err),
				)
				return
			}
			out[i].Providers = providers
		})
	}
	p.Wait()
	return out
}

// FilterStreaming keeps entries with at least one flatrate provider. When
// providerIDs is non-empty an entry must stream on one of those providers.
func FilterStreaming(entries []Enriched, providerIDs ...int64) []Enriched {
	wanted := make(map[int64]struct{}, len(providerIDs))
	for _, id := range providerIDs {
		wanted[id] = struct{}{}
	}
	var out []Enriched
	for _, entry := range entries {
		if !entry.Providers.HasFlatrate() {
			continue
		}
		if len(wanted) == 0 {
			out = append(out, entry)
			continue
		}
		for _, provider := range entry.Providers.Flatrate {
			if _, ok := wanted[provider.ID]; ok {
				out = append(out, entry)
				break
			}
		}
	}
	return out
}

// ProviderCount is a flatrate provider and how many entries stream on it.
type ProviderCount struct {
	catalog.Provider
	Count int `json:"count"`
}

// AvailableProviders tallies flatrate providers across entries, most common first.
func AvailableProviders(entries []Enriched) []ProviderCount {
	index := make(map[int64]int)
	var counts []ProviderCount
	for _, entry := range entries {
		if entry.Providers == nil {
			continue
		}
		for _, provider := range entry.Providers.Flatrate {
			if pos, ok := index[provider.ID]; ok {
				counts[pos].Count++
				continue
			}
			index[provider.ID] = len(counts)
			counts = append(counts, ProviderCount{Provider: provider, Count: 1})
		}
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}
