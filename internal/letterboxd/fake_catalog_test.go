package letterboxd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"streamcheck/internal/catalog"
)

type searchCall struct {
	title string
	year  string
}

// fakeCatalog answers searches from a table keyed by "title|year".
type fakeCatalog struct {
	mu           sync.Mutex
	searches     map[string][]catalog.Candidate
	searchErrs   map[string]error
	years        map[int64]int
	releaseErrs  map[int64]error
	searchCalls  []searchCall
	releaseCalls map[int64]int
	onSearch     func(title, year string)
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		searches:     map[string][]catalog.Candidate{},
		searchErrs:   map[string]error{},
		years:        map[int64]int{},
		releaseErrs:  map[int64]error{},
		releaseCalls: map[int64]int{},
	}
}

func (f *fakeCatalog) SearchByTitle(ctx context.Context, title, year string) ([]catalog.Candidate, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, searchCall{title: title, year: year})
	hook := f.onSearch
	key := title + "|" + year
	results, err := f.searches[key], f.searchErrs[key]
	f.mu.Unlock()
	if hook != nil {
		hook(title, year)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}
	return append([]catalog.Candidate(nil), results...), nil
}

func (f *fakeCatalog) ReleaseDates(_ context.Context, id int64) (map[string][]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releaseCalls[id]++
	if err := f.releaseErrs[id]; err != nil {
		return nil, err
	}
	year, ok := f.years[id]
	if !ok {
		return map[string][]time.Time{}, nil
	}
	return map[string][]time.Time{
		"US": {time.Date(year+2, 3, 1, 0, 0, 0, 0, time.UTC)},
		"FR": {time.Date(year, 5, 25, 0, 0, 0, 0, time.UTC), time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC)},
	}, nil
}

func (f *fakeCatalog) releaseCallCount(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releaseCalls[id]
}

func ranked(list ...catalog.Candidate) []catalog.Candidate {
	return list
}

func candidate(id int64, title string) catalog.Candidate {
	return catalog.Candidate{ID: id, Title: title}
}

var errUpstream = errors.New("upstream unavailable")

func failingSearch(status int) error {
	return fmt.Errorf("lookup failed: catalog: search: status %d", status)
}
