package catalog

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// SortKey selects the ordering of a candidate list.
type SortKey string

const (
	SortRating     SortKey = "rating"
	SortPopularity SortKey = "popularity"
	SortYear       SortKey = "year"
)

// ParseSortKey accepts rating, popularity or year. An empty value keeps ranking order.
func ParseSortKey(value string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(value))); key {
	case "", SortRating, SortPopularity, SortYear:
		return key, nil
	default:
		return "", fmt.Errorf("unknown sort key %q (want rating, popularity or year)", value)
	}
}

// SortCandidates orders list in place, highest first. Ties on the primary key
// fall back to the other two keys; candidates missing a value sort last.
func SortCandidates(list []Candidate, key SortKey) {
	var order []func(Candidate) float64
	switch key {
	case SortRating:
		order = []func(Candidate) float64{ratingOf, popularityOf, yearOf}
	case SortPopularity:
		order = []func(Candidate) float64{popularityOf, ratingOf, yearOf}
	case SortYear:
		order = []func(Candidate) float64{yearOf, ratingOf, popularityOf}
	default:
		return
	}
	slices.SortStableFunc(list, func(a, b Candidate) int {
		for _, value := range order {
			va, vb := value(a), value(b)
			switch {
			case va > vb:
				return -1
			case va < vb:
				return 1
			}
		}
		return 0
	})
}

func ratingOf(c Candidate) float64 {
	if c.VoteAverage == nil {
		return math.Inf(-1)
	}
	return *c.VoteAverage
}

func popularityOf(c Candidate) float64 {
	if c.Popularity == nil {
		return math.Inf(-1)
	}
	return *c.Popularity
}

func yearOf(c Candidate) float64 {
	year, ok := c.Year()
	if !ok {
		return math.Inf(-1)
	}
	return float64(year)
}
