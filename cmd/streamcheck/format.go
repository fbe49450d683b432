package main

import (
	"fmt"
	"strconv"
	"strings"

	"streamcheck/internal/catalog"
)

var candidateHeaders = []string{"ID", "Title", "Year", "Rating"}

var candidateAligns = []columnAlignment{alignRight, alignLeft, alignRight, alignRight}

func candidateRows(candidates []catalog.Candidate) [][]string {
	rows := make([][]string, 0, len(candidates))
	for _, candidate := range candidates {
		rows = append(rows, []string{
			strconv.FormatInt(candidate.ID, 10),
			candidate.Title,
			candidateYear(candidate),
			formatRating(candidate.VoteAverage),
		})
	}
	return rows
}

func candidateYear(candidate catalog.Candidate) string {
	if year, ok := candidate.Year(); ok {
		return strconv.Itoa(year)
	}
	return "-"
}

func formatRating(value *float64) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *value)
}

func providerNames(providers []catalog.Provider) string {
	if len(providers) == 0 {
		return "-"
	}
	names := make([]string, 0, len(providers))
	for _, provider := range providers {
		names = append(names, provider.Name)
	}
	return strings.Join(names, ", ")
}

func parseMovieID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movie id %q", value)
	}
	return id, nil
}
