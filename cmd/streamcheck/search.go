package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"streamcheck/internal/catalog"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var year string
	var sortFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "search <title>...",
		Short: "Search the catalog by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sortKey, err := catalog.ParseSortKey(sortFlag)
			if err != nil {
				return err
			}
			client, err := ctx.catalogClient()
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			results, err := client.SearchByTitle(cmd.Context(), query, strings.TrimSpace(year))
			if err != nil {
				return err
			}
			catalog.SortCandidates(results, sortKey)
			return printCandidates(cmd, results, jsonOut, fmt.Sprintf("No results for %q", query))
		},
	}

	cmd.Flags().StringVar(&year, "year", "", "Restrict results to a primary release year")
	cmd.Flags().StringVar(&sortFlag, "sort", "", "Sort by rating, popularity, or year (default: catalog relevance)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output results as JSON")
	return cmd
}

func newSimilarCommand(ctx *commandContext) *cobra.Command {
	var page int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "similar <tmdb-id>",
		Short: "List movies similar to a catalog title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			client, err := ctx.catalogClient()
			if err != nil {
				return err
			}
			results, err := client.Similar(cmd.Context(), id, page)
			if err != nil {
				return err
			}
			return printCandidates(cmd, results, jsonOut, "No similar titles")
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Result page")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output results as JSON")
	return cmd
}

func printCandidates(cmd *cobra.Command, results []catalog.Candidate, jsonOut bool, empty string) error {
	if jsonOut {
		if results == nil {
			results = []catalog.Candidate{}
		}
		return writeJSON(cmd, results)
	}
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, empty)
		return nil
	}
	fmt.Fprintln(out, renderTable(candidateHeaders, candidateRows(results), candidateAligns))
	return nil
}
