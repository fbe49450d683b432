package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"streamcheck/internal/catalog"
)

func newPopularCommand(ctx *commandContext) *cobra.Command {
	var page int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "popular",
		Short: "List currently popular movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.catalogClient()
			if err != nil {
				return err
			}
			result, err := client.Popular(cmd.Context(), page)
			if err != nil {
				return err
			}
			return printPage(cmd, result, jsonOut)
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Result page")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output results as JSON")
	return cmd
}

func newGenresCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "genres",
		Short: "List catalog genres and their ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.catalogClient()
			if err != nil {
				return err
			}
			genres, err := client.Genres(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, genres)
			}
			rows := make([][]string, 0, len(genres))
			for _, genre := range genres {
				rows = append(rows, []string{strconv.FormatInt(genre.ID, 10), genre.Name})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Genre"}, rows, []columnAlignment{alignRight, alignLeft}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output genres as JSON")
	return cmd
}

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	var query catalog.DiscoverQuery
	var genres []int64
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List movies streaming on a provider",
		Long: `List movies available on a subscription streaming provider.

The provider defaults to the proxy's server.discover_provider setting and the
region to tmdb.region. Use 'streamcheck genres' to find genre ids.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.catalogClient()
			if err != nil {
				return err
			}
			query.Genres = genres
			result, err := client.Discover(cmd.Context(), query)
			if err != nil {
				return err
			}
			return printPage(cmd, result, jsonOut)
		},
	}

	cmd.Flags().StringVar(&query.Provider, "provider", "", "Streaming provider name, e.g. Netflix")
	cmd.Flags().StringVar(&query.Region, "region", "", "Watch region (ISO 3166-1 code)")
	cmd.Flags().Int64SliceVar(&genres, "genre", nil, "Genre ids to require")
	cmd.Flags().StringVar(&query.Sort, "sort", "", "Catalog sort order, e.g. vote_average.desc")
	cmd.Flags().IntVar(&query.Page, "page", 1, "Result page")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output results as JSON")
	return cmd
}

func newMovieCommand(ctx *commandContext) *cobra.Command {
	var region string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "movie <tmdb-id>",
		Short: "Show a movie with its streaming availability",
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
			if strings.TrimSpace(region) == "" {
				region = client.Region()
			}
			details, err := client.Details(cmd.Context(), id)
			if err != nil {
				return err
			}
			providers, err := client.WatchProviders(cmd.Context(), id, region)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, struct {
					*catalog.Details
					Region    string             `json:"region"`
					Providers *catalog.Providers `json:"providers,omitempty"`
				}{details, region, providers})
			}
			printMovie(cmd, details, region, providers)
			return nil
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "Watch region (ISO 3166-1 code)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the movie as JSON")
	return cmd
}

func printMovie(cmd *cobra.Command, details *catalog.Details, region string, providers *catalog.Providers) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader(details.DisplayTitle(), colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "TMDB id:   %d\n", details.ID)
	fmt.Fprintf(out, "Rating:    %s\n", formatRating(details.VoteAverage))
	if details.Runtime != nil {
		fmt.Fprintf(out, "Runtime:   %d min\n", *details.Runtime)
	}
	if len(details.Genres) > 0 {
		names := make([]string, 0, len(details.Genres))
		for _, genre := range details.Genres {
			names = append(names, genre.Name)
		}
		fmt.Fprintf(out, "Genres:    %s\n", strings.Join(names, ", "))
	}
	if details.Overview != nil {
		fmt.Fprintf(out, "\n%s\n", *details.Overview)
	}
	fmt.Fprintln(out)
	if providers == nil {
		fmt.Fprintln(out, renderStatusLine("Streaming in "+region, statusWarn, "no providers listed", colorize))
		return
	}
	kind := statusWarn
	if providers.HasFlatrate() {
		kind = statusOK
	}
	fmt.Fprintln(out, renderStatusLine("Streaming in "+region, kind, providerNames(providers.Flatrate), colorize))
	fmt.Fprintln(out, renderStatusLine("Rent", statusInfo, providerNames(providers.Rent), colorize))
	fmt.Fprintln(out, renderStatusLine("Buy", statusInfo, providerNames(providers.Buy), colorize))
}

func printPage(cmd *cobra.Command, page *catalog.Page, jsonOut bool) error {
	if jsonOut {
		return writeJSON(cmd, page)
	}
	out := cmd.OutOrStdout()
	if len(page.Results) == 0 {
		fmt.Fprintln(out, "No results")
		return nil
	}
	fmt.Fprintln(out, renderTable(candidateHeaders, candidateRows(page.Results), candidateAligns))
	fmt.Fprintf(out, "Page %d of %d (%d titles)\n", page.Page, page.TotalPages, page.TotalResults)
	return nil
}
