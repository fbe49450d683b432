package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"streamcheck/internal/catalog"
	"streamcheck/internal/watchlist"
)

// providerConcurrency bounds watch-provider lookups while enriching a list.
const providerConcurrency = 4

func newWatchlistCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage the local watchlist",
	}
	cmd.AddCommand(newWatchlistListCommand(ctx))
	cmd.AddCommand(newWatchlistProvidersCommand(ctx))
	cmd.AddCommand(newWatchlistAddCommand(ctx))
	cmd.AddCommand(newWatchlistRemoveCommand(ctx))
	return cmd
}

func newWatchlistListCommand(ctx *commandContext) *cobra.Command {
	var withProviders bool
	var streamingOnly bool
	var providerIDs []int64
	var region string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved titles, optionally with streaming availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if streamingOnly || len(providerIDs) > 0 {
				withProviders = true
			}
			var entries []watchlist.Entry
			err := ctx.withWatchlist(func(store *watchlist.Store) error {
				var err error
				entries, err = store.List(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}

			enriched := make([]watchlist.Enriched, len(entries))
			for i, entry := range entries {
				enriched[i] = watchlist.Enriched{Entry: entry}
			}
			if withProviders {
				enriched, region, err = enrichEntries(cmd, ctx, entries, region)
				if err != nil {
					return err
				}
			}
			if streamingOnly || len(providerIDs) > 0 {
				enriched = watchlist.FilterStreaming(enriched, providerIDs...)
			}

			if jsonOut {
				if enriched == nil {
					enriched = []watchlist.Enriched{}
				}
				return writeJSON(cmd, enriched)
			}
			out := cmd.OutOrStdout()
			if len(enriched) == 0 {
				fmt.Fprintln(out, "Watchlist is empty")
				return nil
			}
			headers := []string{"ID", "Title", "Year", "Rating", "Added"}
			aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft}
			if withProviders {
				headers = append(headers, "Streaming ("+region+")")
				aligns = append(aligns, alignLeft)
			}
			rows := make([][]string, 0, len(enriched))
			for _, entry := range enriched {
				row := []string{
					strconv.FormatInt(entry.ID, 10),
					entry.Title,
					candidateYear(entry.Candidate()),
					formatRating(entry.VoteAverage),
					entry.AddedAt.Local().Format("2006-01-02"),
				}
				if withProviders {
					var flatrate []catalog.Provider
					if entry.Providers != nil {
						flatrate = entry.Providers.Flatrate
					}
					row = append(row, providerNames(flatrate))
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			fmt.Fprintf(out, "%d titles\n", len(enriched))
			return nil
		},
	}

	cmd.Flags().BoolVar(&withProviders, "providers", false, "Show subscription streaming providers")
	cmd.Flags().BoolVar(&streamingOnly, "streaming-only", false, "Only list titles available on a subscription service")
	cmd.Flags().Int64SliceVar(&providerIDs, "provider-id", nil, "Only list titles streaming on these provider ids")
	cmd.Flags().StringVar(&region, "region", "", "Watch region (ISO 3166-1 code)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the watchlist as JSON")
	return cmd
}

func newWatchlistProvidersCommand(ctx *commandContext) *cobra.Command {
	var region string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Count the streaming providers covering the watchlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []watchlist.Entry
			err := ctx.withWatchlist(func(store *watchlist.Store) error {
				var err error
				entries, err = store.List(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}
			enriched, region, err := enrichEntries(cmd, ctx, entries, region)
			if err != nil {
				return err
			}
			counts := watchlist.AvailableProviders(enriched)
			if jsonOut {
				if counts == nil {
					counts = []watchlist.ProviderCount{}
				}
				return writeJSON(cmd, counts)
			}
			out := cmd.OutOrStdout()
			if len(counts) == 0 {
				fmt.Fprintf(out, "No watchlist titles stream in %s\n", region)
				return nil
			}
			rows := make([][]string, 0, len(counts))
			for _, count := range counts {
				rows = append(rows, []string{strconv.FormatInt(count.ID, 10), count.Name, strconv.Itoa(count.Count)})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Provider", "Titles"}, rows, []columnAlignment{alignRight, alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "Watch region (ISO 3166-1 code)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output provider counts as JSON")
	return cmd
}

func newWatchlistAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <tmdb-id>",
		Short: "Add a catalog title to the watchlist",
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
			details, err := client.Details(cmd.Context(), id)
			if err != nil {
				return err
			}
			return ctx.withWatchlist(func(store *watchlist.Store) error {
				inserted, err := store.Add(cmd.Context(), watchlist.FromCandidate(details.Candidate))
				if err != nil {
					return err
				}
				if inserted {
					fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", details.DisplayTitle())
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is already on the watchlist\n", details.DisplayTitle())
				}
				return nil
			})
		},
	}
}

func newWatchlistRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <tmdb-id>...",
		Aliases: []string{"rm"},
		Short:   "Remove titles from the watchlist",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseMovieID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return ctx.withWatchlist(func(store *watchlist.Store) error {
				out := cmd.OutOrStdout()
				for _, id := range ids {
					removed, err := store.Remove(cmd.Context(), id)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(out, "Removed %d\n", id)
					} else {
						fmt.Fprintf(out, "%d was not on the watchlist\n", id)
					}
				}
				return nil
			})
		},
	}
}

func enrichEntries(cmd *cobra.Command, ctx *commandContext, entries []watchlist.Entry, region string) ([]watchlist.Enriched, string, error) {
	client, err := ctx.catalogClient()
	if err != nil {
		return nil, "", err
	}
	logger, err := ctx.loggerValue()
	if err != nil {
		return nil, "", fmt.Errorf("create logger: %w", err)
	}
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = client.Region()
	}
	return watchlist.Enrich(cmd.Context(), entries, client, region, providerConcurrency, logger), region, nil
}
