package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"streamcheck/internal/letterboxd"
)

// reviewUnmatched walks not-found and failed rows, running a manual search for
// each and letting the user pick a result, refine the query, or skip. End of
// input ends the review.
func reviewUnmatched(ctx context.Context, cmd *cobra.Command, session *letterboxd.Session) error {
	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	for index := 0; index < session.Len(); index++ {
		result, err := session.Result(index)
		if err != nil {
			return err
		}
		if result.Status != letterboxd.StatusNotFound && result.Status != letterboxd.StatusError {
			continue
		}
		query, err := session.DefaultQuery(index)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%d. %s [%s]\n", index+1, result.Parsed.Label(), matchStatusLabel(result))

	search:
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := session.ManualSearch(ctx, index, query); err != nil {
				return err
			}
			state, _ := session.Manual(index)
			printManualState(out, state)

			if len(state.Results) > 0 {
				fmt.Fprintf(out, "Pick 1-%d, type a new search, Enter to skip, q to stop: ", len(state.Results))
			} else {
				fmt.Fprint(out, "Type a new search, Enter to skip, q to stop: ")
			}
			if !in.Scan() {
				fmt.Fprintln(out)
				return in.Err()
			}
			answer := in.Text()
			switch trimmedLower(answer) {
			case "":
				break search
			case "q":
				return nil
			}
			if pick, err := strconv.Atoi(trimmedLower(answer)); err == nil && pick >= 1 && pick <= len(state.Results) {
				candidate := state.Results[pick-1]
				if err := session.AcceptManual(index, candidate); err != nil {
					return err
				}
				fmt.Fprintf(out, "Matched %s\n", candidate.DisplayTitle())
				break search
			}
			query = answer
		}
	}
	return nil
}

func printManualState(out io.Writer, state letterboxd.ManualState) {
	fmt.Fprintf(out, "Search %q\n", state.Query)
	if state.Err != "" {
		fmt.Fprintf(out, "  search failed: %s\n", state.Err)
		return
	}
	if len(state.Results) == 0 {
		fmt.Fprintln(out, "  no results")
		return
	}
	for i, candidate := range state.Results {
		fmt.Fprintf(out, "  %d) %s  rating %s  [tmdb %d]\n", i+1, candidate.DisplayTitle(), formatRating(candidate.VoteAverage), candidate.ID)
	}
}
