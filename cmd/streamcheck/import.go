package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"streamcheck/internal/letterboxd"
	"streamcheck/internal/logging"
	"streamcheck/internal/services"
	"streamcheck/internal/watchlist"
)

type importOptions struct {
	commit      bool
	interactive bool
	json        bool
	deselect    []int
}

type importReport struct {
	RunID     string                    `json:"run_id"`
	Source    string                    `json:"source"`
	Cancelled bool                      `json:"cancelled,omitempty"`
	Summary   letterboxd.Summary        `json:"summary"`
	Results   []letterboxd.MatchResult  `json:"results"`
	Commit    *letterboxd.CommitSummary `json:"commit,omitempty"`
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <letterboxd.csv>",
		Short: "Match a Letterboxd export against the catalog",
		Long: `Match every film in a Letterboxd CSV export against the catalog.

A row is matched when a search result has the same normalized title and its
earliest release year equals the year in the export. Rows are resolved one
at a time through the catalog proxy started with 'streamcheck serve'.

Use --interactive to search manually for rows that did not match, and
--commit to add the selected matches to the watchlist.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, ctx, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.commit, "commit", false, "Add selected matches to the watchlist")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Review unmatched rows with manual searches")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output the import report as JSON")
	cmd.Flags().IntSliceVar(&opts.deselect, "deselect", nil, "Row numbers to leave out of the commit")
	return cmd
}

func runImport(cmd *cobra.Command, ctx *commandContext, path string, opts importOptions) error {
	if opts.interactive && opts.json {
		return errors.New("--interactive cannot be combined with --json")
	}
	if opts.interactive && !isTerminalInput(cmd.InOrStdin()) {
		return errors.New("--interactive needs a terminal on stdin")
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.loggerValue()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	client, err := ctx.catalogClient()
	if err != nil {
		return err
	}

	rows, err := letterboxd.ReadCSV(ctx.fs, path)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s: no films found", path)
	}

	signalCtx, stop := signal.NotifyContext(commandBaseContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runID := uuid.NewString()
	runCtx := services.WithRunID(signalCtx, runID)
	runLogger := logging.WithContext(runCtx, logger)
	runLogger.Info("letterboxd import started",
		logging.String("source", path),
		logging.Int("rows", len(rows)),
	)

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	progress := func(index int, result letterboxd.MatchResult) {
		if opts.json {
			return
		}
		label := fmt.Sprintf("[%d/%d] %s", index+1, len(rows), result.Parsed.Label())
		fmt.Fprintln(out, renderStatusLine(label, matchStatusKind(result.Status), matchMessage(result), colorize))
	}

	matcher := letterboxd.NewMatcher(client, logger, letterboxd.WithCandidateLimit(cfg.Import.CandidateLimit))
	results, err := matcher.ResolveAll(runCtx, rows, letterboxd.WithProgress(progress))
	cancelled := false
	if err != nil {
		if !isCancellation(err) {
			return err
		}
		cancelled = true
	}

	session := letterboxd.NewSession(results, client,
		letterboxd.WithManualResultLimit(cfg.Import.ManualResultLimit),
		letterboxd.WithSessionLogger(logger),
	)
	for _, number := range opts.deselect {
		if err := session.SetSelected(number-1, false); err != nil {
			return fmt.Errorf("--deselect %d: %w", number, err)
		}
	}

	if opts.interactive && !cancelled {
		if err := reviewUnmatched(runCtx, cmd, session); err != nil {
			if !isCancellation(err) {
				return err
			}
			cancelled = true
		}
	}

	report := importReport{RunID: runID, Source: path, Cancelled: cancelled}
	if opts.commit && !cancelled {
		err := ctx.withWatchlist(func(store *watchlist.Store) error {
			summary, err := session.Commit(runCtx, store)
			report.Commit = &summary
			return err
		})
		if err != nil {
			if !isCancellation(err) {
				return err
			}
			report.Cancelled = true
		}
	}
	report.Summary = session.Summary()
	report.Results = session.Results()

	runLogger.Info("letterboxd import finished",
		logging.Int("found", report.Summary.Found),
		logging.Int("not_found", report.Summary.NotFound),
		logging.Int("errors", report.Summary.Errors),
		logging.Int("pending", report.Summary.Pending),
		logging.Bool("committed", report.Commit != nil),
	)

	if opts.json {
		if err := writeJSON(cmd, report); err != nil {
			return err
		}
	} else {
		renderImportReport(out, report, opts.commit, colorize)
	}
	if report.Cancelled {
		return context.Canceled
	}
	return nil
}

func renderImportReport(out io.Writer, report importReport, commitRequested bool, colorize bool) {
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Import results", colorize) {
		fmt.Fprintln(out, line)
	}

	rows := make([][]string, 0, len(report.Results))
	for i, result := range report.Results {
		match, year := "-", "-"
		if result.Movie != nil {
			match = result.Movie.Title
			year = candidateYear(*result.Movie)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			result.Parsed.Label(),
			matchStatusLabel(result),
			match,
			year,
			yesNo(result.Selected && result.Status == letterboxd.StatusFound),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Letterboxd", "Status", "Match", "Year", "Add"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))

	s := report.Summary
	fmt.Fprintf(out, "%d films: %d found (%d exact), %d not found, %d errors", s.Total, s.Found, s.Exact, s.NotFound, s.Errors)
	if s.Pending > 0 {
		fmt.Fprintf(out, ", %d not processed", s.Pending)
	}
	fmt.Fprintln(out)

	switch {
	case report.Commit != nil:
		c := report.Commit
		fmt.Fprintf(out, "Added %d new titles to the watchlist (%d already saved", c.Inserted, c.Duplicates)
		if len(c.Failures) > 0 {
			fmt.Fprintf(out, ", %d failed", len(c.Failures))
		}
		fmt.Fprintln(out, ")")
		for _, failure := range c.Failures {
			fmt.Fprintln(out, renderStatusLine(failure.Title, statusError, failure.Error, colorize))
		}
	case report.Cancelled:
		fmt.Fprintln(out, "Import cancelled; nothing was added to the watchlist")
	case !commitRequested && s.Selected > 0:
		fmt.Fprintf(out, "Re-run with --commit to add %d selected matches to the watchlist\n", s.Selected)
	}
}

func matchStatusLabel(result letterboxd.MatchResult) string {
	switch result.Status {
	case letterboxd.StatusFound:
		if result.ExactMatch {
			return "found"
		}
		return "found (manual)"
	case letterboxd.StatusNotFound:
		return "not found"
	case letterboxd.StatusError:
		return "error"
	default:
		return string(result.Status)
	}
}

func matchMessage(result letterboxd.MatchResult) string {
	switch result.Status {
	case letterboxd.StatusFound:
		if result.Movie != nil {
			return fmt.Sprintf("%s [tmdb %d]", result.Movie.DisplayTitle(), result.Movie.ID)
		}
		return ""
	case letterboxd.StatusError:
		return result.Error
	case letterboxd.StatusNotFound:
		return "no match"
	default:
		return ""
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func trimmedLower(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
