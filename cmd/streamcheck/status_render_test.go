package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"streamcheck/internal/catalog"
	"streamcheck/internal/letterboxd"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("[1/3] Heat (1995)", statusError, "proxy unavailable", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "[1/3] Heat (1995):", "[ERROR] proxy unavailable")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Heat", statusOK, "", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, "[OK]"+ansiReset) {
		t.Fatalf("expected bare status with reset suffix, got %q", got)
	}
}

func TestMatchStatusRendering(t *testing.T) {
	title := "Heat"
	movie := &catalog.Candidate{ID: 949, Title: title}
	cases := []struct {
		result letterboxd.MatchResult
		kind   statusKind
		label  string
	}{
		{letterboxd.MatchResult{Status: letterboxd.StatusFound, Movie: movie, ExactMatch: true}, statusOK, "found"},
		{letterboxd.MatchResult{Status: letterboxd.StatusFound, Movie: movie}, statusOK, "found (manual)"},
		{letterboxd.MatchResult{Status: letterboxd.StatusNotFound}, statusWarn, "not found"},
		{letterboxd.MatchResult{Status: letterboxd.StatusError, Error: "boom"}, statusError, "error"},
		{letterboxd.MatchResult{Status: letterboxd.StatusPending}, statusInfo, "pending"},
	}
	for _, tc := range cases {
		if got := matchStatusKind(tc.result.Status); got != tc.kind {
			t.Fatalf("matchStatusKind(%s) = %d, want %d", tc.result.Status, got, tc.kind)
		}
		if got := matchStatusLabel(tc.result); got != tc.label {
			t.Fatalf("matchStatusLabel(%s) = %q, want %q", tc.result.Status, got, tc.label)
		}
	}
	if got := matchMessage(cases[3].result); got != "boom" {
		t.Fatalf("error message = %q", got)
	}
	if got := matchMessage(cases[0].result); got != "Heat [tmdb 949]" {
		t.Fatalf("found message = %q", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"ID", "Title", "Year"}, [][]string{{"949", "Heat"}}, []columnAlignment{alignRight})
	if !strings.Contains(out, "Heat") || !strings.Contains(out, "Year") {
		t.Fatalf("unexpected table:\n%s", out)
	}
	if renderTable(nil, [][]string{{"x"}}, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestCandidateRowsFormatsMissingValues(t *testing.T) {
	date := "1995-12-15"
	rating := 7.94
	rows := candidateRows([]catalog.Candidate{
		{ID: 949, Title: "Heat", ReleaseDate: &date, VoteAverage: &rating},
		{ID: 1, Title: "Untitled"},
	})
	if got := strings.Join(rows[0], "|"); got != "949|Heat|1995|7.9" {
		t.Fatalf("row 0 = %q", got)
	}
	if got := strings.Join(rows[1], "|"); got != "1|Untitled|-|-" {
		t.Fatalf("row 1 = %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
	if !isTerminalInput(strings.NewReader("")) {
		t.Fatalf("expected non-file reader to count as interactive")
	}
}
