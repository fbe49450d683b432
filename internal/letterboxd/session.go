package letterboxd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"streamcheck/internal/catalog"
	"streamcheck/internal/logging"
	"streamcheck/internal/services"
	"streamcheck/internal/watchlist"
)

// Searcher runs the unscoped search behind manual overrides.
type Searcher interface {
	SearchByTitle(ctx context.Context, title, year string) ([]catalog.Candidate, error)
}

// Inserter adds entries to the watchlist, reporting false for ids already present.
type Inserter interface {
	Add(ctx context.Context, entry watchlist.Entry) (bool, error)
}

// ManualState is the scratch state of a manual search on one row.
type ManualState struct {
	Query   string              `json:"query"`
	Results []catalog.Candidate `json:"results,omitempty"`
	Err     string              `json:"error,omitempty"`
}

// Session holds the reviewable results of one import. Manual search state is
// kept apart from the automatic results and is discarded once a manual pick
// is accepted.
type Session struct {
	mu       sync.Mutex
	results  []MatchResult
	manual   map[int]ManualState
	searcher Searcher
	limit    int
	logger   *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithManualResultLimit caps how many manual search results are kept.
func WithManualResultLimit(limit int) SessionOption {
	return func(s *Session) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithSessionLogger sets the logger for manual searches and commits.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logging.NewComponentLogger(logger, "letterboxd")
		}
	}
}

// NewSession starts a review over results, typically the output of ResolveAll.
func NewSession(results []MatchResult, searcher Searcher, opts ...SessionOption) *Session {
	s := &Session{
		results:  append([]MatchResult(nil), results...),
		manual:   make(map[int]ManualState),
		searcher: searcher,
		limit:    DefaultCandidateLimit,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Len returns the number of rows.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// Results returns a copy of the current results.
func (s *Session) Results() []MatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]MatchResult(nil), s.results...)
}

// Result returns one row.
func (s *Session) Result(index int) (MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIndex(index); err != nil {
		return MatchResult{}, err
	}
	return s.results[index], nil
}

// SetSelected sets the commit intent of one row.
func (s *Session) SetSelected(index int, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.results[index].Selected = selected
	return nil
}

// ToggleSelected flips the commit intent of one row and returns the new value.
func (s *Session) ToggleSelected(index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIndex(index); err != nil {
		return false, err
	}
	s.results[index].Selected = !s.results[index].Selected
	return s.results[index].Selected, nil
}

// DefaultQuery is the manual search text offered for a row: its title and year.
func (s *Session) DefaultQuery(index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIndex(index); err != nil {
		return "", err
	}
	row := s.results[index].Parsed
	return strings.TrimSpace(row.Title + " " + row.Year), nil
}

// ManualSearch runs an unscoped search for one row and replaces its manual
// state. A blank query falls back to DefaultQuery. Search failures are stored
// in the manual state, not returned; the error result is reserved for an
// invalid index or a missing searcher.
func (s *Session) ManualSearch(ctx context.Context, index int, query string) error {
	s.mu.Lock()
	if err := s.checkIndex(index); err != nil {
		s.mu.Unlock()
		return err
	}
	row := s.results[index].Parsed
	s.mu.Unlock()

	if s.searcher == nil {
		return services.Wrap(services.ErrConfiguration, "letterboxd", "manual search", "catalog client unavailable", nil)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		query = strings.TrimSpace(row.Title + " " + row.Year)
	}

	state := ManualState{Query: query}
	results, err := s.searcher.SearchByTitle(ctx, query, "")
	if err != nil {
		state.Err = err.Error()
		logging.WithContext(services.WithRow(ctx, index), s.logger).Warn("manual search failed",
			logging.String("query", query),
			logging.Error(err),
		)
	} else {
		if len(results) > s.limit {
			results = results[:s.limit]
		}
		state.Results = results
	}

	s.mu.Lock()
	s.manual[index] = state
	s.mu.Unlock()
	return nil
}

// Manual returns the manual search state of a row, if any.
func (s *Session) Manual(index int) (ManualState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.manual[index]
	return state, ok
}

// AcceptManual resolves a row to a candidate from its manual results, matched
// by id. The stored movie is the session's copy of that result, not the
// caller's value. The row becomes found and selected but never an exact
// match, and its manual state is cleared.
func (s *Session) AcceptManual(index int, candidate catalog.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIndex(index); err != nil {
		return err
	}
	state, ok := s.manual[index]
	var picked catalog.Candidate
	if ok {
		picked, ok = findCandidate(state.Results, candidate.ID)
	}
	if !ok {
		return services.Wrap(services.ErrValidation, "letterboxd", "accept manual",
			fmt.Sprintf("candidate %d is not among row %d manual results", candidate.ID, index), nil)
	}
	s.results[index] = MatchResult{
		Parsed:     s.results[index].Parsed,
		Status:     StatusFound,
		Movie:      &picked,
		Selected:   true,
		ExactMatch: false,
	}
	delete(s.manual, index)
	s.logger.Info("manual match accepted", logging.Args(append(
		logging.DecisionAttrs("letterboxd_match", string(StatusFound), "manual_override"),
		logging.Int(logging.FieldRow, index),
		logging.Int64("tmdb_id", candidate.ID),
	)...)...)
	return nil
}

// CommitFailure records a row the watchlist rejected.
type CommitFailure struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Error string `json:"error"`
}

// CommitSummary reports what a commit did.
type CommitSummary struct {
	Attempted  int             `json:"attempted"`
	Inserted   int             `json:"inserted"`
	Duplicates int             `json:"duplicates"`
	Failures   []CommitFailure `json:"failures,omitempty"`
}

// Commit inserts every selected found row. Duplicates and rejected entries do
// not stop the remaining inserts; only Inserted counts new watchlist entries.
// The error is non-nil only when ctx ends the commit early.
func (s *Session) Commit(ctx context.Context, inserter Inserter) (CommitSummary, error) {
	summary := CommitSummary{}
	if inserter == nil {
		return summary, services.Wrap(services.ErrConfiguration, "letterboxd", "commit", "watchlist unavailable", nil)
	}
	for index, result := range s.Results() {
		if !result.Selected || result.Status != StatusFound || result.Movie == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Attempted++
		inserted, err := inserter.Add(ctx, watchlist.FromCandidate(*result.Movie))
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, ctxErr
			}
			summary.Failures = append(summary.Failures, CommitFailure{Index: index, Title: result.Movie.Title, Error: err.Error()})
			logging.WithContext(services.WithRow(ctx, index), s.logger).Warn("watchlist insert failed",
				logging.Int64("tmdb_id", result.Movie.ID),
				logging.Error(err),
			)
		case inserted:
			summary.Inserted++
		default:
			summary.Duplicates++
		}
	}
	s.logger.Info("import committed",
		logging.Int("attempted", summary.Attempted),
		logging.Int("inserted", summary.Inserted),
		logging.Int("duplicates", summary.Duplicates),
		logging.Int("failed", len(summary.Failures)),
	)
	return summary, nil
}

// Summary counts rows per status.
type Summary struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Found    int `json:"found"`
	Exact    int `json:"exact"`
	NotFound int `json:"not_found"`
	Errors   int `json:"errors"`
	Selected int `json:"selected"`
}

// Summary tallies the current results. Selected counts rows a commit would insert.
func (s *Session) Summary() Summary {
	return Summarize(s.Results())
}

// Summarize tallies results.
func Summarize(results []MatchResult) Summary {
	summary := Summary{Total: len(results)}
	for _, result := range results {
		switch result.Status {
		case StatusPending:
			summary.Pending++
		case StatusFound:
			summary.Found++
			if result.ExactMatch {
				summary.Exact++
			}
			if result.Selected {
				summary.Selected++
			}
		case StatusNotFound:
			summary.NotFound++
		case StatusError:
			summary.Errors++
		}
	}
	return summary
}

func (s *Session) checkIndex(index int) error {
	if index < 0 || index >= len(s.results) {
		return services.Wrap(services.ErrValidation, "letterboxd", "session", fmt.Sprintf("row %d out of range", index), nil)
	}
	return nil
}

func findCandidate(list []catalog.Candidate, id int64) (catalog.Candidate, bool) {
	for _, candidate := range list {
		if candidate.ID == id {
			return candidate, true
		}
	}
	return catalog.Candidate{}, false
}
