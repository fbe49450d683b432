package watchlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"streamcheck/internal/config"
	"streamcheck/internal/services"
)

// timestampLayout is fixed width so added_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Store manages watchlist persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the watchlist database in the data directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.WatchlistPath())
}

// OpenPath opens the database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create watchlist dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Add inserts entry unless its id is already present. It reports whether a
// new row was written; duplicates are not an error.
func (s *Store) Add(ctx context.Context, entry Entry) (bool, error) {
	if entry.ID <= 0 {
		return false, services.Wrap(services.ErrValidation, "watchlist", "add", fmt.Sprintf("invalid id %d", entry.ID), nil)
	}
	title := strings.TrimSpace(entry.Title)
	if title == "" {
		return false, services.Wrap(services.ErrValidation, "watchlist", "add", fmt.Sprintf("entry %d has no title", entry.ID), nil)
	}
	addedAt := entry.AddedAt
	if addedAt.IsZero() {
		addedAt = s.now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO watchlist_entries (
            id, title, release_date, poster_path, vote_average, overview, added_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		title,
		nullableString(entry.ReleaseDate),
		nullableString(entry.PosterPath),
		nullableFloat(entry.VoteAverage),
		nullableString(entry.Overview),
		addedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return false, fmt.Errorf("insert watchlist entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Remove deletes an entry and reports whether it existed.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM watchlist_entries WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete watchlist entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Contains reports whether id is on the watchlist.
func (s *Store) Contains(ctx context.Context, id int64) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM watchlist_entries WHERE id = ?`, id).Scan(&count); err != nil {
		return false, fmt.Errorf("check watchlist entry: %w", err)
	}
	return count > 0, nil
}

// Get fetches one entry. A missing id yields services.ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "watchlist", "get", fmt.Sprintf("id %d", id), nil)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns entries, most recently added first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY added_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist: %w", err)
	}
	return entries, nil
}

// Count returns the number of entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM watchlist_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count watchlist: %w", err)
	}
	return count, nil
}

const selectColumns = `SELECT id, title, release_date, poster_path, vote_average, overview, added_at FROM watchlist_entries`

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry       Entry
		releaseDate sql.NullString
		posterPath  sql.NullString
		voteAverage sql.NullFloat64
		overview    sql.NullString
		addedAt     string
	)
	if err := scanner.Scan(&entry.ID, &entry.Title, &releaseDate, &posterPath, &voteAverage, &overview, &addedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan watchlist entry: %w", err)
	}
	entry.ReleaseDate = stringPtr(releaseDate)
	entry.PosterPath = stringPtr(posterPath)
	entry.Overview = stringPtr(overview)
	if voteAverage.Valid {
		value := voteAverage.Float64
		entry.VoteAverage = &value
	}
	if parsed, err := time.Parse(timestampLayout, addedAt); err == nil {
		entry.AddedAt = parsed
	}
	return &entry, nil
}

func nullableString(value *string) any {
	if value == nil || *value == "" {
		return nil
	}
	return *value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid || value.String == "" {
		return nil
	}
	v := value.String
	return &v
}
