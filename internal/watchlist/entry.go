package watchlist

import (
	"time"

	"streamcheck/internal/catalog"
)

// Entry is one watchlist row.
type Entry struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	ReleaseDate *string   `json:"release_date,omitempty"`
	PosterPath  *string   `json:"poster_path,omitempty"`
	VoteAverage *float64  `json:"vote_average,omitempty"`
	Overview    *string   `json:"overview,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

// FromCandidate copies the displayable fields of a catalog record.
func FromCandidate(c catalog.Candidate) Entry {
	return Entry{
		ID:          c.ID,
		Title:       c.Title,
		ReleaseDate: c.ReleaseDate,
		PosterPath:  c.PosterPath,
		VoteAverage: c.VoteAverage,
		Overview:    c.Overview,
	}
}

// Candidate converts the entry back into a catalog record.
func (e Entry) Candidate() catalog.Candidate {
	return catalog.Candidate{
		ID:          e.ID,
		Title:       e.Title,
		ReleaseDate: e.ReleaseDate,
		PosterPath:  e.PosterPath,
		VoteAverage: e.VoteAverage,
		Overview:    e.Overview,
	}
}
