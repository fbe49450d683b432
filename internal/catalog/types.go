package catalog

import (
	"strconv"
	"strings"
	"time"
)

// Candidate is a catalog movie record.
type Candidate struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	ReleaseDate *string  `json:"release_date,omitempty"`
	PosterPath  *string  `json:"poster_path,omitempty"`
	VoteAverage *float64 `json:"vote_average,omitempty"`
	Overview    *string  `json:"overview,omitempty"`
	Popularity  *float64 `json:"popularity,omitempty"`
}

// Year returns the release year encoded in ReleaseDate.
func (c Candidate) Year() (int, bool) {
	if c.ReleaseDate == nil || len(*c.ReleaseDate) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi((*c.ReleaseDate)[:4])
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}

// DisplayTitle renders "Title (Year)" or just the title when the year is unknown.
func (c Candidate) DisplayTitle() string {
	if year, ok := c.Year(); ok {
		return c.Title + " (" + strconv.Itoa(year) + ")"
	}
	return c.Title
}

// Genre is a catalog genre.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Details extends a Candidate with fields only the detail endpoint returns.
type Details struct {
	Candidate
	Runtime *int    `json:"runtime,omitempty"`
	Genres  []Genre `json:"genres,omitempty"`
}

// Page is one page of a list endpoint.
type Page struct {
	Page         int         `json:"page"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
	Results      []Candidate `json:"results"`
}

// Provider is a streaming service entry.
type Provider struct {
	ID              int64  `json:"provider_id"`
	Name            string `json:"provider_name"`
	LogoPath        string `json:"logo_path,omitempty"`
	DisplayPriority int    `json:"display_priority,omitempty"`
}

// Providers groups a title's providers in one territory by monetization type.
type Providers struct {
	Link     string     `json:"link,omitempty"`
	Flatrate []Provider `json:"flatrate,omitempty"`
	Rent     []Provider `json:"rent,omitempty"`
	Buy      []Provider `json:"buy,omitempty"`
}

// HasFlatrate reports whether the title streams on at least one subscription service.
func (p *Providers) HasFlatrate() bool {
	return p != nil && len(p.Flatrate) > 0
}

// DiscoverQuery narrows the discover-by-provider listing.
type DiscoverQuery struct {
	Provider string
	Region   string
	Genres   []int64
	Sort     string
	Page     int
}

func optionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (c *Candidate) clean() {
	c.Title = strings.TrimSpace(c.Title)
	c.ReleaseDate = optionalString(c.ReleaseDate)
	c.PosterPath = optionalString(c.PosterPath)
	c.Overview = optionalString(c.Overview)
}

func cleanCandidates(list []Candidate) []Candidate {
	out := make([]Candidate, 0, len(list))
	for _, candidate := range list {
		if candidate.ID <= 0 {
			continue
		}
		candidate.clean()
		out = append(out, candidate)
	}
	return out
}

// parseReleaseDate accepts the ISO timestamps TMDB emits and bare dates.
func parseReleaseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}
