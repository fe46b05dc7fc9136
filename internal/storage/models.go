package storage

import (
	"strings"
	"time"
)

// Status is the watch state of an entry. The list engine never interprets it.
type Status string

const (
	StatusPlanned  Status = "planned"
	StatusWatching Status = "watching"
	StatusWatched  Status = "watched"
	StatusDropped  Status = "dropped"
)

var statusCycle = []Status{StatusPlanned, StatusWatching, StatusWatched, StatusDropped}

// Next returns the status that follows s in the planned → dropped cycle.
func (s Status) Next() Status {
	for i, st := range statusCycle {
		if st == s {
			return statusCycle[(i+1)%len(statusCycle)]
		}
	}
	return StatusPlanned
}

// ParseStatus maps user input to a Status, defaulting to planned.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "planned", "plan", "todo":
		return StatusPlanned, true
	case "watching", "started":
		return StatusWatching, true
	case "watched", "done", "seen":
		return StatusWatched, true
	case "dropped":
		return StatusDropped, true
	default:
		return StatusPlanned, false
	}
}

type Entry struct {
	ID        string    `json:"id" toml:"id" yaml:"id"`
	Title     string    `json:"title" toml:"title" yaml:"title"`
	Tags      []string  `json:"tags,omitempty" toml:"tags,omitempty" yaml:"tags,omitempty"`
	Status    Status    `json:"status" toml:"status" yaml:"status"`
	MediaType string    `json:"media_type,omitempty" toml:"media_type,omitempty" yaml:"media_type,omitempty"`
	Year      int       `json:"year,omitempty" toml:"year,omitempty" yaml:"year,omitempty"`
	Link      string    `json:"link,omitempty" toml:"link,omitempty" yaml:"link,omitempty"`
	Notes     string    `json:"notes,omitempty" toml:"notes,omitempty" yaml:"notes,omitempty"`
	AddedBy   string    `json:"added_by,omitempty" toml:"added_by,omitempty" yaml:"added_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at" toml:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// ViewMode is the persisted layout preference of the list view.
type ViewMode string

const (
	ViewModeList ViewMode = "list"
	ViewModeGrid ViewMode = "grid"
)

// Toggle flips between grid and list.
func (m ViewMode) Toggle() ViewMode {
	if m == ViewModeGrid {
		return ViewModeList
	}
	return ViewModeGrid
}

// ParseViewMode accepts "grid" or "list"; anything else is list.
func ParseViewMode(s string) ViewMode {
	if strings.EqualFold(strings.TrimSpace(s), string(ViewModeGrid)) {
		return ViewModeGrid
	}
	return ViewModeList
}

// FeedSource is a watchlist feed that entries were imported from. The
// cache validators let a re-sync skip unchanged feeds.
type FeedSource struct {
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	LastFetched  time.Time `json:"last_fetched"`
	EntryCount   int       `json:"entry_count"`
}
