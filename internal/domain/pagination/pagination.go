package pagination

import "strings"

// Mode is a pagination strategy.
type Mode string

// Pagination modes.
const (
	// Paged shows one offset window per page.
	Paged Mode = "paged"
	// Infinite shows a growing prefix advanced by scrolling.
	Infinite Mode = "infinite"
	// LoadMore shows a growing prefix advanced by an explicit action.
	LoadMore Mode = "loadMore"
)

// DefaultPageSize applies when a page size is missing or not positive.
const DefaultPageSize = 20

// ParseMode maps free text to a mode, defaulting to Paged.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "infinite":
		return Infinite
	case "loadmore", "load-more":
		return LoadMore
	}
	return Paged
}

// Cumulative reports whether the mode shows a growing prefix.
func (m Mode) Cumulative() bool { return m == Infinite || m == LoadMore }

// State is the pagination state returned to the presentation layer.
type State struct {
	Mode        Mode `json:"mode"`
	CurrentPage int  `json:"currentPage"`
	PageSize    int  `json:"pageSize"`
	// TotalItems is the fetch-layer total, before search and facet filtering.
	TotalItems int `json:"totalItems"`
	// FilteredItems is the count after search and facet filtering.
	FilteredItems int  `json:"filteredItems"`
	HasMore       bool `json:"hasMore"`
}
