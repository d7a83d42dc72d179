package view

import (
	"math"
	"strings"

	"github.com/kailas-cloud/rollup/internal/domain/facet"
	"github.com/kailas-cloud/rollup/internal/domain/pagination"
)

// Mode is the layout the presentation layer renders.
type Mode string

// View modes.
const (
	List     Mode = "list"
	Table    Mode = "table"
	Card     Mode = "card"
	Kanban   Mode = "kanban"
	Calendar Mode = "calendar"
	Timeline Mode = "timeline"
)

// ParseMode maps free text to a view mode, defaulting to List.
func ParseMode(s string) Mode {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case List, Table, Card, Kanban, Calendar, Timeline:
		return m
	}
	return List
}

// SortDirection orders sort-by-field results.
type SortDirection string

// Sort directions.
const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// ParseSortDirection maps free text to a direction, defaulting to Asc.
func ParseSortDirection(s string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Desc
	}
	return Asc
}

// SavedView bundles presentation choices under a name. The engine only reads them.
type SavedView struct {
	ID             string          `json:"id" validate:"required"`
	Name           string          `json:"name"`
	Mode           Mode            `json:"viewMode"`
	SortField      string          `json:"sortField,omitempty"`
	SortDirection  SortDirection   `json:"sortDirection,omitempty"`
	GroupBy        string          `json:"groupBy,omitempty"`
	VisibleColumns []string        `json:"visibleColumns,omitempty"`
	Facets         facet.Selection `json:"facets,omitempty"`
	Default        bool            `json:"isDefault"`
}

// DefaultOf returns the first view flagged as default.
func DefaultOf(views []SavedView) (SavedView, bool) {
	for _, v := range views {
		if v.Default {
			return v, true
		}
	}
	return SavedView{}, false
}

// Action is a command the presentation layer offers on an item.
type Action struct {
	ID    string `json:"id" validate:"required"`
	Title string `json:"title" validate:"required"`
	Kind  string `json:"kind"`
	// URL may reference item fields as {FieldName}.
	URL  string `json:"url,omitempty"`
	Icon string `json:"icon,omitempty"`
	// RequiresWrite hides the action on read-only (federated) items.
	RequiresWrite bool `json:"requiresWrite,omitempty"`
}

// State is the session state owned by the presentation boundary.
// Every transition returns a new State; the receiver is left untouched.
type State struct {
	ViewMode       Mode            `json:"viewMode"`
	SortField      string          `json:"sortField,omitempty"`
	SortDirection  SortDirection   `json:"sortDirection,omitempty"`
	GroupBy        string          `json:"groupBy,omitempty"`
	Facets         facet.Selection `json:"facets,omitempty"`
	SearchText     string          `json:"searchText,omitempty"`
	Pagination     pagination.Mode `json:"paginationMode"`
	Page           int             `json:"page"`
	PageSize       int             `json:"pageSize"`
	SelectedItemID string          `json:"selectedItemId,omitempty"`
	VisibleColumns []string        `json:"visibleColumns,omitempty"`
}

// NewState returns the initial state for a pagination strategy and page size.
func NewState(mode pagination.Mode, pageSize int) State {
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	return State{
		ViewMode:      List,
		SortDirection: Asc,
		Facets:        facet.Selection{},
		Pagination:    mode,
		Page:          1,
		PageSize:      pageSize,
	}
}

// Normalize fills zero-valued members with their defaults.
func (s State) Normalize() State {
	if s.ViewMode == "" {
		s.ViewMode = List
	}
	if s.SortDirection == "" {
		s.SortDirection = Asc
	}
	if s.Pagination == "" {
		s.Pagination = pagination.Paged
	}
	if s.Page < 1 {
		s.Page = 1
	}
	if s.PageSize <= 0 {
		s.PageSize = pagination.DefaultPageSize
	}
	if s.Facets == nil {
		s.Facets = facet.Selection{}
	}
	return s
}

// SwitchMode changes the pagination strategy and resets to the first page.
func (s State) SwitchMode(m pagination.Mode) State {
	s.Pagination = m
	s.Page = 1
	return s
}

// LoadMore advances one page.
func (s State) LoadMore() State {
	if s.Page < math.MaxInt {
		s.Page++
	}
	return s
}

// GoTo moves to page n, clamped to 1.
func (s State) GoTo(n int) State {
	if n < 1 {
		n = 1
	}
	s.Page = n
	return s
}

// ToggleFacet flips a facet value and resets to the first page.
func (s State) ToggleFacet(field, value string) State {
	s.Facets = s.Facets.Toggle(field, value)
	s.Page = 1
	return s
}

// Search sets the free-text search and resets to the first page.
func (s State) Search(text string) State {
	s.SearchText = text
	s.Page = 1
	return s
}

// SortBy sets the sort field and direction.
func (s State) SortBy(field string, dir SortDirection) State {
	s.SortField = field
	s.SortDirection = dir
	return s
}

// Select marks an item as selected.
func (s State) Select(id string) State {
	s.SelectedItemID = id
	return s
}

// ApplyView loads a saved view into the state and resets to the first page.
func (s State) ApplyView(v SavedView) State {
	if v.Mode != "" {
		s.ViewMode = v.Mode
	}
	s.SortField = v.SortField
	if v.SortDirection != "" {
		s.SortDirection = v.SortDirection
	}
	s.GroupBy = v.GroupBy
	s.VisibleColumns = append([]string(nil), v.VisibleColumns...)
	s.Facets = v.Facets.Clone()
	s.Page = 1
	return s
}
