package db

import "github.com/kailas-cloud/rollup/internal/domain/query"

// ListQuery is a point query against one named collection in one site.
type ListQuery struct {
	SiteURL    string
	Collection string
	// Fields selects the returned fields. Empty selects everything.
	Fields []string
	// ContentTypeID restricts rows to content types with this id prefix.
	ContentTypeID string
	// Filter is the compiled structured filter, passed verbatim to backends that speak it.
	Filter string
	// Query is the structured form, for backends that translate it themselves.
	Query   query.Query
	OrderBy string
	Desc    bool
	Top     int
}

// Row is one list item as returned by a list backend.
type Row map[string]any
