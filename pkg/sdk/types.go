package rollup

import (
	"context"
	"time"

	"github.com/kailas-cloud/rollup/internal/db"
	domagg "github.com/kailas-cloud/rollup/internal/domain/aggregation"
	"github.com/kailas-cloud/rollup/internal/domain/column"
	domfacet "github.com/kailas-cloud/rollup/internal/domain/facet"
	"github.com/kailas-cloud/rollup/internal/domain/group"
	"github.com/kailas-cloud/rollup/internal/domain/item"
	dompage "github.com/kailas-cloud/rollup/internal/domain/pagination"
	"github.com/kailas-cloud/rollup/internal/domain/query"
	"github.com/kailas-cloud/rollup/internal/domain/source"
	"github.com/kailas-cloud/rollup/internal/domain/view"
	"github.com/kailas-cloud/rollup/internal/settings"
	rollupuc "github.com/kailas-cloud/rollup/internal/usecase/rollup"
)

// Configuration and pipeline types.
type (
	Source            = source.Source
	SourceKind        = source.Kind
	Query             = query.Query
	Rule              = query.Rule
	RuleGroup         = query.Group
	Compiled          = query.Compiled
	Column            = column.Column
	AggregationConfig = domagg.Config
	AggregationResult = domagg.Result
	SavedView         = view.SavedView
	Action            = view.Action
	State             = view.State
	ViewMode          = view.Mode
	SortDirection     = view.SortDirection
	PaginationMode    = dompage.Mode
	Pagination        = dompage.State
	Item              = item.Item
	Value             = item.Value
	Group             = group.Group
	FacetGroup        = domfacet.Group
	ResolvedAction    = rollupuc.ResolvedAction

	// Raw holds JSON configuration members; Parse decodes them leniently.
	Raw    = settings.Raw
	Parsed = settings.Parsed
	Input  = rollupuc.Input
	Output = rollupuc.Output
)

// Backend request and row types.
type (
	ListQuery    = db.ListQuery
	Row          = db.Row
	SearchQuery  = db.SearchQuery
	SearchRow    = db.SearchRow
	SearchResult = db.SearchResult
)

// Source kinds.
const (
	ListCurrent          = source.ListCurrent
	ListOther            = source.ListOther
	SearchSite           = source.SearchSite
	SearchSiteCollection = source.SearchSiteCollection
	SearchAll            = source.SearchAll
)

// Pagination modes.
const (
	Paged    = dompage.Paged
	Infinite = dompage.Infinite
	LoadMore = dompage.LoadMore
)

// Sort directions.
const (
	Asc  = view.Asc
	Desc = view.Desc
)

// NewState returns the initial session state for a pagination mode and page size.
func NewState(mode PaginationMode, pageSize int) State {
	return view.NewState(mode, pageSize)
}

// ListBackend answers point queries against list collections.
type ListBackend interface {
	QueryList(ctx context.Context, q ListQuery) ([]Row, error)
}

// SearchBackend answers federated full-text queries.
type SearchBackend interface {
	Search(ctx context.Context, q SearchQuery) (SearchResult, error)
}

// KVStore is the key-value store behind the result cache.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// AudienceOracle reports whether the current user belongs to an audience group.
type AudienceOracle interface {
	IsMember(ctx context.Context, groupID string) (bool, error)
}
