// Package rollup runs the aggregation pipeline: fetch, audience, facets,
// filtering, aggregation, sorting, pagination, grouping, styling and rendering.
package rollup

import (
	"context"

	"go.uber.org/zap"

	domagg "github.com/kailas-cloud/rollup/internal/domain/aggregation"
	"github.com/kailas-cloud/rollup/internal/domain/column"
	domfacet "github.com/kailas-cloud/rollup/internal/domain/facet"
	"github.com/kailas-cloud/rollup/internal/domain/group"
	"github.com/kailas-cloud/rollup/internal/domain/item"
	dompage "github.com/kailas-cloud/rollup/internal/domain/pagination"
	"github.com/kailas-cloud/rollup/internal/domain/query"
	"github.com/kailas-cloud/rollup/internal/domain/source"
	"github.com/kailas-cloud/rollup/internal/domain/view"
	"github.com/kailas-cloud/rollup/internal/usecase/aggregation"
	"github.com/kailas-cloud/rollup/internal/usecase/facet"
	"github.com/kailas-cloud/rollup/internal/usecase/fetch"
	"github.com/kailas-cloud/rollup/internal/usecase/grouping"
	"github.com/kailas-cloud/rollup/internal/usecase/pagination"
)

// DefaultMaxItemsPerSource caps every source when the service is built without a limit.
const DefaultMaxItemsPerSource = 500

// Input is one pipeline request.
type Input struct {
	Sources      []source.Source
	Query        query.Query
	Columns      []column.Column
	Aggregations []domagg.Config
	Actions      []view.Action
	State        view.State
	// Template is rendered over the visible items when not empty.
	Template string
	// ViewKey identifies the rendering view. A run cancels the in-flight render
	// of an earlier run with the same key; runs without a key render independently.
	ViewKey string
	// Refresh bypasses the item cache for this run.
	Refresh bool
}

// Output is the presentation-ready result of a run.
type Output struct {
	Items        []item.Item
	Groups       []group.Group
	Facets       []domfacet.Group
	Aggregations []domagg.Result
	Pagination   dompage.State
	Columns      []column.Column
	Styles       Styles
	// Actions maps item id to the actions bound to it.
	Actions   map[string][]ResolvedAction
	Fragments []string
	// RenderError is set when the template failed; Items and Groups stay populated.
	RenderError error
	FromCache   bool
	CycleID     string
}

// Service orchestrates one pipeline run per call.
type Service struct {
	fetcher   Fetcher
	audience  AudienceOracle
	renderer  Renderer
	refresher *Refresher
	maxItems  int
	logger    *zap.Logger
}

// New creates a Service. audience and renderer may be nil.
func New(fetcher Fetcher, audience AudienceOracle, renderer Renderer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fetcher:  fetcher,
		audience: audience,
		renderer: renderer,
		maxItems: DefaultMaxItemsPerSource,
		logger:   logger,
	}
}

// WithMaxItemsPerSource sets the per-source item cap.
func (s *Service) WithMaxItemsPerSource(n int) *Service {
	if n > 0 {
		s.maxItems = n
	}
	return s
}

// WithRefresher registers every run's fetch request with r for background refresh.
func (s *Service) WithRefresher(r *Refresher) *Service {
	s.refresher = r
	return s
}

// Refresh arms a one-shot cache bypass for the next fetch cycle.
func (s *Service) Refresh() {
	s.fetcher.RequestRefresh()
}

// Run executes the pipeline. Nothing after the fetch phase performs I/O
// except the audience oracle.
func (s *Service) Run(ctx context.Context, in Input) Output {
	state := in.State.Normalize()
	columns := in.Columns
	if len(columns) == 0 {
		columns = column.Defaults()
	}

	req := fetch.Request{
		Sources: in.Sources,
		Query:   in.Query,
		Page:    state.Page,
		Limit:   s.maxItems,
		Refresh: in.Refresh,
	}
	res := s.fetcher.Fetch(ctx, req)
	if s.refresher != nil {
		s.refresher.Register(req)
	}
	log := s.logger.With(zap.String("cycle_id", res.CycleID))

	items := filterAudience(ctx, s.audience, res.Items, log)

	// Facet options describe the set before search and facet filtering.
	facets := facet.Extract(items, columns)
	filtered := facet.ApplyFilters(items, state.Facets, state.SearchText)
	aggs := aggregation.Aggregate(filtered, in.Aggregations)

	sorted := SortItems(filtered, state.SortField, state.SortDirection)
	visible := pagination.Paginate(sorted, state.PageSize, state.Pagination, state.Page)
	shown := visibleColumns(columns, state.VisibleColumns)

	out := Output{
		Items:        visible,
		Groups:       grouping.Group(visible, state.GroupBy),
		Facets:       facets,
		Aggregations: aggs,
		Pagination:   pagination.NewState(state.Pagination, state.Page, state.PageSize, res.Total, len(filtered)),
		Columns:      shown,
		Styles:       CellStyles(visible, shown),
		FromCache:    res.FromCache,
		CycleID:      res.CycleID,
	}
	if len(in.Actions) > 0 {
		out.Actions = make(map[string][]ResolvedAction, len(visible))
		for _, it := range visible {
			out.Actions[it.ID()] = ActionsFor(in.Actions, it)
		}
	}

	if in.Template != "" && s.renderer != nil {
		fragments, err := s.renderer.Render(ctx, in.ViewKey, in.Template, visible, string(state.ViewMode))
		if err != nil {
			log.Error("Render failed", zap.Error(err))
			out.RenderError = err
		} else {
			out.Fragments = fragments
		}
	}

	log.Debug("Rollup run complete",
		zap.Int("fetched", len(res.Items)),
		zap.Int("filtered", len(filtered)),
		zap.Int("visible", len(visible)),
		zap.Bool("from_cache", res.FromCache),
	)
	return out
}
