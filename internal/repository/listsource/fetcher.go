// Package listsource fetches items from a single named collection, either through the
// native backend of the current site or through the cross-site REST path.
package listsource

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rollup/internal/db"
	"github.com/kailas-cloud/rollup/internal/domain/item"
	"github.com/kailas-cloud/rollup/internal/domain/query"
	"github.com/kailas-cloud/rollup/internal/domain/source"
)

// RemoteFields is the reduced field set requested over the cross-site path.
var RemoteFields = []string{"ID", "Title", "Author", "Editor", "Created", "Modified", "FileRef", "FileLeafRef"}

// backend is the consumer interface for list backends (ISP).
type backend interface {
	QueryList(ctx context.Context, q db.ListQuery) ([]db.Row, error)
}

// Config holds fetcher parameters.
type Config struct {
	// CurrentSiteURL selects the native path for sources targeting it.
	CurrentSiteURL string
	// ContentTypeID is used when a source carries no content-type filter.
	ContentTypeID string
}

// Fetcher implements the list strategy. Fetch never fails: errors and panics
// from a backend degrade to an empty result.
type Fetcher struct {
	native      backend
	remote      backend
	currentSite string
	contentType string
	requests    *prometheus.CounterVec
	logger      *zap.Logger
}

// New creates a list fetcher. Either backend may be nil; sources routed to a
// missing backend yield no items. requests is a counter vec with labels
// "kind" and "status", passed explicitly.
func New(native, remote backend, cfg Config, requests *prometheus.CounterVec, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		native:      native,
		remote:      remote,
		currentSite: source.NormalizeSiteURL(cfg.CurrentSiteURL),
		contentType: cfg.ContentTypeID,
		requests:    requests,
		logger:      logger,
	}
}

// Fetch returns up to limit items of src ordered by Modified descending.
func (f *Fetcher) Fetch(ctx context.Context, src source.Source, q query.Query, limit int) (items []item.Item) {
	kind := string(src.Kind)
	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn("List fetch panicked",
				zap.String("source_id", src.ID), zap.String("kind", kind), zap.Any("panic", r))
			f.inc(kind, "error")
			items = nil
		}
	}()

	if !src.Kind.IsList() {
		f.logger.Warn("Source is not a list source", zap.String("source_id", src.ID), zap.String("kind", kind))
		f.inc(kind, "skipped")
		return nil
	}

	be, native := f.route(src)
	if be == nil {
		f.logger.Warn("No list backend for source",
			zap.String("source_id", src.ID), zap.Bool("native", native))
		f.inc(kind, "skipped")
		return nil
	}

	site := src.SiteURL
	if native && site == "" {
		site = f.currentSite
	}

	lq := db.ListQuery{
		SiteURL:       site,
		Collection:    src.CollectionName,
		ContentTypeID: f.contentTypeFor(src),
		Filter:        query.Compile(q).Filter,
		Query:         q,
		OrderBy:       item.FieldModified,
		Desc:          true,
		Top:           limit,
	}
	if !native {
		lq.Fields = RemoteFields
	}

	rows, err := be.QueryList(ctx, lq)
	if err != nil {
		f.logger.Warn("List fetch failed",
			zap.String("source_id", src.ID), zap.String("kind", kind), zap.Error(err))
		f.inc(kind, "error")
		return nil
	}

	items = make([]item.Item, 0, len(rows))
	for _, row := range rows {
		it, ok := rowToItem(row, src, site)
		if !ok {
			continue
		}
		items = append(items, it)
	}
	f.inc(kind, "ok")
	return items
}

// route picks the backend for src and reports whether it is the native one.
func (f *Fetcher) route(src source.Source) (backend, bool) {
	if src.SiteURL == "" || source.NormalizeSiteURL(src.SiteURL) == f.currentSite {
		return f.native, true
	}
	return f.remote, false
}

func (f *Fetcher) contentTypeFor(src source.Source) string {
	if src.ContentTypeID != "" {
		return src.ContentTypeID
	}
	return f.contentType
}

func (f *Fetcher) inc(kind, status string) {
	if f.requests != nil {
		f.requests.WithLabelValues(kind, status).Inc()
	}
}

// known row keys consumed by the canonical item fields.
var rowKeys = map[string]struct{}{
	"id": {}, "title": {}, "description": {}, "author": {}, "editor": {}, "created": {},
	"modified": {}, "fileref": {}, "fileleafref": {}, "filetype": {}, "file_x0020_type": {},
	"contenttype": {}, "category": {}, "listid": {},
}

func rowToItem(row db.Row, src source.Source, site string) (item.Item, bool) {
	get := func(names ...string) item.Value {
		for _, n := range names {
			for k, v := range row {
				if strings.EqualFold(k, n) {
					return item.FromAny(v)
				}
			}
		}
		return item.Null()
	}

	nativeID := get("ID").Text()
	if nativeID == "" {
		return item.Item{}, false
	}
	collectionID := get("ListId").Text()
	if collectionID == "" {
		collectionID = src.CollectionName
	}

	title := get("Title").Text()
	if title == "" {
		title = get("FileLeafRef").Text()
	}

	fields := make(map[string]item.Value)
	for k, v := range row {
		if _, ok := rowKeys[strings.ToLower(k)]; ok {
			continue
		}
		fields[k] = item.FromAny(v)
	}

	return item.New(item.Params{
		NativeID:       nativeID,
		Title:          title,
		Description:    get("Description").Text(),
		Author:         get("Author").Text(),
		Editor:         get("Editor").Text(),
		Created:        timeOf(get("Created")),
		Modified:       timeOf(get("Modified")),
		FileRef:        get("FileRef").Text(),
		FileType:       get("FileType", "File_x0020_Type").Text(),
		ContentType:    get("ContentType").Text(),
		Category:       get("Category").Text(),
		Fields:         fields,
		SourceURL:      site,
		SourceName:     siteName(site),
		CollectionID:   collectionID,
		CollectionName: src.CollectionName,
	}), true
}

func timeOf(v item.Value) time.Time {
	t, _ := v.Time()
	return t
}

// siteName returns the last path segment of a site URL.
func siteName(site string) string {
	site = strings.TrimRight(site, "/")
	if i := strings.LastIndexByte(site, '/'); i >= 0 {
		return site[i+1:]
	}
	return site
}
