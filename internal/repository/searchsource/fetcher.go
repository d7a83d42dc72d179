// Package searchsource fetches items through the federated full-text search backend.
package searchsource

import (
	"context"
	"errors"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rollup/internal/db"
	"github.com/kailas-cloud/rollup/internal/domain/item"
	"github.com/kailas-cloud/rollup/internal/domain/query"
	"github.com/kailas-cloud/rollup/internal/domain/source"
)

var errNoKey = errors.New("row has neither list, document nor path key")

// SortField orders federated results by recency.
const SortField = "LastModifiedTime"

// SelectProperties is the fixed attribute list requested from the backend.
var SelectProperties = []string{
	"Title", "Path", "Author", "EditorOWSUSER", "Created", "LastModifiedTime",
	"FileExtension", "FileType", "ContentType", "ContentTypeId", "Description",
	"SiteName", "SiteTitle", "SPSiteUrl", "SiteId", "ListId", "ListItemID", "DocId",
	"ListTitle", "RefinableString00",
}

// backend is the consumer interface for the federated search backend (ISP).
type backend interface {
	Search(ctx context.Context, q db.SearchQuery) (db.SearchResult, error)
}

// row is the typed shape of one federated result.
type row struct {
	Title            string `mapstructure:"Title"`
	Path             string `mapstructure:"Path"`
	Author           string `mapstructure:"Author"`
	Editor           string `mapstructure:"EditorOWSUSER"`
	Created          string `mapstructure:"Created"`
	LastModifiedTime string `mapstructure:"LastModifiedTime"`
	FileExtension    string `mapstructure:"FileExtension"`
	FileType         string `mapstructure:"FileType"`
	ContentType      string `mapstructure:"ContentType"`
	Description      string `mapstructure:"Description"`
	SiteName         string `mapstructure:"SiteName"`
	SiteTitle        string `mapstructure:"SiteTitle"`
	SPSiteURL        string `mapstructure:"SPSiteUrl"`
	SiteID           string `mapstructure:"SiteId"`
	ListID           string `mapstructure:"ListId"`
	ListItemID       string `mapstructure:"ListItemID"`
	DocID            string `mapstructure:"DocId"`
	ListTitle        string `mapstructure:"ListTitle"`
	Category         string `mapstructure:"RefinableString00"`
	// Extra collects the attributes without a typed field.
	Extra map[string]string `mapstructure:",remain"`
}

// Config holds fetcher parameters.
type Config struct {
	// CurrentSiteURL scopes search-site and search-sitecollection sources without a site.
	CurrentSiteURL string
	// ContentTypeID is used when a source carries no content-type filter.
	ContentTypeID string
}

// Fetcher implements the federated search strategy. Fetch never fails.
type Fetcher struct {
	backend     backend
	currentSite string
	contentType string
	requests    *prometheus.CounterVec
	logger      *zap.Logger
}

// New creates a search fetcher. requests is a counter vec with labels "kind" and "status".
func New(b backend, cfg Config, requests *prometheus.CounterVec, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		backend:     b,
		currentSite: strings.TrimRight(strings.TrimSpace(cfg.CurrentSiteURL), "/"),
		contentType: cfg.ContentTypeID,
		requests:    requests,
		logger:      logger,
	}
}

// Fetch runs the federated query for src and maps up to limit rows into items.
func (f *Fetcher) Fetch(ctx context.Context, src source.Source, q query.Query, limit int) (items []item.Item) {
	kind := string(src.Kind)
	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn("Search fetch panicked",
				zap.String("source_id", src.ID), zap.String("kind", kind), zap.Any("panic", r))
			f.inc(kind, "error")
			items = nil
		}
	}()

	if !src.Kind.IsSearch() || f.backend == nil {
		f.logger.Warn("Search source skipped",
			zap.String("source_id", src.ID), zap.String("kind", kind), zap.Bool("backend", f.backend != nil))
		f.inc(kind, "skipped")
		return nil
	}

	res, err := f.backend.Search(ctx, db.SearchQuery{
		Text:             f.BuildText(src, q),
		SelectProperties: SelectProperties,
		SortField:        SortField,
		SortDesc:         true,
		TrimDuplicates:   true,
		Interleave:       true,
		RowLimit:         limit,
	})
	if err != nil {
		f.logger.Warn("Search fetch failed",
			zap.String("source_id", src.ID), zap.String("kind", kind), zap.Error(err))
		f.inc(kind, "error")
		return nil
	}

	items = make([]item.Item, 0, len(res.Rows))
	for _, raw := range res.Rows {
		it, err := decodeRow(raw)
		if err != nil {
			f.logger.Debug("Skipping search row", zap.String("source_id", src.ID), zap.Error(err))
			continue
		}
		items = append(items, it)
	}
	f.inc(kind, "ok")
	return items
}

// BuildText assembles the full-text query: compiled query, content-type clause and scope clause.
// An empty result becomes "*".
func (f *Fetcher) BuildText(src source.Source, q query.Query) string {
	var parts []string
	if text := query.Compile(q).FullText; text != "" {
		parts = append(parts, wrap(text))
	}
	ct := src.ContentTypeID
	if ct == "" {
		ct = f.contentType
	}
	if ct != "" {
		parts = append(parts, "ContentTypeId:"+ct+"*")
	}
	if scope := f.scopeClause(src); scope != "" {
		parts = append(parts, scope)
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " AND ")
}

func (f *Fetcher) scopeClause(src source.Source) string {
	site := strings.TrimRight(strings.TrimSpace(src.SiteURL), "/")
	if site == "" {
		site = f.currentSite
	}
	if site == "" {
		return ""
	}
	switch src.Kind {
	case source.SearchSite:
		return `Path:"` + site + `*"`
	case source.SearchSiteCollection:
		return `SPSiteUrl:"` + site + `"`
	default:
		return ""
	}
}

// wrap parenthesizes a compiled query containing OR so the appended clauses bind to all of it.
func wrap(text string) string {
	if strings.Contains(text, " OR ") {
		return "(" + text + ")"
	}
	return text
}

func (f *Fetcher) inc(kind, status string) {
	if f.requests != nil {
		f.requests.WithLabelValues(kind, status).Inc()
	}
}

func decodeRow(raw db.SearchRow) (item.Item, error) {
	var r row
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &r, WeaklyTypedInput: true})
	if err != nil {
		return item.Item{}, err
	}
	if err := dec.Decode(map[string]string(raw)); err != nil {
		return item.Item{}, err
	}

	collectionID, nativeID := r.ListID, r.ListItemID
	var id string
	switch {
	case r.ListID != "" && r.ListItemID != "":
		id = item.CompositeID(r.ListID, r.ListItemID)
	case r.SiteID != "" && r.DocID != "":
		collectionID, nativeID = r.SiteID, r.DocID
		id = item.CompositeID(r.SiteID, r.DocID)
	case r.Path != "":
		nativeID = r.Path
		id = r.Path
	default:
		return item.Item{}, errNoKey
	}

	fields := make(map[string]item.Value, len(r.Extra)+1)
	for k, v := range r.Extra {
		fields[k] = item.Raw(v)
	}
	if r.Path != "" {
		fields["Path"] = item.String(r.Path)
	}

	fileType := r.FileExtension
	if fileType == "" {
		fileType = r.FileType
	}
	sourceName := r.SiteTitle
	if sourceName == "" {
		sourceName = r.SiteName
	}

	created, _ := item.ParseTime(r.Created)
	modified, _ := item.ParseTime(r.LastModifiedTime)
	return item.New(item.Params{
		ID:             id,
		NativeID:       nativeID,
		Title:          r.Title,
		Description:    r.Description,
		Author:         firstPerson(r.Author),
		Editor:         firstPerson(r.Editor),
		Created:        created,
		Modified:       modified,
		FileRef:        r.Path,
		FileType:       fileType,
		ContentType:    r.ContentType,
		Category:       r.Category,
		Fields:         fields,
		SourceURL:      r.SPSiteURL,
		SourceName:     sourceName,
		CollectionID:   collectionID,
		CollectionName: r.ListTitle,
		Federated:      true,
	}), nil
}

// firstPerson extracts the display name from multi-valued person attributes
// ("Ana Chen;Bo Li" or "ana@contoso.com | Ana Chen | <claim>").
func firstPerson(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	if parts := strings.Split(s, " | "); len(parts) >= 2 {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(s)
}
