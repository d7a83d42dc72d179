// Package elastic serves federated search queries from an Elasticsearch index.
package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"

	"github.com/kailas-cloud/rollup/internal/db"
)

// Config holds connection parameters.
type Config struct {
	Addresses []string
	Index     string
	Username  string
	Password  string
	// DedupField is the keyword field collapsed on when duplicates are trimmed.
	DedupField string
}

// Store runs full-text queries against one index.
type Store struct {
	client     *elasticsearch.TypedClient
	index      string
	dedupField string
}

// NewStore creates a typed client for cfg.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Index == "" {
		return nil, fmt.Errorf("index is required")
	}
	esCfg := elasticsearch.Config{Addresses: cfg.Addresses}
	if cfg.Username != "" && cfg.Password != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}
	client, err := elasticsearch.NewTypedClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Store{client: client, index: cfg.Index, dedupField: cfg.DedupField}, nil
}

// Ping checks that the cluster answers and the index exists.
func (s *Store) Ping(ctx context.Context) error {
	exists, err := s.client.Indices.Exists(s.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("check index %s: %w", s.index, err)
	}
	if !exists {
		return fmt.Errorf("index %s does not exist", s.index)
	}
	return nil
}

// Search runs q as a query_string query.
func (s *Store) Search(ctx context.Context, q db.SearchQuery) (db.SearchResult, error) {
	text := q.Text
	if text == "" {
		text = "*"
	}

	req := s.client.Search().
		Index(s.index).
		Query(&types.Query{
			QueryString: &types.QueryStringQuery{Query: text},
		})
	if q.RowLimit > 0 {
		req = req.Size(q.RowLimit)
	}
	if len(q.SelectProperties) > 0 {
		req = req.SourceIncludes_(q.SelectProperties...)
	}
	if q.SortField != "" {
		order := sortorder.Asc
		if q.SortDesc {
			order = sortorder.Desc
		}
		req = req.Sort(&types.SortOptions{
			SortOptions: map[string]types.FieldSort{q.SortField: {Order: &order}},
		})
	}
	if q.TrimDuplicates && s.dedupField != "" {
		req = req.Collapse(&types.FieldCollapse{Field: s.dedupField})
	}

	res, err := req.Do(ctx)
	if err != nil {
		return db.SearchResult{}, fmt.Errorf("search %s: %w", s.index, err)
	}

	out := db.SearchResult{Rows: make([]db.SearchRow, 0, len(res.Hits.Hits))}
	if res.Hits.Total != nil {
		out.Total = int(res.Hits.Total.Value)
	}
	for _, hit := range res.Hits.Hits {
		row, err := decodeSource(hit.Source_)
		if err != nil {
			return db.SearchResult{}, err
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func decodeSource(raw json.RawMessage) (db.SearchRow, error) {
	var doc map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode hit source: %w", err)
		}
	}
	row := make(db.SearchRow, len(doc))
	for k, v := range doc {
		row[k] = stringify(v)
	}
	return row, nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	}
}
