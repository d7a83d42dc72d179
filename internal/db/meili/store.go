// Package meili serves federated search queries from a Meilisearch index.
//
// Wildcard terms translate to CONTAINS / STARTS WITH filters, which need the
// containsFilter experimental feature enabled on the server.
package meili

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	meili "github.com/meilisearch/meilisearch-go"

	"github.com/kailas-cloud/rollup/internal/db"
)

// Config holds connection parameters.
type Config struct {
	URL    string
	APIKey string
	Index  string
}

// Store runs filtered queries against one index.
type Store struct {
	client meili.ServiceManager
	index  string
}

// NewStore creates a client for cfg.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" || cfg.Index == "" {
		return nil, fmt.Errorf("url and index are required")
	}
	return &Store{
		client: meili.New(cfg.URL, meili.WithAPIKey(cfg.APIKey)),
		index:  cfg.Index,
	}, nil
}

// Ping checks server health.
func (s *Store) Ping(_ context.Context) error {
	if _, err := s.client.Health(); err != nil {
		return fmt.Errorf("meilisearch health: %w", err)
	}
	return nil
}

// Search translates q.Text into a filter and runs a placeholder search.
// Meilisearch has no near-duplicate trimming; TrimDuplicates and Interleave are ignored.
func (s *Store) Search(ctx context.Context, q db.SearchQuery) (db.SearchResult, error) {
	req := &meili.SearchRequest{
		AttributesToRetrieve: q.SelectProperties,
	}
	if q.RowLimit > 0 {
		req.Limit = int64(q.RowLimit)
	}
	if filter := translate(q.Text); filter != "" {
		req.Filter = filter
	}
	if q.SortField != "" {
		dir := "asc"
		if q.SortDesc {
			dir = "desc"
		}
		req.Sort = []string{q.SortField + ":" + dir}
	}

	resp, err := s.client.Index(s.index).SearchWithContext(ctx, "", req)
	if err != nil {
		return db.SearchResult{}, fmt.Errorf("meilisearch search %s: %w", s.index, err)
	}

	out := db.SearchResult{
		Rows:  make([]db.SearchRow, 0, len(resp.Hits)),
		Total: int(resp.EstimatedTotalHits),
	}
	if resp.TotalHits > 0 {
		out.Total = int(resp.TotalHits)
	}
	for _, hit := range resp.Hits {
		out.Rows = append(out.Rows, hitToRow(hit))
	}
	return out, nil
}

func hitToRow(hit meili.Hit) db.SearchRow {
	row := make(db.SearchRow, len(hit))
	for k, raw := range hit {
		if strings.HasPrefix(k, "_") {
			continue
		}
		row[k] = decodeString(raw)
	}
	return row
}

func decodeString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}
