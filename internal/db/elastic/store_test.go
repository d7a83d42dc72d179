package elastic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/rollup/internal/db"
)

const searchResponse = `{
  "took": 3,
  "timed_out": false,
  "_shards": {"total": 1, "successful": 1, "skipped": 0, "failed": 0},
  "hits": {
    "total": {"value": 2, "relation": "eq"},
    "max_score": 1.0,
    "hits": [
      {"_index": "items", "_id": "a", "_score": 1.0,
       "_source": {"Title": "Budget", "ListId": "X", "ListItemID": 2, "IsDocument": true}},
      {"_index": "items", "_id": "b", "_score": 0.5,
       "_source": {"Title": "Plan", "ListId": "X", "ListItemID": "4"}}
    ]
  }
}`

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	s, err := NewStore(Config{Addresses: []string{srv.URL}, Index: "items", DedupField: "DocId"})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestNewStore_RequiresIndex(t *testing.T) {
	if _, err := NewStore(Config{Addresses: []string{"http://localhost:9200"}}); err == nil {
		t.Fatal("expected error for missing index")
	}
}

func TestSearch(t *testing.T) {
	var gotPath, gotQuery string
	var gotBody map[string]any
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		_, _ = w.Write([]byte(searchResponse))
	})

	res, err := s.Search(context.Background(), db.SearchQuery{
		Text:             `Title:"Budget" AND ContentTypeId:0x0101*`,
		SelectProperties: []string{"Title", "ListId", "ListItemID"},
		SortField:        "LastModifiedTime",
		SortDesc:         true,
		TrimDuplicates:   true,
		RowLimit:         25,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotPath != "/items/_search" {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.Contains(gotQuery, "_source_includes=") {
		t.Errorf("query string %q lacks _source_includes", gotQuery)
	}
	if gotBody["size"] != float64(25) {
		t.Errorf("size = %v, want 25", gotBody["size"])
	}
	if _, ok := gotBody["collapse"]; !ok {
		t.Error("collapse missing although TrimDuplicates is set")
	}

	if res.Total != 2 || len(res.Rows) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Rows[0]["ListItemID"] != "2" || res.Rows[0]["IsDocument"] != "true" {
		t.Errorf("row 0 = %v, want stringified values", res.Rows[0])
	}
	if res.Rows[1]["Title"] != "Plan" {
		t.Errorf("row 1 = %v", res.Rows[1])
	}
}

func TestSearch_EmptyTextMatchesAll(t *testing.T) {
	var gotBody string
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		_, _ = w.Write([]byte(searchResponse))
	})

	if _, err := s.Search(context.Background(), db.SearchQuery{}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !strings.Contains(gotBody, `"query":"*"`) {
		t.Errorf("body %s does not query *", gotBody)
	}
}

func TestSearch_ServerError(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"boom","reason":"broken"},"status":500}`))
	})

	if _, err := s.Search(context.Background(), db.SearchQuery{Text: "x"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"s", "s"},
		{float64(1.5), "1.5"},
		{true, "true"},
		{[]any{"a"}, `["a"]`},
	}
	for _, tt := range tests {
		if got := stringify(tt.in); got != tt.want {
			t.Errorf("stringify(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
