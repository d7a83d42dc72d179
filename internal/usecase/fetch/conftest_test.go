package fetch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/rollup/internal/domain/item"
	"github.com/kailas-cloud/rollup/internal/domain/query"
	"github.com/kailas-cloud/rollup/internal/domain/source"
)

// mockFetcher implements Fetcher for tests.
type mockFetcher struct {
	fetchFn func(ctx context.Context, src source.Source, q query.Query, limit int) []item.Item
	calls   atomic.Int32
}

func (m *mockFetcher) Fetch(ctx context.Context, src source.Source, q query.Query, limit int) []item.Item {
	m.calls.Add(1)
	if m.fetchFn != nil {
		return m.fetchFn(ctx, src, q, limit)
	}
	return nil
}

// mockCache implements Cache over a plain map.
type mockCache struct {
	mu       sync.Mutex
	entries  map[string][]item.Item
	gets     int
	sets     int
	bypasses int
	lastTTL  time.Duration
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]item.Item)}
}

func (m *mockCache) Get(_ context.Context, key string) ([]item.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	items, ok := m.entries[key]
	return items, ok
}

func (m *mockCache) Set(_ context.Context, key string, items []item.Item, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.lastTTL = ttl
	m.entries[key] = items
}

func (m *mockCache) Bypass() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bypasses++
}

func newItem(collection, native, title string, modified time.Time) item.Item {
	return item.New(item.Params{CollectionID: collection, NativeID: native, Title: title, Modified: modified})
}
