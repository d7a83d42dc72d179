package listsource

import (
	"context"
	"sync"

	"github.com/kailas-cloud/rollup/internal/db"
)

// mockBackend implements the consumer interface for tests.
type mockBackend struct {
	mu      sync.Mutex
	queryFn func(ctx context.Context, q db.ListQuery) ([]db.Row, error)
	calls   []db.ListQuery
}

func (m *mockBackend) QueryList(ctx context.Context, q db.ListQuery) ([]db.Row, error) {
	m.mu.Lock()
	m.calls = append(m.calls, q)
	m.mu.Unlock()
	if m.queryFn != nil {
		return m.queryFn(ctx, q)
	}
	return nil, nil
}

func (m *mockBackend) last() db.ListQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return db.ListQuery{}
	}
	return m.calls[len(m.calls)-1]
}
