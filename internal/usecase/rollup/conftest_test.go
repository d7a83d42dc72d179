package rollup

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/rollup/internal/domain/item"
	"github.com/kailas-cloud/rollup/internal/usecase/fetch"
)

// --- Mocks ---

type mockFetcher struct {
	mu        sync.Mutex
	items     []item.Item
	requests  []fetch.Request
	refreshes atomic.Int32
}

func (m *mockFetcher) Fetch(_ context.Context, req fetch.Request) fetch.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	return fetch.Result{Items: m.items, Total: len(m.items), CycleID: "cycle-" + strconv.Itoa(len(m.requests))}
}

func (m *mockFetcher) RequestRefresh() { m.refreshes.Add(1) }

func (m *mockFetcher) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

type mockOracle struct {
	members map[string]bool
	err     error
	calls   map[string]int
}

func (m *mockOracle) IsMember(_ context.Context, groupID string) (bool, error) {
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[groupID]++
	if m.err != nil {
		return false, m.err
	}
	return m.members[groupID], nil
}

type mockRenderer struct {
	err   error
	items int
	mode  string
	view  string
}

func (m *mockRenderer) Render(_ context.Context, view, _ string, items []item.Item, viewMode string) ([]string, error) {
	m.items, m.mode, m.view = len(items), viewMode, view
	if m.err != nil {
		return nil, m.err
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = "<li>" + it.Title() + "</li>"
	}
	return out, nil
}

var errOracle = errors.New("directory unavailable")

// --- Fixtures ---

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func doc(id, title, author, fileType string, amount float64, ageDays int, fields ...string) item.Item {
	f := map[string]item.Value{"Amount": item.Number(amount)}
	for i := 0; i+1 < len(fields); i += 2 {
		f[fields[i]] = item.String(fields[i+1])
	}
	return item.New(item.Params{
		CollectionID: "L", NativeID: id, Title: title, Author: author, FileType: fileType,
		Modified: base.Add(-time.Duration(ageDays) * 24 * time.Hour),
		Fields:   f,
	})
}
