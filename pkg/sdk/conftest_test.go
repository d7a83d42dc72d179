package rollup

import (
	"context"
	"errors"
	"sync"
	"time"
)

// --- ListBackend mock ---

type mockListBackend struct {
	mu      sync.Mutex
	queries []ListQuery
	rows    []Row
	err     error
	pingErr error
}

func (m *mockListBackend) QueryList(_ context.Context, q ListQuery) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

func (m *mockListBackend) Ping(_ context.Context) error { return m.pingErr }

func (m *mockListBackend) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// --- AudienceOracle mock ---

type denyOracle struct{ err error }

func (o denyOracle) IsMember(_ context.Context, _ string) (bool, error) {
	return false, o.err
}

var (
	errBackendDown = errors.New("backend down")
	demoEpoch      = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
)

func listRows() []Row {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return []Row{
		{"ID": 1, "Title": "Budget", "Author": "Ana", "Modified": base, "FileRef": "/sites/home/Documents/budget.xlsx"},
		{"ID": 2, "Title": "Roadmap", "Author": "Ben", "Modified": base.Add(48 * time.Hour), "FileRef": "/sites/home/Documents/roadmap.pdf"},
		{"ID": 3, "Title": "Minutes", "Author": "Ana", "Modified": base.Add(24 * time.Hour), "FileRef": "/sites/home/Documents/minutes.docx"},
	}
}
