package itemcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rollup/internal/db"
	"github.com/kailas-cloud/rollup/internal/db/memory"
	"github.com/kailas-cloud/rollup/internal/domain/item"
)

func sampleItems() []item.Item {
	modified := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	return []item.Item{
		item.New(item.Params{
			CollectionID: "X", NativeID: "1", Title: "Budget", Author: "Ana Chen",
			Modified: modified, FileRef: "/d/budget.pdf",
			Fields: map[string]item.Value{
				"Amount":   item.Number(10),
				"Code":     item.String("007"),
				"Reviewed": item.Bool(true),
				"Due":      item.Date(modified.Add(48 * time.Hour)),
			},
		}),
		item.New(item.Params{ID: "S:9", Title: "Search hit", Federated: true}),
	}
}

func TestCache_RoundTripPreservesValueKinds(t *testing.T) {
	c := New(memory.NewStore(), nil, zap.NewNop())
	ctx := context.Background()

	c.Set(ctx, "k", sampleItems(), time.Minute)
	got, ok := c.Get(ctx, "k")
	if !ok {
		t.Fatal("expected hit")
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	first := got[0]
	if first.ID() != "X:1" || first.Author() != "Ana Chen" || first.FileType() != "pdf" {
		t.Errorf("unexpected first item: id=%q author=%q type=%q", first.ID(), first.Author(), first.FileType())
	}
	if first.Field("Amount").Kind() != item.KindNumber {
		t.Errorf("Amount kind = %v, want number", first.Field("Amount").Kind())
	}
	if v := first.Field("Code"); v.Kind() != item.KindString || v.Text() != "007" {
		t.Errorf("Code = %v %q, want string 007", v.Kind(), v.Text())
	}
	if first.Field("Due").Kind() != item.KindDate {
		t.Errorf("Due kind = %v, want date", first.Field("Due").Kind())
	}
	if !first.Modified().Equal(sampleItems()[0].Modified()) {
		t.Errorf("Modified = %v", first.Modified())
	}
	if !got[1].IsFromFederatedSearch() || got[1].ID() != "S:9" {
		t.Errorf("second item lost identity: %q federated=%v", got[1].ID(), got[1].IsFromFederatedSearch())
	}
}

func TestCache_Miss(t *testing.T) {
	c, _ := newTestCache(t)
	if _, ok := c.Get(context.Background(), "absent"); ok {
		t.Fatal("expected miss")
	}
}

func TestCache_FailuresAreMisses(t *testing.T) {
	tests := []struct {
		name   string
		getFn  func(context.Context, string) ([]byte, error)
		result string
	}{
		{"store error", func(context.Context, string) ([]byte, error) {
			return nil, &db.Error{Op: db.OpGet, Err: errors.New("connection refused")}
		}, "error"},
		{"corrupt entry", func(context.Context, string) ([]byte, error) {
			return []byte("{not json"), nil
		}, "error"},
		{"old version", func(context.Context, string) ([]byte, error) {
			return []byte(`{"v":0,"items":[]}`), nil
		}, "error"},
		{"empty value", func(context.Context, string) ([]byte, error) {
			return nil, nil
		}, "miss"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
			ms := &mockKVStore{getFn: tt.getFn}
			c := New(ms, counter, zap.NewNop())

			if _, ok := c.Get(context.Background(), "k"); ok {
				t.Fatal("expected miss")
			}
			if got := testutil.ToFloat64(counter.WithLabelValues(tt.result)); got != 1 {
				t.Errorf("%s counter = %v, want 1", tt.result, got)
			}
		})
	}
}

func TestCache_SetErrorIsSwallowed(t *testing.T) {
	c, ms := newTestCache(t)
	var gotTTL time.Duration
	ms.setFn = func(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
		gotTTL = ttl
		return errors.New("READONLY")
	}

	c.Set(context.Background(), "k", sampleItems(), 5*time.Minute)
	if gotTTL != 5*time.Minute {
		t.Errorf("ttl = %v, want 5m", gotTTL)
	}
}

func TestCache_Expiry(t *testing.T) {
	store := memory.NewStore()
	c := New(store, nil, zap.NewNop())
	ctx := context.Background()

	c.Set(ctx, "k", sampleItems(), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected entry to expire")
	}
}
