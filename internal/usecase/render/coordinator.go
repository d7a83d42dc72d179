package render

import (
	"context"
	"sync"

	"github.com/kailas-cloud/rollup/internal/domain"
	"github.com/kailas-cloud/rollup/internal/domain/item"
)

// Coordinator runs at most one live render batch per view: starting a batch
// cancels the previous batch of the same view, and a batch that finishes after
// being superseded is discarded. Batches without a view key never supersede
// each other.
type Coordinator struct {
	engine *Engine

	mu    sync.Mutex
	gen   uint64
	views map[string]*inflight
}

type inflight struct {
	gen    uint64
	cancel context.CancelFunc
}

// NewCoordinator creates a coordinator over engine.
func NewCoordinator(engine *Engine) *Coordinator {
	return &Coordinator{engine: engine, views: make(map[string]*inflight)}
}

// Render starts a new batch for view, superseding that view's batch in flight.
func (c *Coordinator) Render(ctx context.Context, view, src string, items []item.Item, viewMode string) ([]string, error) {
	if view == "" {
		return c.engine.RenderBatch(ctx, src, items, viewMode)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if prev, ok := c.views[view]; ok {
		prev.cancel()
	}
	c.gen++
	gen := c.gen
	c.views[view] = &inflight{gen: gen, cancel: cancel}
	c.mu.Unlock()

	out, err := c.engine.RenderBatch(ctx, src, items, viewMode)

	c.mu.Lock()
	cur, ok := c.views[view]
	stale := !ok || cur.gen != gen
	if !stale {
		delete(c.views, view)
	}
	c.mu.Unlock()

	if stale {
		return nil, domain.ErrRenderCanceled
	}
	return out, err
}

// Cancel aborts the batch in flight for view, if any.
func (c *Coordinator) Cancel(view string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.views[view]; ok {
		prev.cancel()
		delete(c.views, view)
	}
}

// Inflight reports the number of views with a live batch.
func (c *Coordinator) Inflight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.views)
}
