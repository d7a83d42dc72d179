package rollup

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rollup/internal/usecase/fetch"
)

// DefaultRefreshInterval applies when NewRefresher gets a non-positive interval.
const DefaultRefreshInterval = 5 * time.Minute

// Refresher re-fetches the last registered request on a ticker, bypassing the
// cache so the next run sees fresh items. Ticks carry their own bypass and never
// touch the one-shot manual refresh.
type Refresher struct {
	fetcher  Fetcher
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	req     *fetch.Request
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewRefresher creates a stopped refresher.
func NewRefresher(fetcher Fetcher, interval time.Duration, logger *zap.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{fetcher: fetcher, interval: interval, logger: logger}
}

// Register replaces the request refreshed on every tick.
func (r *Refresher) Register(req fetch.Request) {
	req.Refresh = false
	r.mu.Lock()
	r.req = &req
	r.mu.Unlock()
}

// Running reports whether the ticker loop is active.
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Start launches the ticker loop. Calling Start on a running refresher is a no-op.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.stopped = make(chan struct{})
	go r.loop(ctx, r.stopped)
}

// Stop halts the loop and waits for an in-flight tick. Safe to call repeatedly.
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel, stopped := r.cancel, r.stopped
	r.cancel, r.stopped = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

func (r *Refresher) loop(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	r.mu.Lock()
	req := r.req
	r.mu.Unlock()
	if req == nil {
		return
	}

	tickID := uuid.NewString()
	tickReq := *req
	tickReq.Refresh = true
	res := r.fetcher.Fetch(ctx, tickReq)
	r.logger.Debug("Auto refresh complete",
		zap.String("tick_id", tickID),
		zap.String("cycle_id", res.CycleID),
		zap.Int("items", res.Total),
	)
}
