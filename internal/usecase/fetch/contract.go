package fetch

import (
	"context"
	"time"

	"github.com/kailas-cloud/rollup/internal/domain/item"
	"github.com/kailas-cloud/rollup/internal/domain/query"
	"github.com/kailas-cloud/rollup/internal/domain/source"
)

// Fetcher loads the items of one source. Implementations never fail: any
// transport or shape problem yields an empty slice.
type Fetcher interface {
	Fetch(ctx context.Context, src source.Source, q query.Query, limit int) []item.Item
}

// Cache stores merged fetch results. Misses and failures look the same.
type Cache interface {
	Get(ctx context.Context, key string) ([]item.Item, bool)
	Set(ctx context.Context, key string, items []item.Item, ttl time.Duration)
	Bypass()
}
