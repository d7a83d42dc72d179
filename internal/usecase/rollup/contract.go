package rollup

import (
	"context"

	"github.com/kailas-cloud/rollup/internal/domain/item"
	"github.com/kailas-cloud/rollup/internal/usecase/fetch"
)

// Fetcher runs fetch cycles (ISP: satisfied by *fetch.Service).
type Fetcher interface {
	Fetch(ctx context.Context, req fetch.Request) fetch.Result
	RequestRefresh()
}

// AudienceOracle answers whether the current principal belongs to a group (ISP).
type AudienceOracle interface {
	IsMember(ctx context.Context, groupID string) (bool, error)
}

// Renderer renders a batch of items through a template (ISP: satisfied by *render.Coordinator).
// A batch supersedes the in-flight batch of the same view only.
type Renderer interface {
	Render(ctx context.Context, view, src string, items []item.Item, viewMode string) ([]string, error)
}
