package rollup

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rollup/internal/domain/item"
)

// membership memoizes oracle answers for one pipeline run.
type membership struct {
	oracle AudienceOracle
	known  map[string]bool
}

// filterAudience keeps items the principal may see. Items without target
// audiences always pass. Any oracle error makes the whole run fail open.
func filterAudience(ctx context.Context, oracle AudienceOracle, items []item.Item, log *zap.Logger) []item.Item {
	if oracle == nil {
		return items
	}
	m := &membership{oracle: oracle, known: make(map[string]bool)}

	out := make([]item.Item, 0, len(items))
	for _, it := range items {
		ok, err := m.allows(ctx, it.Audiences())
		if err != nil {
			log.Warn("Audience check failed, showing all items", zap.Error(err))
			return items
		}
		if ok {
			out = append(out, it)
		}
	}
	return out
}

func (m *membership) allows(ctx context.Context, groups []string) (bool, error) {
	if len(groups) == 0 {
		return true, nil
	}
	for _, g := range groups {
		member, seen := m.known[g]
		if !seen {
			var err error
			member, err = m.oracle.IsMember(ctx, g)
			if err != nil {
				return false, err
			}
			m.known[g] = member
		}
		if member {
			return true, nil
		}
	}
	return false, nil
}
