package fetch

import (
	"sort"

	"github.com/kailas-cloud/rollup/internal/domain/item"
)

// MergeDedupSort flattens per-source results in source order, keeps the first
// item seen for every composite id and stable-sorts by Modified descending.
func MergeDedupSort(results ...[]item.Item) []item.Item {
	n := 0
	for _, r := range results {
		n += len(r)
	}

	seen := make(map[string]struct{}, n)
	merged := make([]item.Item, 0, n)
	for _, r := range results {
		for _, it := range r {
			if _, ok := seen[it.ID()]; ok {
				// first source wins
				continue
			}
			seen[it.ID()] = struct{}{}
			merged = append(merged, it)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Modified().After(merged[j].Modified())
	})
	return merged
}
