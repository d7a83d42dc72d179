package group

import "github.com/kailas-cloud/rollup/internal/domain/item"

// AllItemsKey is the key of the synthetic group used when nothing is grouped.
const AllItemsKey = "__all__"

// AllItemsLabel labels the synthetic group.
const AllItemsLabel = "All Items"

// Group is one bucket of items sharing a grouping value.
type Group struct {
	Key   string
	Label string
	Items []item.Item
}

// Count returns the number of items in the group.
func (g Group) Count() int { return len(g.Items) }

// All wraps items in the synthetic single group.
func All(items []item.Item) Group {
	return Group{Key: AllItemsKey, Label: AllItemsLabel, Items: items}
}

// Flatten concatenates the items of every group in order.
func Flatten(groups []Group) []item.Item {
	n := 0
	for _, g := range groups {
		n += len(g.Items)
	}
	out := make([]item.Item, 0, n)
	for _, g := range groups {
		out = append(out, g.Items...)
	}
	return out
}
