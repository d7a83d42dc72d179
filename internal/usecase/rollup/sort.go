package rollup

import (
	"slices"
	"sort"
	"strings"

	"github.com/kailas-cloud/rollup/internal/domain/item"
	"github.com/kailas-cloud/rollup/internal/domain/view"
)

// SortItems orders a copy of items by field. Numbers and dates compare by value,
// everything else as case-insensitive text. Items without a value sort last in
// both directions. An empty field keeps the input order.
func SortItems(items []item.Item, field string, dir view.SortDirection) []item.Item {
	if strings.TrimSpace(field) == "" {
		return items
	}
	out := slices.Clone(items)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Field(field), out[j].Field(field)
		switch {
		case a.IsEmpty():
			return false
		case b.IsEmpty():
			return true
		}
		c := compareValues(a, b)
		if dir == view.Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func compareValues(a, b item.Value) int {
	if x, ok := a.Float(); ok {
		if y, ok := b.Float(); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	if x, ok := a.Time(); ok {
		if y, ok := b.Time(); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(strings.ToLower(a.Text()), strings.ToLower(b.Text()))
}
