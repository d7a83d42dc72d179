// Package pagination windows the sorted item set under one of three strategies.
package pagination

import (
	"github.com/kailas-cloud/rollup/internal/domain/item"
	dompage "github.com/kailas-cloud/rollup/internal/domain/pagination"
)

// Paginate returns the visible items for page. Paged mode returns the window
// [(page-1)*size, page*size); infinite and loadMore return the prefix [0, page*size).
// Pages below 1 count as 1 and a non-positive size uses the default page size.
// Pages past the end yield an empty window in paged mode and the whole set otherwise.
func Paginate(items []item.Item, pageSize int, mode dompage.Mode, page int) []item.Item {
	page, pageSize = normalize(page, pageSize)

	end := bound(page, pageSize, len(items))
	start := 0
	if !mode.Cumulative() {
		start = bound(page-1, pageSize, len(items))
	}
	return items[start:end]
}

// NewState describes the pagination outcome. HasMore is computed from
// totalItems, the fetch-layer count, not from the filtered count.
func NewState(mode dompage.Mode, page, pageSize, totalItems, filteredItems int) dompage.State {
	page, pageSize = normalize(page, pageSize)
	return dompage.State{
		Mode:          mode,
		CurrentPage:   page,
		PageSize:      pageSize,
		TotalItems:    totalItems,
		FilteredItems: filteredItems,
		HasMore:       page < pages(totalItems, pageSize),
	}
}

// bound returns min(n*size, limit) without overflowing for large n.
func bound(n, size, limit int) int {
	if n >= limit/size+1 {
		return limit
	}
	return min(n*size, limit)
}

// pages is ceil(total/size) for a non-negative total.
func pages(total, size int) int {
	if total <= 0 {
		return 0
	}
	n := total / size
	if total%size != 0 {
		n++
	}
	return n
}

func normalize(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = dompage.DefaultPageSize
	}
	return page, pageSize
}
