package pagination

import (
	"fmt"
	"math"
	"testing"

	"github.com/kailas-cloud/rollup/internal/domain/item"
	dompage "github.com/kailas-cloud/rollup/internal/domain/pagination"
	"github.com/kailas-cloud/rollup/internal/domain/view"
)

func numbered(n int) []item.Item {
	out := make([]item.Item, n)
	for i := range n {
		out[i] = item.New(item.Params{CollectionID: "X", NativeID: fmt.Sprint(i + 1)})
	}
	return out
}

func TestPaginate(t *testing.T) {
	items := numbered(25)
	tests := []struct {
		name      string
		mode      dompage.Mode
		page      int
		size      int
		wantLen   int
		wantFirst string
	}{
		{"paged first", dompage.Paged, 1, 10, 10, "X:1"},
		{"paged last partial", dompage.Paged, 3, 10, 5, "X:21"},
		{"paged beyond end", dompage.Paged, 4, 10, 0, ""},
		{"paged page zero", dompage.Paged, 0, 10, 10, "X:1"},
		{"infinite prefix", dompage.Infinite, 2, 10, 20, "X:1"},
		{"load more capped", dompage.LoadMore, 3, 10, 25, "X:1"},
		{"default size", dompage.Paged, 1, 0, dompage.DefaultPageSize, "X:1"},
		{"paged huge page", dompage.Paged, 1 << 62, 4, 0, ""},
		{"paged max page", dompage.Paged, math.MaxInt, 10, 0, ""},
		{"infinite huge page", dompage.Infinite, 1 << 62, 4, 25, "X:1"},
		{"paged huge size", dompage.Paged, 2, math.MaxInt, 0, ""},
		{"load more huge size", dompage.LoadMore, 3, math.MaxInt, 25, "X:1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(items, tt.size, tt.mode, tt.page)
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].ID() != tt.wantFirst {
				t.Errorf("first = %s, want %s", got[0].ID(), tt.wantFirst)
			}
		})
	}
}

func TestPaginate_LoadMoreMonotonic(t *testing.T) {
	items := numbered(25)
	state := view.NewState(dompage.LoadMore, 10)

	visible := Paginate(items, state.PageSize, state.Pagination, state.Page)
	if len(visible) != 10 {
		t.Fatalf("page 1 shows %d, want 10", len(visible))
	}
	prev := len(visible)
	for n := 1; n <= 2; n++ {
		state = state.LoadMore()
		visible = Paginate(items, state.PageSize, state.Pagination, state.Page)
		want := min((n+1)*10, 25)
		if len(visible) != want || len(visible) < prev {
			t.Fatalf("after %d load more: %d visible, want %d", n, len(visible), want)
		}
		prev = len(visible)
	}
	if len(visible) != 25 {
		t.Errorf("visible = %d, want 25 (capped)", len(visible))
	}

	if s := (view.State{Page: math.MaxInt}).LoadMore(); s.Page != math.MaxInt {
		t.Errorf("LoadMore at the last int page = %d", s.Page)
	}

	state = state.SwitchMode(dompage.Paged)
	if state.Page != 1 {
		t.Errorf("page after mode switch = %d, want 1", state.Page)
	}
}

func TestNewState_HasMoreUsesFetchTotal(t *testing.T) {
	tests := []struct {
		page, size, total, filtered int
		want                        bool
	}{
		{1, 10, 25, 25, true},
		{3, 10, 25, 25, false},
		// narrow facets: filtered set fits on one page, fetch total still says more
		{1, 10, 25, 4, true},
		{2, 10, 20, 20, false},
		{1 << 62, 4, 25, 25, false},
		{math.MaxInt, math.MaxInt, 25, 25, false},
		{1, math.MaxInt, 25, 25, false},
		{1, 10, 0, 0, false},
	}
	for _, tt := range tests {
		s := NewState(dompage.Paged, tt.page, tt.size, tt.total, tt.filtered)
		if s.HasMore != tt.want {
			t.Errorf("page=%d size=%d total=%d: HasMore=%v, want %v", tt.page, tt.size, tt.total, s.HasMore, tt.want)
		}
		if s.FilteredItems != tt.filtered || s.TotalItems != tt.total {
			t.Errorf("counts = %d/%d", s.TotalItems, s.FilteredItems)
		}
	}
}
