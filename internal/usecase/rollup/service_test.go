package rollup

import (
	"context"
	"errors"
	"testing"

	domagg "github.com/kailas-cloud/rollup/internal/domain/aggregation"
	"github.com/kailas-cloud/rollup/internal/domain/column"
	"github.com/kailas-cloud/rollup/internal/domain/facet"
	"github.com/kailas-cloud/rollup/internal/domain/item"
	"github.com/kailas-cloud/rollup/internal/domain/pagination"
	"github.com/kailas-cloud/rollup/internal/domain/view"
)

func fixture() []item.Item {
	return []item.Item{
		doc("1", "Budget", "Ann", "pdf", 10, 1),
		doc("2", "Roadmap", "Bob", "docx", 20, 2),
		doc("3", "Minutes", "Ann", "pdf", 5, 3),
		doc("4", "Charter", "", "pdf", 7, 4),
		doc("5", "Forecast", "Bob", "xlsx", 3, 5),
	}
}

var testColumns = []column.Column{
	{FieldName: "Title", Type: column.Text, Visible: true},
	{FieldName: "Author", Type: column.Person, Visible: true},
	{FieldName: "FileType", Type: column.Choice, Visible: true},
	{FieldName: "Amount", Type: column.Number, Visible: true, Rules: []column.FormattingRule{
		{Condition: column.GreaterThan, Value: "8", StyleKind: "color", StyleValue: "red"},
	}},
}

func TestRun_Pipeline(t *testing.T) {
	f := &mockFetcher{items: fixture()}
	svc := New(f, nil, nil, nil).WithMaxItemsPerSource(100)

	state := view.NewState(pagination.Paged, 2)
	state = state.ToggleFacet("FileType", "pdf")
	out := svc.Run(context.Background(), Input{
		Columns:      testColumns,
		Aggregations: []domagg.Config{{Field: "Amount", Fn: domagg.Sum}, {Fn: domagg.Count}},
		State:        state,
	})

	if len(f.requests) != 1 || f.requests[0].Limit != 100 || f.requests[0].Page != 1 {
		t.Fatalf("unexpected fetch requests: %+v", f.requests)
	}

	// Facets are built before the pdf selection is applied.
	var fileTypes *facet.Group
	for i := range out.Facets {
		if out.Facets[i].FieldName == "FileType" {
			fileTypes = &out.Facets[i]
		}
	}
	if fileTypes == nil || len(fileTypes.Options) != 3 {
		t.Fatalf("expected 3 file type options, got %+v", out.Facets)
	}
	if fileTypes.Options[0].Value != "pdf" || fileTypes.Options[0].Count != 3 {
		t.Errorf("first option = %+v, want pdf:3", fileTypes.Options[0])
	}

	if out.Aggregations[0].Value != 22 || out.Aggregations[1].Value != 3 {
		t.Errorf("aggregations over filtered set = %+v, want sum 22 count 3", out.Aggregations)
	}

	if len(out.Items) != 2 || out.Items[0].ID() != "L:1" || out.Items[1].ID() != "L:3" {
		t.Fatalf("first page = %v", ids(out.Items))
	}
	if out.Pagination.TotalItems != 5 || out.Pagination.FilteredItems != 3 || !out.Pagination.HasMore {
		t.Errorf("pagination = %+v", out.Pagination)
	}
	if len(out.Groups) != 1 || out.Groups[0].Count() != 2 {
		t.Errorf("groups = %+v", out.Groups)
	}

	if out.Styles["L:1"]["Amount"].Value != "red" {
		t.Errorf("expected red Amount on L:1, got %+v", out.Styles)
	}
	if _, ok := out.Styles["L:3"]; ok {
		t.Errorf("L:3 has no matching rule, got %+v", out.Styles["L:3"])
	}
}

func TestRun_SortGroupAndDefaults(t *testing.T) {
	f := &mockFetcher{items: fixture()}
	svc := New(f, nil, nil, nil)

	state := view.NewState(pagination.Paged, 10).SortBy("Amount", view.Desc)
	state.GroupBy = "author"
	out := svc.Run(context.Background(), Input{State: state})

	want := []string{"L:2", "L:1", "L:4", "L:3", "L:5"}
	if got := ids(out.Items); !equal(got, want) {
		t.Errorf("sorted = %v, want %v", got, want)
	}
	if len(out.Groups) != 3 {
		t.Fatalf("expected 3 author groups, got %d", len(out.Groups))
	}
	if out.Groups[0].Label != "(No Author)" || out.Groups[1].Label != "Ann" {
		t.Errorf("group labels = %q, %q", out.Groups[0].Label, out.Groups[1].Label)
	}
	if len(out.Columns) != len(column.Defaults()) {
		t.Errorf("default columns expected, got %d", len(out.Columns))
	}
	if f.requests[0].Limit != DefaultMaxItemsPerSource {
		t.Errorf("limit = %d", f.requests[0].Limit)
	}
}

func TestRun_SearchText(t *testing.T) {
	svc := New(&mockFetcher{items: fixture()}, nil, nil, nil)
	out := svc.Run(context.Background(), Input{State: view.NewState(pagination.Paged, 10).Search("ROAD")})
	if got := ids(out.Items); !equal(got, []string{"L:2"}) {
		t.Errorf("search result = %v", got)
	}
}

func TestRun_VisibleColumnsFromState(t *testing.T) {
	svc := New(&mockFetcher{items: fixture()}, nil, nil, nil)
	state := view.NewState(pagination.Paged, 10)
	state.VisibleColumns = []string{"Amount", "Title", "Missing"}
	out := svc.Run(context.Background(), Input{Columns: testColumns, State: state})
	if len(out.Columns) != 2 || out.Columns[0].FieldName != "Amount" {
		t.Errorf("columns = %+v", out.Columns)
	}
}

func TestRun_Render(t *testing.T) {
	r := &mockRenderer{}
	svc := New(&mockFetcher{items: fixture()}, nil, r, nil)
	state := view.NewState(pagination.LoadMore, 2)
	state.ViewMode = view.Card

	out := svc.Run(context.Background(), Input{State: state.LoadMore(), Template: "<li>{{.Item.Title}}</li>", ViewKey: "session-1"})
	if out.RenderError != nil {
		t.Fatalf("unexpected render error: %v", out.RenderError)
	}
	if len(out.Fragments) != 4 || r.items != 4 || r.mode != "card" {
		t.Errorf("fragments = %d, rendered %d in %q", len(out.Fragments), r.items, r.mode)
	}
	if r.view != "session-1" {
		t.Errorf("view key = %q, want session-1", r.view)
	}
}

func TestRun_RenderErrorIsolated(t *testing.T) {
	renderErr := errors.New("template render failed")
	svc := New(&mockFetcher{items: fixture()}, nil, &mockRenderer{err: renderErr}, nil)

	out := svc.Run(context.Background(), Input{State: view.NewState(pagination.Paged, 10), Template: "{{.Bad}}"})
	if !errors.Is(out.RenderError, renderErr) {
		t.Fatalf("expected render error, got %v", out.RenderError)
	}
	if len(out.Items) != 5 || len(out.Groups) != 1 {
		t.Errorf("items and groups must stay populated: %d items, %d groups", len(out.Items), len(out.Groups))
	}
	if out.Fragments != nil {
		t.Errorf("fragments must be empty on error")
	}
}

func TestRun_NoTemplateSkipsRender(t *testing.T) {
	r := &mockRenderer{}
	New(&mockFetcher{items: fixture()}, nil, r, nil).Run(context.Background(), Input{})
	if r.mode != "" {
		t.Error("renderer must not run without a template")
	}
}

func TestRun_RegistersWithRefresher(t *testing.T) {
	f := &mockFetcher{items: fixture()}
	ref := NewRefresher(f, 0, nil)
	svc := New(f, nil, nil, nil).WithRefresher(ref)

	svc.Run(context.Background(), Input{Refresh: true})
	if ref.req == nil || ref.req.Refresh {
		t.Fatalf("registered request = %+v, want one with Refresh cleared", ref.req)
	}
	if !f.requests[0].Refresh {
		t.Error("run must pass the refresh flag to the fetch cycle")
	}

	svc.Refresh()
	if f.refreshes.Load() != 1 {
		t.Errorf("refreshes = %d, want 1", f.refreshes.Load())
	}
}

func ids(items []item.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID()
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
