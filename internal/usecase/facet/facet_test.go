package facet

import (
	"fmt"
	"testing"

	"github.com/kailas-cloud/rollup/internal/domain/column"
	domfacet "github.com/kailas-cloud/rollup/internal/domain/facet"
	"github.com/kailas-cloud/rollup/internal/domain/item"
)

func fileItems() []item.Item {
	mk := func(id, ext, author, category string) item.Item {
		return item.New(item.Params{
			CollectionID: "X", NativeID: id, Title: "Doc " + id,
			FileRef: "/d/" + id + "." + ext, Author: author, Category: category,
		})
	}
	return []item.Item{
		mk("1", "pdf", "Ana Chen", "Finance"),
		mk("2", "pdf", "Bo Li", "Finance"),
		mk("3", "pdf", "Ana Chen", "HR"),
		mk("4", "docx", "Bo Li", "HR"),
		mk("5", "docx", "", "Finance"),
	}
}

func TestExtract_CountsAndOrder(t *testing.T) {
	cols := []column.Column{
		{FieldName: "FileType", DisplayName: "File Type", Type: column.Choice},
		{FieldName: "Author", Type: column.Person},
		{FieldName: "Modified", Type: column.Date},
	}
	groups := Extract(fileItems(), cols)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups (date column skipped), got %d", len(groups))
	}

	ft := groups[0]
	if ft.FieldName != "FileType" || ft.DisplayName != "File Type" {
		t.Errorf("group = %q/%q", ft.FieldName, ft.DisplayName)
	}
	want := []domfacet.Option{{Value: "pdf", Label: "pdf", Count: 3}, {Value: "docx", Label: "docx", Count: 2}}
	if len(ft.Options) != len(want) {
		t.Fatalf("options = %+v", ft.Options)
	}
	for i := range want {
		if ft.Options[i] != want[i] {
			t.Errorf("option %d = %+v, want %+v", i, ft.Options[i], want[i])
		}
	}

	authors := groups[1]
	if len(authors.Options) != 2 {
		t.Fatalf("empty author must not become an option: %+v", authors.Options)
	}
	// tie on count 2: value ascending
	if authors.Options[0].Value != "Ana Chen" || authors.Options[1].Value != "Bo Li" {
		t.Errorf("author order = %+v", authors.Options)
	}
}

func TestExtract_SkipsHighCardinality(t *testing.T) {
	var items []item.Item
	for i := range domfacet.MaxValues + 1 {
		items = append(items, item.New(item.Params{CollectionID: "X", NativeID: fmt.Sprint(i), Title: fmt.Sprintf("title %d", i)}))
	}
	if groups := Extract(items, []column.Column{{FieldName: "Title", Type: column.Text}}); len(groups) != 0 {
		t.Fatalf("expected no group above %d distinct values, got %d", domfacet.MaxValues, len(groups))
	}
	if groups := Extract(items[:domfacet.MaxValues], []column.Column{{FieldName: "Title", Type: column.Text}}); len(groups) != 1 {
		t.Fatalf("expected group at exactly %d distinct values", domfacet.MaxValues)
	}
}

func TestApplyFilters_FacetSelections(t *testing.T) {
	items := fileItems()
	tests := []struct {
		name string
		sel  domfacet.Selection
		want int
	}{
		{"pdf only", domfacet.Selection{"FileType": {"pdf"}}, 3},
		{"pdf or docx", domfacet.Selection{"FileType": {"pdf", "docx"}}, 5},
		{"pdf and finance", domfacet.Selection{"FileType": {"pdf"}, "Category": {"Finance"}}, 2},
		{"empty selection ignored", domfacet.Selection{"FileType": {}}, 5},
		{"no match", domfacet.Selection{"FileType": {"xlsx"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplyFilters(items, tt.sel, ""); len(got) != tt.want {
				t.Errorf("got %d items, want %d", len(got), tt.want)
			}
		})
	}
}

func TestApplyFilters_IntersectionOfFields(t *testing.T) {
	items := fileItems()
	byType := ApplyFilters(items, domfacet.Selection{"FileType": {"pdf"}}, "")
	byCat := ApplyFilters(items, domfacet.Selection{"Category": {"HR"}}, "")
	both := ApplyFilters(items, domfacet.Selection{"FileType": {"pdf"}, "Category": {"HR"}}, "")

	inCat := map[string]bool{}
	for _, it := range byCat {
		inCat[it.ID()] = true
	}
	var want []string
	for _, it := range byType {
		if inCat[it.ID()] {
			want = append(want, it.ID())
		}
	}
	if len(both) != len(want) {
		t.Fatalf("got %d, want intersection of %d", len(both), len(want))
	}
	for i := range want {
		if both[i].ID() != want[i] {
			t.Errorf("position %d = %s, want %s", i, both[i].ID(), want[i])
		}
	}
}

func TestApplyFilters_Search(t *testing.T) {
	items := fileItems()
	tests := []struct {
		text string
		want int
	}{
		{"ana", 2},
		{"FINANCE", 3},
		{"doc 4", 1},
		{"  ", 5},
		{"nobody", 0},
	}
	for _, tt := range tests {
		if got := ApplyFilters(items, nil, tt.text); len(got) != tt.want {
			t.Errorf("search %q: got %d, want %d", tt.text, len(got), tt.want)
		}
	}

	got := ApplyFilters(items, domfacet.Selection{"FileType": {"docx"}}, "finance")
	if len(got) != 1 || got[0].ID() != "X:5" {
		t.Errorf("search + facet = %d items", len(got))
	}
}
