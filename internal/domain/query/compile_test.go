package query

import "testing"

func TestCompile_TwoGroupsAnd(t *testing.T) {
	q := Query{
		Conjunction: And,
		Groups: []Group{
			{Conjunction: And, Rules: []Rule{{Field: "Category", Operator: Eq, Value: "Finance"}}},
			{Conjunction: And, Rules: []Rule{{Field: "Author", Operator: Contains, Value: "Chen"}}},
		},
	}

	got := Compile(q)
	if want := `Category:"Finance" AND Author:*Chen*`; got.FullText != want {
		t.Errorf("FullText = %q, want %q", got.FullText, want)
	}
	if want := `Category eq 'Finance' and substringof('Chen',Author)`; got.Filter != want {
		t.Errorf("Filter = %q, want %q", got.Filter, want)
	}
}

func TestCompile_Operators(t *testing.T) {
	tests := []struct {
		op         Operator
		wantFull   string
		wantFilter string
	}{
		{Eq, `F:"v"`, `F eq 'v'`},
		{Ne, `-F:"v"`, `F ne 'v'`},
		{Contains, `F:*v*`, `substringof('v',F)`},
		{BeginsWith, `F:v*`, `startswith(F,'v')`},
		{Gt, `F>v`, `F gt 'v'`},
		{Lt, `F<v`, `F lt 'v'`},
		{Ge, `F>=v`, `F ge 'v'`},
		{Le, `F<=v`, `F le 'v'`},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			got := Compile(Query{Groups: []Group{{Rules: []Rule{{Field: "F", Operator: tt.op, Value: "v"}}}}})
			if got.FullText != tt.wantFull {
				t.Errorf("FullText = %q, want %q", got.FullText, tt.wantFull)
			}
			if got.Filter != tt.wantFilter {
				t.Errorf("Filter = %q, want %q", got.Filter, tt.wantFilter)
			}
		})
	}
}

func TestCompile_GroupParenthesizedAndOr(t *testing.T) {
	q := Query{
		Conjunction: "or",
		Groups: []Group{
			{Conjunction: Or, Rules: []Rule{
				{Field: "FileType", Operator: Eq, Value: "pdf"},
				{Field: "FileType", Operator: Eq, Value: "docx"},
			}},
			{Rules: []Rule{{Field: "Title", Operator: BeginsWith, Value: "Q1"}}},
		},
	}
	got := Compile(q)
	if want := `(FileType:"pdf" OR FileType:"docx") OR Title:Q1*`; got.FullText != want {
		t.Errorf("FullText = %q, want %q", got.FullText, want)
	}
	if want := `(FileType eq 'pdf' or FileType eq 'docx') or startswith(Title,'Q1')`; got.Filter != want {
		t.Errorf("Filter = %q, want %q", got.Filter, want)
	}
}

func TestCompile_DropsInvalidRules(t *testing.T) {
	q := Query{Groups: []Group{
		{Rules: []Rule{
			{Field: "", Operator: Eq, Value: "x"},
			{Field: "Title", Operator: Eq, Value: "  "},
			{Field: "Title", Operator: "like", Value: "x"},
			{Field: "Status", Operator: "EQ", Value: "Open"},
		}},
		{Rules: []Rule{{Field: "", Value: ""}}},
	}}
	got := Compile(q)
	if got.FullText != `Status:"Open"` {
		t.Errorf("FullText = %q, want single surviving rule without parens", got.FullText)
	}
	if got.Filter != `Status eq 'Open'` {
		t.Errorf("Filter = %q", got.Filter)
	}
}

func TestCompile_Empty(t *testing.T) {
	got := Compile(Query{})
	if got.FullText != "" || got.Filter != "" {
		t.Errorf("Compile(empty) = %+v, want both empty", got)
	}
	if !(Query{Groups: []Group{{Rules: []Rule{{Field: "A"}}}}}).IsEmpty() {
		t.Error("query with only invalid rules should be empty")
	}
}

func TestCompile_Escaping(t *testing.T) {
	got := Compile(Query{Groups: []Group{{Rules: []Rule{{Field: "Title", Operator: Eq, Value: `O'Brien "Q"`}}}}})
	if want := `Title:"O'Brien \"Q\""`; got.FullText != want {
		t.Errorf("FullText = %q, want %q", got.FullText, want)
	}
	if want := `Title eq 'O''Brien "Q"'`; got.Filter != want {
		t.Errorf("Filter = %q, want %q", got.Filter, want)
	}
}

func TestParseConjunction(t *testing.T) {
	if ParseConjunction(" Or ") != Or {
		t.Error("expected OR")
	}
	if ParseConjunction("xor") != And {
		t.Error("unknown conjunction should default to AND")
	}
}
