package column

import (
	"strings"

	"github.com/kailas-cloud/rollup/internal/domain/item"
)

// Type is the display type of a column.
type Type string

// Column types.
const (
	Text    Type = "text"
	Number  Type = "number"
	Date    Type = "date"
	Person  Type = "person"
	Choice  Type = "choice"
	URL     Type = "url"
	Boolean Type = "boolean"
)

// Valid reports whether the type is known.
func (t Type) Valid() bool {
	switch t {
	case Text, Number, Date, Person, Choice, URL, Boolean:
		return true
	}
	return false
}

// Facetable reports whether facets may be built for the type.
func (t Type) Facetable() bool { return t == Text || t == Choice || t == Person }

// Condition is a formatting rule predicate.
type Condition string

// Rule conditions.
const (
	Equals      Condition = "equals"
	NotEquals   Condition = "notEquals"
	ContainsStr Condition = "contains"
	GreaterThan Condition = "greaterThan"
	LessThan    Condition = "lessThan"
	IsEmpty     Condition = "isEmpty"
	IsNotEmpty  Condition = "isNotEmpty"
)

// FormattingRule styles a cell when its condition holds.
type FormattingRule struct {
	Condition  Condition `json:"condition" validate:"required"`
	Value      string    `json:"value,omitempty"`
	StyleKind  string    `json:"styleKind" validate:"required"`
	StyleValue string    `json:"styleValue"`
}

// Style is the outcome of a matching rule.
type Style struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Matches evaluates the rule against a cell value. Numeric comparisons
// fall back to case-insensitive text comparison when either side is not a number.
func (r FormattingRule) Matches(v item.Value) bool {
	switch r.Condition {
	case IsEmpty:
		return v.IsEmpty()
	case IsNotEmpty:
		return !v.IsEmpty()
	case Equals:
		return strings.EqualFold(v.Text(), r.Value)
	case NotEquals:
		return !strings.EqualFold(v.Text(), r.Value)
	case ContainsStr:
		return strings.Contains(strings.ToLower(v.Text()), strings.ToLower(r.Value))
	case GreaterThan, LessThan:
		if v.IsEmpty() {
			return false
		}
		cmp, ok := compare(v, r.Value)
		if !ok {
			return false
		}
		if r.Condition == GreaterThan {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}

func compare(v item.Value, target string) (int, bool) {
	if f, ok := v.Float(); ok {
		if g, ok := item.String(target).Float(); ok {
			switch {
			case f < g:
				return -1, true
			case f > g:
				return 1, true
			}
			return 0, true
		}
	}
	if tv, ok := v.Time(); ok {
		if tt, ok := item.ParseTime(target); ok {
			return tv.Compare(tt), true
		}
	}
	return strings.Compare(strings.ToLower(v.Text()), strings.ToLower(target)), true
}

// Column describes one field exposed to the presentation layer.
type Column struct {
	FieldName   string           `json:"fieldName" validate:"required"`
	DisplayName string           `json:"displayName"`
	Type        Type             `json:"type"`
	Visible     bool             `json:"visible"`
	Sortable    bool             `json:"sortable"`
	Width       int              `json:"width,omitempty" validate:"gte=0"`
	Rules       []FormattingRule `json:"formattingRules,omitempty" validate:"dive"`
}

// Label returns the display name, defaulting to the field name.
func (c Column) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.FieldName
}

// StyleFor returns the style of the first rule matching v.
func (c Column) StyleFor(v item.Value) (Style, bool) {
	for _, r := range c.Rules {
		if r.Matches(v) {
			return Style{Kind: r.StyleKind, Value: r.StyleValue}, true
		}
	}
	return Style{}, false
}

// Defaults returns the column set used when configuration cannot be parsed.
func Defaults() []Column {
	return []Column{
		{FieldName: item.FieldTitle, DisplayName: "Title", Type: Text, Visible: true, Sortable: true},
		{FieldName: item.FieldAuthor, DisplayName: "Author", Type: Person, Visible: true, Sortable: true},
		{FieldName: item.FieldModified, DisplayName: "Modified", Type: Date, Visible: true, Sortable: true},
		{FieldName: item.FieldFileType, DisplayName: "File Type", Type: Choice, Visible: true, Sortable: true},
		{FieldName: item.FieldContentType, DisplayName: "Content Type", Type: Choice, Visible: true, Sortable: true},
	}
}

// Visible filters the visible columns, keeping their order.
func Visible(cols []Column) []Column {
	out := make([]Column, 0, len(cols))
	for _, c := range cols {
		if c.Visible {
			out = append(out, c)
		}
	}
	return out
}
