package rollup

import (
	"github.com/kailas-cloud/rollup/internal/domain/column"
	"github.com/kailas-cloud/rollup/internal/domain/item"
)

// Styles maps item id to field name to the style of the first matching rule.
type Styles map[string]map[string]column.Style

// CellStyles evaluates the formatting rules of columns against items.
// Cells without a matching rule are absent.
func CellStyles(items []item.Item, columns []column.Column) Styles {
	out := make(Styles)
	for _, it := range items {
		for _, col := range columns {
			if len(col.Rules) == 0 {
				continue
			}
			style, ok := col.StyleFor(it.Field(col.FieldName))
			if !ok {
				continue
			}
			row, ok := out[it.ID()]
			if !ok {
				row = make(map[string]column.Style)
				out[it.ID()] = row
			}
			row[col.FieldName] = style
		}
	}
	return out
}

// visibleColumns resolves the columns to show: the names picked in the session
// state when present, otherwise the columns flagged visible.
func visibleColumns(columns []column.Column, names []string) []column.Column {
	if len(names) == 0 {
		return column.Visible(columns)
	}
	byName := make(map[string]column.Column, len(columns))
	for _, c := range columns {
		byName[c.FieldName] = c
	}
	out := make([]column.Column, 0, len(names))
	for _, n := range names {
		if c, ok := byName[n]; ok {
			out = append(out, c)
		}
	}
	return out
}
