// Package facet builds facet option sets and applies search and facet selections.
package facet

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/rollup/internal/domain/column"
	domfacet "github.com/kailas-cloud/rollup/internal/domain/facet"
	"github.com/kailas-cloud/rollup/internal/domain/item"
)

// ValueOf is the facet value of field on it: the trimmed text of the resolved field.
func ValueOf(it item.Item, field string) string {
	return strings.TrimSpace(it.Field(field).Text())
}

// Extract builds one facet group per facetable column (text, choice, person).
// Columns with no non-empty values or more than domfacet.MaxValues distinct
// values are left out. Options are ordered by count descending, then value.
func Extract(items []item.Item, columns []column.Column) []domfacet.Group {
	groups := make([]domfacet.Group, 0, len(columns))
	for _, col := range columns {
		if !col.Type.Facetable() {
			continue
		}

		counts := make(map[string]int)
		overflow := false
		for _, it := range items {
			v := ValueOf(it, col.FieldName)
			if v == "" {
				continue
			}
			if _, ok := counts[v]; !ok && len(counts) == domfacet.MaxValues {
				overflow = true
				break
			}
			counts[v]++
		}
		if overflow || len(counts) == 0 {
			continue
		}

		options := make([]domfacet.Option, 0, len(counts))
		for v, n := range counts {
			options = append(options, domfacet.Option{Value: v, Label: v, Count: n})
		}
		sort.Slice(options, func(i, j int) bool {
			if options[i].Count != options[j].Count {
				return options[i].Count > options[j].Count
			}
			return options[i].Value < options[j].Value
		})

		groups = append(groups, domfacet.Group{
			FieldName:   col.FieldName,
			DisplayName: col.Label(),
			Options:     options,
		})
	}
	return groups
}

// ApplyFilters keeps the items matching searchText and every active facet field.
// Search is a case-insensitive substring match over title, description, author,
// content type and category. Selected values of one field are OR-ed; fields are AND-ed.
func ApplyFilters(items []item.Item, selection domfacet.Selection, searchText string) []item.Item {
	needle := strings.ToLower(strings.TrimSpace(searchText))
	active := selection.Active()
	if needle == "" && len(active) == 0 {
		return items
	}

	out := make([]item.Item, 0, len(items))
	for _, it := range items {
		if needle != "" && !matchesSearch(it, needle) {
			continue
		}
		if !matchesFacets(it, active) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func matchesSearch(it item.Item, needle string) bool {
	for _, s := range []string{it.Title(), it.Description(), it.Author(), it.ContentType(), it.Category()} {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

func matchesFacets(it item.Item, active map[string]map[string]struct{}) bool {
	for field, selected := range active {
		if _, ok := selected[ValueOf(it, field)]; !ok {
			return false
		}
	}
	return true
}
