// Package grouping buckets items by a field.
package grouping

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/rollup/internal/domain/group"
	"github.com/kailas-cloud/rollup/internal/domain/item"
)

// Placeholder labels for items without a grouping value.
const (
	NoAuthor = "(No Author)"
	Empty    = "(Empty)"
)

// dateLayout truncates date groups to day granularity.
const dateLayout = "2006-01-02"

// Group buckets items by byField, ordered alphabetically by label (case-insensitive).
// Item order within a bucket is preserved. An empty byField yields the single
// "All Items" group.
func Group(items []item.Item, byField string) []group.Group {
	byField = strings.TrimSpace(byField)
	if byField == "" {
		return []group.Group{group.All(items)}
	}

	field, placeholder := resolve(byField)

	index := make(map[string]int)
	var groups []group.Group
	for _, it := range items {
		label := labelOf(it.Field(field))
		if label == "" {
			label = placeholder
		}
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, group.Group{Key: label, Label: label})
		}
		groups[i].Items = append(groups[i].Items, it)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := strings.ToLower(groups[i].Label), strings.ToLower(groups[j].Label)
		if a != b {
			return a < b
		}
		return groups[i].Label < groups[j].Label
	})
	return groups
}

// resolve maps grouping shortcuts to item fields and picks the placeholder.
func resolve(byField string) (string, string) {
	switch strings.ToLower(byField) {
	case "author":
		return item.FieldAuthor, NoAuthor
	case "editor":
		return item.FieldEditor, NoAuthor
	case "filetype":
		return item.FieldFileType, Empty
	case "contenttype":
		return item.FieldContentType, Empty
	case "category":
		return item.FieldCategory, Empty
	case "sourcename", "sitename":
		return item.FieldSourceName, Empty
	case "collectionname", "listname":
		return item.FieldCollectionName, Empty
	case "created":
		return item.FieldCreated, Empty
	case "modified":
		return item.FieldModified, Empty
	}
	return byField, Empty
}

func labelOf(v item.Value) string {
	if v.Kind() == item.KindDate {
		t, _ := v.Time()
		return t.UTC().Format(dateLayout)
	}
	return strings.TrimSpace(v.Text())
}
