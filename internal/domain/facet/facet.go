package facet

// MaxValues caps the distinct values a column may have and still be offered as a facet.
const MaxValues = 50

// Option is one selectable facet value.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Group is the option set of one facetable column.
type Group struct {
	FieldName   string   `json:"fieldName"`
	DisplayName string   `json:"displayName"`
	Options     []Option `json:"options"`
}

// Selection maps a field name to its selected values. Values of one field are OR-ed,
// fields are AND-ed, and a field with no values is ignored.
type Selection map[string][]string

// Active returns the fields that carry at least one selected value.
func (s Selection) Active() map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(s))
	for field, values := range s {
		if len(values) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[v] = struct{}{}
		}
		out[field] = set
	}
	return out
}

// Toggle returns a copy of s with value flipped in or out of field's selection.
func (s Selection) Toggle(field, value string) Selection {
	out := s.Clone()
	values := out[field]
	for i, v := range values {
		if v == value {
			out[field] = append(values[:i:i], values[i+1:]...)
			return out
		}
	}
	out[field] = append(values, value)
	return out
}

// Clone deep-copies the selection.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = append([]string(nil), v...)
	}
	return out
}
