package item

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
	// KindRaw is an unparsed string as delivered by a backend (search rows are all strings).
	KindRaw
)

var kindNames = map[Kind]string{
	KindNull:   "null",
	KindString: "string",
	KindNumber: "number",
	KindBool:   "bool",
	KindDate:   "date",
	KindRaw:    "raw",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Value is a typed field value. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	n    float64
	b    bool
	t    time.Time
}

// Null returns the null value.
func Null() Value { return Value{} }

// String wraps a text value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Number wraps a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, n: f} }

// Bool wraps a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Date wraps a timestamp. A zero time yields null.
func Date(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{kind: KindDate, t: t}
}

// Raw wraps an unparsed backend string.
func Raw(s string) Value { return Value{kind: KindRaw, s: s} }

// FromAny converts a loosely-typed value (decoded JSON, database scan) into a Value.
func FromAny(x any) Value {
	switch v := x.(type) {
	case nil:
		return Null()
	case Value:
		return v
	case string:
		return String(v)
	case bool:
		return Bool(v)
	case float64:
		return Number(v)
	case float32:
		return Number(float64(v))
	case int:
		return Number(float64(v))
	case int32:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case uint32:
		return Number(float64(v))
	case uint64:
		return Number(float64(v))
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return Number(f)
		}
		return Raw(v.String())
	case time.Time:
		return Date(v)
	case []string:
		return String(strings.Join(v, ";"))
	case map[string]any:
		// Lookup-style values (person/url fields) carry a display text.
		for _, k := range []string{"Title", "title", "Description", "description", "Label", "label"} {
			if s, ok := v[k].(string); ok {
				return String(s)
			}
		}
		data, err := json.Marshal(v)
		if err != nil {
			return Raw(fmt.Sprint(v))
		}
		return Raw(string(data))
	default:
		return Raw(fmt.Sprint(v))
	}
}

// Kind returns the variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsEmpty reports whether the value is null or blank text.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString, KindRaw:
		return strings.TrimSpace(v.s) == ""
	default:
		return false
	}
}

// Text returns the display text of the value.
func (v Value) Text() string {
	switch v.kind {
	case KindString, KindRaw:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.UTC().Format(time.RFC3339)
	default:
		return ""
	}
}

// Float narrows the value to a finite number. Text that parses as a number counts.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return 0, false
		}
		return v.n, true
	case KindString, KindRaw:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Time narrows the value to a timestamp. RFC 3339 text counts.
func (v Value) Time() (time.Time, bool) {
	switch v.kind {
	case KindDate:
		return v.t, true
	case KindString, KindRaw:
		return ParseTime(v.s)
	default:
		return time.Time{}, false
	}
}

// BoolValue narrows the value to a boolean.
func (v Value) BoolValue() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindString, KindRaw:
		b, err := strconv.ParseBool(strings.TrimSpace(v.s))
		return b, err == nil
	default:
		return false, false
	}
}

// Equal reports whether two values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindNumber:
		return v.n == o.n
	case KindBool:
		return v.b == o.b
	case KindDate:
		return v.t.Equal(o.t)
	default:
		return v.s == o.s
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses the timestamp formats emitted by the list and search backends.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// wireValue is the tagged JSON form that keeps the variant across a cache round-trip.
type wireValue struct {
	K string          `json:"k"`
	V json.RawMessage `json:"v,omitempty"`
}

// MarshalJSON encodes the value with its kind tag.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.kind {
	case KindNull:
		return json.Marshal(wireValue{K: "null"})
	case KindNumber:
		payload = v.n
	case KindBool:
		payload = v.b
	case KindDate:
		payload = v.t.Format(time.RFC3339Nano)
	default:
		payload = v.s
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s value: %w", v.kind, err)
	}
	return json.Marshal(wireValue{K: v.kind.String(), V: raw})
}

// UnmarshalJSON decodes the tagged form. Untagged JSON scalars are accepted as well.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil || w.K == "" {
		var x any
		if err := json.Unmarshal(data, &x); err != nil {
			return fmt.Errorf("unmarshal value: %w", err)
		}
		*v = FromAny(x)
		return nil
	}

	switch w.K {
	case "null":
		*v = Null()
	case "number":
		var f float64
		if err := json.Unmarshal(w.V, &f); err != nil {
			return fmt.Errorf("unmarshal number value: %w", err)
		}
		*v = Number(f)
	case "bool":
		var b bool
		if err := json.Unmarshal(w.V, &b); err != nil {
			return fmt.Errorf("unmarshal bool value: %w", err)
		}
		*v = Bool(b)
	case "date":
		var s string
		if err := json.Unmarshal(w.V, &s); err != nil {
			return fmt.Errorf("unmarshal date value: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("parse date value: %w", err)
		}
		*v = Date(t)
	case "string", "raw":
		var s string
		if err := json.Unmarshal(w.V, &s); err != nil {
			return fmt.Errorf("unmarshal %s value: %w", w.K, err)
		}
		if w.K == "raw" {
			*v = Raw(s)
		} else {
			*v = String(s)
		}
	default:
		return fmt.Errorf("unknown value kind %q", w.K)
	}
	return nil
}
