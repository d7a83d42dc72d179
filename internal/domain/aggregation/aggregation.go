package aggregation

import (
	"strings"
)

// Fn is an aggregate function.
type Fn string

// Aggregate functions.
const (
	Sum     Fn = "sum"
	Average Fn = "average"
	Count   Fn = "count"
	Min     Fn = "min"
	Max     Fn = "max"
)

// ParseFn maps free text to a function. "avg" is accepted for average.
func ParseFn(s string) (Fn, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum":
		return Sum, true
	case "average", "avg":
		return Average, true
	case "count":
		return Count, true
	case "min":
		return Min, true
	case "max":
		return Max, true
	}
	return "", false
}

// Config requests one aggregate over a field. Field is ignored for Count.
type Config struct {
	Field string `json:"field"`
	Fn    Fn     `json:"fn" validate:"required"`
	Label string `json:"label,omitempty"`
}

// DisplayLabel returns Label or a generated "<Fn> of <field>" text.
func (c Config) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	if c.Fn == Count {
		return "Count"
	}
	name := string(c.Fn)
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return name + " of " + c.Field
}

// Result is a computed aggregate.
type Result struct {
	Field string  `json:"field"`
	Fn    Fn      `json:"fn"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	// Contributors is the number of items that took part in the computation.
	Contributors int `json:"contributors"`
}
