package query

import "strings"

// Operator is a rule comparison.
type Operator string

// Rule operators.
const (
	Eq         Operator = "eq"
	Ne         Operator = "ne"
	Gt         Operator = "gt"
	Lt         Operator = "lt"
	Ge         Operator = "ge"
	Le         Operator = "le"
	Contains   Operator = "contains"
	BeginsWith Operator = "beginsWith"
)

// Conjunction joins rules within a group or groups within a query.
type Conjunction string

// Conjunctions.
const (
	And Conjunction = "AND"
	Or  Conjunction = "OR"
)

// ParseConjunction maps free text to a conjunction. Anything other than "or" is AND.
func ParseConjunction(s string) Conjunction {
	if strings.EqualFold(strings.TrimSpace(s), "or") {
		return Or
	}
	return And
}

// ParseOperator maps free text to an operator, case-insensitively.
func ParseOperator(s string) (Operator, bool) {
	s = strings.TrimSpace(s)
	for _, op := range []Operator{Eq, Ne, Gt, Lt, Ge, Le, Contains, BeginsWith} {
		if strings.EqualFold(s, string(op)) {
			return op, true
		}
	}
	return "", false
}

// Rule is a single field comparison.
type Rule struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// Valid reports whether the rule has a field, a value and a known operator.
func (r Rule) Valid() bool {
	if strings.TrimSpace(r.Field) == "" || strings.TrimSpace(r.Value) == "" {
		return false
	}
	_, ok := ParseOperator(string(r.Operator))
	return ok
}

// Group is a conjunction over rules.
type Group struct {
	Conjunction Conjunction `json:"conjunction"`
	Rules       []Rule      `json:"rules"`
}

// Query is a conjunction over groups.
type Query struct {
	Conjunction Conjunction `json:"conjunction"`
	Groups      []Group     `json:"groups"`
}

// IsEmpty reports whether the query has no valid rule and therefore matches everything.
func (q Query) IsEmpty() bool {
	for _, g := range q.Groups {
		for _, r := range g.Rules {
			if r.Valid() {
				return false
			}
		}
	}
	return true
}
