package query

import "strings"

// Compiled holds both textual forms of a query. Empty strings match everything.
type Compiled struct {
	// FullText is the federated search query language form.
	FullText string `json:"fullText"`
	// Filter is the list backend structured filter form.
	Filter string `json:"filter"`
}

// Compile translates q into both query languages. It never fails: rules missing
// a field, a value or a known operator are dropped, and groups left empty vanish.
func Compile(q Query) Compiled {
	var fullGroups, filterGroups []string
	for _, g := range q.Groups {
		conj := ParseConjunction(string(g.Conjunction))

		var full, filter []string
		for _, r := range g.Rules {
			if !r.Valid() {
				continue
			}
			op, _ := ParseOperator(string(r.Operator))
			field := strings.TrimSpace(r.Field)
			value := strings.TrimSpace(r.Value)
			full = append(full, fullTextTerm(field, op, value))
			filter = append(filter, filterTerm(field, op, value))
		}
		if len(full) == 0 {
			continue
		}
		fullGroups = append(fullGroups, joinGroup(full, " "+string(conj)+" "))
		filterGroups = append(filterGroups, joinGroup(filter, " "+strings.ToLower(string(conj))+" "))
	}

	top := ParseConjunction(string(q.Conjunction))
	return Compiled{
		FullText: strings.Join(fullGroups, " "+string(top)+" "),
		Filter:   strings.Join(filterGroups, " "+strings.ToLower(string(top))+" "),
	}
}

func joinGroup(terms []string, sep string) string {
	if len(terms) == 1 {
		return terms[0]
	}
	return "(" + strings.Join(terms, sep) + ")"
}

func fullTextTerm(field string, op Operator, value string) string {
	switch op {
	case Eq:
		return field + ":" + quoteFullText(value)
	case Ne:
		return "-" + field + ":" + quoteFullText(value)
	case Contains:
		return field + ":*" + value + "*"
	case BeginsWith:
		return field + ":" + value + "*"
	case Gt:
		return field + ">" + value
	case Lt:
		return field + "<" + value
	case Ge:
		return field + ">=" + value
	case Le:
		return field + "<=" + value
	}
	return ""
}

func filterTerm(field string, op Operator, value string) string {
	quoted := quoteFilter(value)
	switch op {
	case Contains:
		return "substringof(" + quoted + "," + field + ")"
	case BeginsWith:
		return "startswith(" + field + "," + quoted + ")"
	default:
		return field + " " + string(op) + " " + quoted
	}
}

func quoteFullText(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}

func quoteFilter(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
