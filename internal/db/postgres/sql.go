package postgres

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/rollup/internal/db"
	"github.com/kailas-cloud/rollup/internal/domain/item"
	"github.com/kailas-cloud/rollup/internal/domain/query"
	"github.com/kailas-cloud/rollup/internal/domain/source"
)

const numericPattern = `'^\s*-?[0-9]+(\.[0-9]+)?\s*$'`

type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// buildListSQL translates q into a parameterized statement. Field names travel
// as parameters too, so nothing user-supplied is spliced into the SQL text.
func buildListSQL(q db.ListQuery) (string, []any) {
	b := &sqlBuilder{}
	var where []string

	if q.SiteURL != "" {
		where = append(where, "rtrim(lower(site_url), '/') = "+b.arg(source.NormalizeSiteURL(q.SiteURL)))
	}
	where = append(where, "collection = "+b.arg(q.Collection))
	if q.ContentTypeID != "" {
		where = append(where, "content_type_id LIKE "+b.arg(escapeLike(q.ContentTypeID))+" || '%'")
	}
	if clause := b.queryClause(q.Query); clause != "" {
		where = append(where, clause)
	}

	var sb strings.Builder
	sb.WriteString("SELECT collection_id, item_id, content_type_id, modified, fields FROM rollup_items WHERE ")
	sb.WriteString(strings.Join(where, " AND "))

	sb.WriteString(" ORDER BY ")
	if q.OrderBy == "" || strings.EqualFold(q.OrderBy, item.FieldModified) {
		sb.WriteString("modified")
	} else {
		sb.WriteString("fields->>" + b.arg(q.OrderBy))
	}
	if q.Desc {
		sb.WriteString(" DESC")
	}
	if q.Top > 0 {
		sb.WriteString(" LIMIT " + b.arg(q.Top))
	}
	return sb.String(), b.args
}

func (b *sqlBuilder) queryClause(q query.Query) string {
	var groups []string
	for _, g := range q.Groups {
		var terms []string
		for _, r := range g.Rules {
			if !r.Valid() {
				continue
			}
			if t := b.ruleClause(r); t != "" {
				terms = append(terms, t)
			}
		}
		if len(terms) == 0 {
			continue
		}
		conj := " " + string(query.ParseConjunction(string(g.Conjunction))) + " "
		groups = append(groups, "("+strings.Join(terms, conj)+")")
	}
	if len(groups) == 0 {
		return ""
	}
	conj := " " + string(query.ParseConjunction(string(q.Conjunction))) + " "
	return "(" + strings.Join(groups, conj) + ")"
}

func (b *sqlBuilder) ruleClause(r query.Rule) string {
	op, _ := query.ParseOperator(string(r.Operator))
	field := strings.TrimSpace(r.Field)
	value := strings.TrimSpace(r.Value)

	if strings.EqualFold(field, item.FieldModified) {
		t, ok := item.ParseTime(value)
		if !ok {
			return ""
		}
		if sym, ok := comparison(op); ok {
			return "modified " + sym + " " + b.arg(t)
		}
		return ""
	}

	expr := "fields->>" + b.arg(field)
	switch op {
	case query.Contains:
		return expr + " ILIKE '%' || " + b.arg(escapeLike(value)) + " || '%'"
	case query.BeginsWith:
		return expr + " ILIKE " + b.arg(escapeLike(value)) + " || '%'"
	case query.Ne:
		return expr + " IS DISTINCT FROM " + b.arg(value)
	case query.Eq:
		return expr + " = " + b.arg(value)
	}

	sym, _ := comparison(op)
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return "(CASE WHEN " + expr + " ~ " + numericPattern + " THEN (" + expr + ")::numeric END) " + sym + " " + b.arg(f)
	}
	return expr + " " + sym + " " + b.arg(value)
}

func comparison(op query.Operator) (string, bool) {
	switch op {
	case query.Eq:
		return "=", true
	case query.Ne:
		return "<>", true
	case query.Gt:
		return ">", true
	case query.Lt:
		return "<", true
	case query.Ge:
		return ">=", true
	case query.Le:
		return "<=", true
	}
	return "", false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
