// Package settings parses presentation-layer configuration. Parsing never fails:
// malformed input falls back to a documented default and the problem is logged.
package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rollup/internal/domain/aggregation"
	"github.com/kailas-cloud/rollup/internal/domain/column"
	"github.com/kailas-cloud/rollup/internal/domain/query"
	"github.com/kailas-cloud/rollup/internal/domain/source"
	"github.com/kailas-cloud/rollup/internal/domain/view"
)

// Parser decodes raw JSON configuration members.
type Parser struct {
	validate *validator.Validate
	logger   *zap.Logger
}

// New creates a Parser.
func New(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{validate: validator.New(), logger: logger}
}

// Raw is the bundle of configuration members supplied by the presentation layer.
type Raw struct {
	Sources      json.RawMessage `json:"sources,omitempty"`
	Query        json.RawMessage `json:"query,omitempty"`
	Columns      json.RawMessage `json:"columns,omitempty"`
	Aggregations json.RawMessage `json:"aggregations,omitempty"`
	Views        json.RawMessage `json:"views,omitempty"`
	Actions      json.RawMessage `json:"actions,omitempty"`
}

// Parsed is the typed result of Parse.
type Parsed struct {
	Sources      []source.Source
	Query        query.Query
	Columns      []column.Column
	Aggregations []aggregation.Config
	Views        []view.SavedView
	Actions      []view.Action
}

// Parse decodes every member of raw.
func (p *Parser) Parse(raw Raw) Parsed {
	return Parsed{
		Sources:      p.Sources(raw.Sources),
		Query:        p.Query(raw.Query),
		Columns:      p.Columns(raw.Columns),
		Aggregations: p.Aggregations(raw.Aggregations),
		Views:        p.Views(raw.Views),
		Actions:      p.Actions(raw.Actions),
	}
}

// Sources decodes the source list. Invalid entries are dropped; an empty or
// unparseable list yields the single default source.
func (p *Parser) Sources(raw json.RawMessage) []source.Source {
	var in []source.Source
	if !p.decode("sources", raw, &in) {
		return []source.Source{source.Default()}
	}

	out := make([]source.Source, 0, len(in))
	for _, s := range in {
		s.Kind = source.Kind(strings.ToLower(strings.TrimSpace(string(s.Kind))))
		if err := p.validate.Struct(s); err != nil {
			p.logger.Warn("dropping source", zap.String("source_id", s.ID), zap.Error(err))
			continue
		}
		if err := s.Validate(); err != nil {
			p.logger.Warn("dropping source", zap.String("source_id", s.ID), zap.Error(err))
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return []source.Source{source.Default()}
	}
	return out
}

type rawRule struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

type rawGroup struct {
	Conjunction string    `json:"conjunction"`
	Rules       []rawRule `json:"rules"`
}

type rawQuery struct {
	Conjunction string     `json:"conjunction"`
	Groups      []rawGroup `json:"groups"`
}

// Query decodes the structured query. Unparseable input yields the empty query.
// Rule values of any JSON scalar type are converted to text.
func (p *Parser) Query(raw json.RawMessage) query.Query {
	var in rawQuery
	if !p.decode("query", raw, &in) {
		return query.Query{}
	}

	q := query.Query{Conjunction: query.ParseConjunction(in.Conjunction)}
	for _, g := range in.Groups {
		group := query.Group{Conjunction: query.ParseConjunction(g.Conjunction)}
		for _, r := range g.Rules {
			op, ok := query.ParseOperator(r.Operator)
			if !ok {
				continue
			}
			group.Rules = append(group.Rules, query.Rule{Field: r.Field, Operator: op, Value: scalarText(r.Value)})
		}
		q.Groups = append(q.Groups, group)
	}
	return q
}

// Columns decodes the column list. Unparseable or invalid input yields column.Defaults.
func (p *Parser) Columns(raw json.RawMessage) []column.Column {
	var in []column.Column
	if !p.decode("columns", raw, &in) || len(in) == 0 {
		return column.Defaults()
	}
	for i := range in {
		if !in[i].Type.Valid() {
			in[i].Type = column.Text
		}
	}
	for _, c := range in {
		if err := p.validate.Struct(c); err != nil {
			p.logger.Warn("invalid columns, using defaults", zap.Error(err))
			return column.Defaults()
		}
	}
	return in
}

// Aggregations decodes the aggregation list. Entries with unknown functions are dropped.
func (p *Parser) Aggregations(raw json.RawMessage) []aggregation.Config {
	var in []aggregation.Config
	if !p.decode("aggregations", raw, &in) {
		return []aggregation.Config{}
	}
	out := make([]aggregation.Config, 0, len(in))
	for _, c := range in {
		fn, ok := aggregation.ParseFn(string(c.Fn))
		if !ok {
			continue
		}
		c.Fn = fn
		if fn != aggregation.Count && strings.TrimSpace(c.Field) == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Views decodes saved views. Unparseable input yields an empty list.
func (p *Parser) Views(raw json.RawMessage) []view.SavedView {
	var in []view.SavedView
	if !p.decode("views", raw, &in) {
		return []view.SavedView{}
	}
	out := make([]view.SavedView, 0, len(in))
	for _, v := range in {
		if err := p.validate.Struct(v); err != nil {
			continue
		}
		v.Mode = view.ParseMode(string(v.Mode))
		if v.SortDirection != "" {
			v.SortDirection = view.ParseSortDirection(string(v.SortDirection))
		}
		out = append(out, v)
	}
	return out
}

// Actions decodes item actions. Unparseable input yields an empty list.
func (p *Parser) Actions(raw json.RawMessage) []view.Action {
	var in []view.Action
	if !p.decode("actions", raw, &in) {
		return []view.Action{}
	}
	out := make([]view.Action, 0, len(in))
	for _, a := range in {
		if err := p.validate.Struct(a); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}

// decode unmarshals raw into dst. A JSON string holding JSON is unwrapped first,
// as property stores often persist configuration as text.
func (p *Parser) decode(member string, raw json.RawMessage, dst any) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			p.logger.Warn("unparseable configuration", zap.String("member", member), zap.Error(err))
			return false
		}
		raw = bytes.TrimSpace([]byte(text))
		if len(raw) == 0 {
			return false
		}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		p.logger.Warn("unparseable configuration", zap.String("member", member), zap.Error(err))
		return false
	}
	return true
}

func scalarText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return fmt.Sprintf("%g", x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
