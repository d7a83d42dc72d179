// Package aggregation computes numeric aggregates over the filtered item set.
package aggregation

import (
	domagg "github.com/kailas-cloud/rollup/internal/domain/aggregation"
	"github.com/kailas-cloud/rollup/internal/domain/item"
)

// Aggregate evaluates every config over items. Count ignores the field. The
// other functions use only items whose field value is numeric (a Number, or
// text that parses as a finite float); with no contributors the value is 0.
func Aggregate(items []item.Item, configs []domagg.Config) []domagg.Result {
	out := make([]domagg.Result, 0, len(configs))
	for _, cfg := range configs {
		res := domagg.Result{Field: cfg.Field, Fn: cfg.Fn, Label: cfg.DisplayLabel()}

		if cfg.Fn == domagg.Count {
			res.Value = float64(len(items))
			res.Contributors = len(items)
			out = append(out, res)
			continue
		}

		values := numericValues(items, cfg.Field)
		res.Contributors = len(values)
		if len(values) > 0 {
			switch cfg.Fn {
			case domagg.Sum:
				res.Value = sum(values)
			case domagg.Average:
				res.Value = sum(values) / float64(len(values))
			case domagg.Min:
				res.Value = minOf(values)
			case domagg.Max:
				res.Value = maxOf(values)
			default:
				res.Contributors = 0
			}
		}
		out = append(out, res)
	}
	return out
}

func numericValues(items []item.Item, field string) []float64 {
	values := make([]float64, 0, len(items))
	for _, it := range items {
		if f, ok := it.Field(field).Float(); ok {
			values = append(values, f)
		}
	}
	return values
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = min(m, v)
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = max(m, v)
	}
	return m
}
