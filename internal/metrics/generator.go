package metrics

import (
	"datalens/domain/dataset"
	"datalens/domain/metric"
)

// Generator proposes derived metrics from a dataset's column metadata
type Generator struct {
	set TemplateSet
}

// NewGenerator creates a generator for the given template set
func NewGenerator(set TemplateSet) *Generator {
	if set == "" {
		set = TemplatesExtended
	}
	return &Generator{set: set}
}

// Generate returns the row count metric followed by every template whose
// operator accepts a column's type, in column order. A metric is never
// proposed for an incompatible column.
func (g *Generator) Generate(ds *dataset.Dataset) []metric.DerivedMetric {
	metrics := []metric.DerivedMetric{countRowsTemplate.build(ds, "")}
	for _, col := range ds.Columns {
		for _, t := range catalog {
			if t.enabled(g.set) && t.op.Accepts(col.Type) {
				metrics = append(metrics, t.build(ds, col.Name))
			}
		}
	}
	return metrics
}

// CheckApplicability reports whether the metric's column exists in columns
// with a type its operator accepts. Column-free metrics always apply.
func CheckApplicability(m metric.DerivedMetric, columns []dataset.ColumnInfo) bool {
	if !m.Operator.NeedsColumn() {
		return true
	}
	for _, c := range columns {
		if c.Name == m.Column {
			return m.Operator.Accepts(c.Type)
		}
	}
	return false
}

// Refresh recomputes the applicability flag of each metric against the
// dataset's current columns. The input slice is left untouched.
func Refresh(metrics []metric.DerivedMetric, ds *dataset.Dataset) []metric.DerivedMetric {
	out := make([]metric.DerivedMetric, len(metrics))
	for i, m := range metrics {
		m.Applicable = CheckApplicability(m, ds.Columns)
		out[i] = m
	}
	return out
}
