package metrics

import (
	"fmt"
	"strings"

	"datalens/domain/dataset"
	"datalens/domain/metric"
	"datalens/internal/errors"
)

// TemplateSet selects which metric templates are generated
type TemplateSet string

const (
	// TemplatesCore is row count plus SUM/AVERAGE/MAX/MIN and YEAR
	TemplatesCore TemplateSet = "core"
	// TemplatesExtended adds distinct counts, spread, percentile, text and logical templates
	TemplatesExtended TemplateSet = "extended"
)

// ParseTemplateSet accepts "core" or "extended"
func ParseTemplateSet(s string) (TemplateSet, error) {
	switch TemplateSet(strings.ToLower(strings.TrimSpace(s))) {
	case TemplatesCore:
		return TemplatesCore, nil
	case TemplatesExtended, "":
		return TemplatesExtended, nil
	default:
		return "", errors.InvalidInput(fmt.Sprintf("unknown metric template set %q", s))
	}
}

// template describes one per-column metric
type template struct {
	op          metric.Operator
	idPrefix    string
	name        string // %s is the column name
	description string // %s is the column name
	category    metric.Category
	confidence  float64
	args        string
	extended    bool
}

// countRowsTemplate is the only metric without a column
var countRowsTemplate = template{
	op:          metric.OpCountRows,
	idPrefix:    "total-rows",
	name:        "Total Rows",
	description: "Number of rows in the dataset",
	category:    metric.CategoryAggregation,
	confidence:  1.0,
}

// catalog is ordered; generation follows column order, then this order
var catalog = []template{
	{op: metric.OpSum, idPrefix: "sum", name: "Total %s", description: "Sum of all %s values", category: metric.CategoryAggregation, confidence: 0.9},
	{op: metric.OpAverage, idPrefix: "avg", name: "Average %s", description: "Mean of %s", category: metric.CategoryAggregation, confidence: 0.9},
	{op: metric.OpMax, idPrefix: "max", name: "Maximum %s", description: "Highest %s value", category: metric.CategoryAggregation, confidence: 0.9},
	{op: metric.OpMin, idPrefix: "min", name: "Minimum %s", description: "Lowest %s value", category: metric.CategoryAggregation, confidence: 0.8},
	{op: metric.OpYear, idPrefix: "year", name: "Years in %s", description: "Distinct years found in %s", category: metric.CategoryTime, confidence: 0.8},

	{op: metric.OpDistinctCount, idPrefix: "distinct", name: "Distinct %s", description: "Number of distinct %s values", category: metric.CategoryAggregation, confidence: 0.9, extended: true},
	{op: metric.OpStdevP, idPrefix: "stdev", name: "%s Std Dev", description: "Population standard deviation of %s", category: metric.CategoryStatistical, confidence: 0.6, extended: true},
	{op: metric.OpVarP, idPrefix: "variance", name: "%s Variance", description: "Population variance of %s", category: metric.CategoryStatistical, confidence: 0.6, extended: true},
	{op: metric.OpPercentileInc, idPrefix: "p90", name: "%s 90th Percentile", description: "Value below which 90%% of %s falls", category: metric.CategoryStatistical, confidence: 0.5, args: "0.9", extended: true},
	{op: metric.OpMonth, idPrefix: "month", name: "Months in %s", description: "Distinct months found in %s", category: metric.CategoryTime, confidence: 0.7, extended: true},
	{op: metric.OpQuarter, idPrefix: "quarter", name: "Quarters in %s", description: "Distinct quarters found in %s", category: metric.CategoryTime, confidence: 0.7, extended: true},
	{op: metric.OpLen, idPrefix: "length", name: "%s Avg Length", description: "Average text length of %s", category: metric.CategoryText, confidence: 0.7, extended: true},
	{op: metric.OpUpper, idPrefix: "upper", name: "%s Uppercase", description: "Distinct %s values in upper case", category: metric.CategoryText, confidence: 0.7, extended: true},
	{op: metric.OpIf, idPrefix: "flag", name: "%s True Count", description: "Rows where %s is true", category: metric.CategoryLogical, confidence: 0.6, args: "1, 0", extended: true},
}

func (t template) formula(column string) string {
	if !t.op.NeedsColumn() {
		return string(t.op) + "(Table)"
	}
	if t.args != "" {
		return fmt.Sprintf("%s(%s, %s)", t.op, ColumnRef(column), t.args)
	}
	return fmt.Sprintf("%s(%s)", t.op, ColumnRef(column))
}

func (t template) enabled(set TemplateSet) bool {
	return !t.extended || set == TemplatesExtended
}

func (t template) build(ds *dataset.Dataset, column string) metric.DerivedMetric {
	m := metric.DerivedMetric{
		DatasetID:  ds.ID,
		Formula:    t.formula(column),
		Category:   t.category,
		Operator:   t.op,
		Applicable: true,
		Confidence: clampConfidence(t.confidence),
	}
	if t.op.NeedsColumn() {
		m.ID = t.idPrefix + "-" + column
		m.Name = fmt.Sprintf(t.name, column)
		m.Description = fmt.Sprintf(t.description, column)
		m.Column = column
	} else {
		m.ID = t.idPrefix
		m.Name = t.name
		m.Description = t.description
	}
	return m
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
