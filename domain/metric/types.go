package metric

import (
	"datalens/domain/core"
	"datalens/domain/dataset"
)

// Category groups derived metrics for display
type Category string

const (
	CategoryAggregation Category = "aggregation"
	CategoryTime        Category = "time"
	CategoryStatistical Category = "statistical"
	CategoryText        Category = "text"
	CategoryLogical     Category = "logical"
)

// Operator is the leading keyword of a formula
type Operator string

const (
	OpCountRows     Operator = "COUNTROWS"
	OpSum           Operator = "SUM"
	OpAverage       Operator = "AVERAGE"
	OpMax           Operator = "MAX"
	OpMin           Operator = "MIN"
	OpDistinctCount Operator = "DISTINCTCOUNT"
	OpYear          Operator = "YEAR"
	OpMonth         Operator = "MONTH"
	OpQuarter       Operator = "QUARTER"
	OpStdevP        Operator = "STDEV.P"
	OpVarP          Operator = "VAR.P"
	OpPercentileInc Operator = "PERCENTILE.INC"
	OpLen           Operator = "LEN"
	OpUpper         Operator = "UPPER"
	OpIf            Operator = "IF"
)

// Accepts reports whether the operator can be applied to a column of type t.
// COUNTROWS takes no column and accepts nothing.
func (op Operator) Accepts(t dataset.ColumnType) bool {
	switch op {
	case OpSum, OpAverage, OpMax, OpMin, OpStdevP, OpVarP, OpPercentileInc:
		return t == dataset.TypeNumber
	case OpYear, OpMonth, OpQuarter:
		return t == dataset.TypeDate
	case OpLen, OpUpper:
		return t == dataset.TypeString
	case OpIf:
		return t == dataset.TypeBoolean
	case OpDistinctCount:
		return true
	default:
		return false
	}
}

// NeedsColumn reports whether the operator references a column
func (op Operator) NeedsColumn() bool {
	return op != OpCountRows
}

// DerivedMetric is a proposed aggregate calculation over one dataset
type DerivedMetric struct {
	ID          string         `json:"id" yaml:"id"`
	DatasetID   core.DatasetID `json:"datasetId" yaml:"datasetId"`
	Name        string         `json:"name" yaml:"name"`
	Formula     string         `json:"formula" yaml:"formula"`
	Description string         `json:"description" yaml:"description"`
	Category    Category       `json:"category" yaml:"category"`
	Operator    Operator       `json:"operator" yaml:"operator"`
	Column      string         `json:"column,omitempty" yaml:"column,omitempty"`
	Applicable  bool           `json:"applicable" yaml:"applicable"`
	Confidence  float64        `json:"confidence" yaml:"confidence"`

	// Result is nil until evaluated, and stays nil when evaluation fails
	Result any `json:"result" yaml:"result"`
}
