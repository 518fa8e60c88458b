package metrics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"datalens/adapters/datareadiness/coercer"
	"datalens/domain/core"
	"datalens/domain/dataset"
	"datalens/domain/metric"
	"datalens/internal"
	"datalens/internal/errors"
	"datalens/internal/profiling"
)

// MaxUpperValues caps the distinct values returned by UPPER
const MaxUpperValues = 10

type evalFunc func(e *Evaluator, f Formula, ds *dataset.Dataset, values []any) (any, error)

var operators = map[metric.Operator]evalFunc{
	metric.OpCountRows:     evalCountRows,
	metric.OpSum:           evalSum,
	metric.OpAverage:       evalAverage,
	metric.OpMax:           evalMax,
	metric.OpMin:           evalMin,
	metric.OpDistinctCount: evalDistinctCount,
	metric.OpYear:          evalYear,
	metric.OpMonth:         evalMonth,
	metric.OpQuarter:       evalQuarter,
	metric.OpStdevP:        evalStdevP,
	metric.OpVarP:          evalVarP,
	metric.OpPercentileInc: evalPercentile,
	metric.OpLen:           evalLen,
	metric.OpUpper:         evalUpper,
	metric.OpIf:            evalIf,
}

// ValueCoercer converts raw cell values for the operators
type ValueCoercer interface {
	ParseNumber(v any) (float64, bool)
	ParseDate(v any) (time.Time, bool)
	ParseBoolean(v any) (bool, bool)
}

// Evaluator executes metric formulas against dataset rows
type Evaluator struct {
	coercer ValueCoercer
	logger  *internal.Logger
}

// NewEvaluator creates an evaluator. It should share the coercer used for
// type inference so that coercion agrees with the inferred types.
func NewEvaluator(c ValueCoercer, logger *internal.Logger) *Evaluator {
	if c == nil {
		c = coercer.Default
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Evaluator{coercer: c, logger: logger}
}

// Evaluate computes one metric. Failures carry CodeMetricEvaluation.
func (e *Evaluator) Evaluate(m metric.DerivedMetric, ds *dataset.Dataset) (any, error) {
	f, err := ParseFormula(m.Formula)
	if err != nil {
		return nil, evaluationError(m, err)
	}
	fn, ok := operators[f.Operator]
	if !ok {
		return nil, evaluationError(m, fmt.Errorf("%w: %s", core.ErrUnknownOperator, f.Operator))
	}

	var values []any
	if f.Operator.NeedsColumn() {
		if !f.HasColumn {
			return nil, evaluationError(m, fmt.Errorf("%w: %s needs a column", core.ErrInvalidArgument, f.Operator))
		}
		col, ok := ds.Column(f.Column)
		if !ok {
			return nil, evaluationError(m, fmt.Errorf("%w: %s", core.ErrColumnNotFound, f.Column))
		}
		if !f.Operator.Accepts(col.Type) {
			return nil, evaluationError(m, fmt.Errorf("%w: %s on %s column %s", core.ErrTypeMismatch, f.Operator, col.Type, col.Name))
		}
		values = dataset.NonNull(ds.Values(f.Column))
	}

	result, err := fn(e, f, ds, values)
	if err != nil {
		return nil, evaluationError(m, err)
	}
	if x, ok := result.(float64); ok && (math.IsNaN(x) || math.IsInf(x, 0)) {
		return nil, evaluationError(m, fmt.Errorf("non-finite result %v", x))
	}
	return result, nil
}

// EvaluateAll attaches a result to every metric. A metric that cannot be
// evaluated keeps a nil result; the failure is logged and never returned.
func (e *Evaluator) EvaluateAll(ds *dataset.Dataset, metrics []metric.DerivedMetric) []metric.DerivedMetric {
	out := Refresh(metrics, ds)
	for i := range out {
		out[i].Result = nil
		if !out[i].Applicable {
			continue
		}
		result, err := e.safeEvaluate(out[i], ds)
		if err != nil {
			e.logger.Debug("metric %s on dataset %s not applicable: %v", out[i].ID, ds.ID, err)
		}
		out[i].Result = result
		e.logger.Trace("metric %s on dataset %s = %v", out[i].ID, ds.ID, result)
	}
	return out
}

func (e *Evaluator) safeEvaluate(m metric.DerivedMetric, ds *dataset.Dataset) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = evaluationError(m, fmt.Errorf("panic: %v", r))
		}
	}()
	return e.Evaluate(m, ds)
}

func evaluationError(m metric.DerivedMetric, cause error) error {
	return &errors.AppError{
		Code:    errors.CodeMetricEvaluation,
		Message: fmt.Sprintf("metric %s (%s) cannot be evaluated", m.ID, m.Formula),
		Cause:   cause,
	}
}

func (e *Evaluator) numbers(values []any) ([]float64, error) {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := e.coercer.ParseNumber(v); ok {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, core.ErrEmptyValues
	}
	return out, nil
}

func evalCountRows(_ *Evaluator, _ Formula, ds *dataset.Dataset, _ []any) (any, error) {
	return ds.RowCount, nil
}

func evalSum(e *Evaluator, _ Formula, _ *dataset.Dataset, values []any) (any, error) {
	s, err := e.summary(values)
	return s.Sum, err
}

func evalAverage(e *Evaluator, _ Formula, _ *dataset.Dataset, values []any) (any, error) {
	s, err := e.summary(values)
	return s.Mean, err
}

func evalMax(e *Evaluator, _ Formula, _ *dataset.Dataset, values []any) (any, error) {
	s, err := e.summary(values)
	return s.Max, err
}

func evalMin(e *Evaluator, _ Formula, _ *dataset.Dataset, values []any) (any, error) {
	s, err := e.summary(values)
	return s.Min, err
}

func (e *Evaluator) summary(values []any) (profiling.Summary, error) {
	nums, err := e.numbers(values)
	if err != nil {
		return profiling.Summary{}, err
	}
	return profiling.Summarize(nums)
}

func evalStdevP(e *Evaluator, _ Formula, _ *dataset.Dataset, values []any) (any, error) {
	nums, err := e.numbers(values)
	if err != nil {
		return nil, err
	}
	return profiling.PopulationStdDev(nums)
}

func evalVarP(e *Evaluator, _ Formula, _ *dataset.Dataset, values []any) (any, error) {
	nums, err := e.numbers(values)
	if err != nil {
		return nil, err
	}
	return profiling.PopulationVariance(nums)
}

func evalPercentile(e *Evaluator, f Formula, _ *dataset.Dataset, values []any) (any, error) {
	if len(f.Args) != 1 {
		return nil, fmt.Errorf("%w: PERCENTILE.INC takes one fraction", core.ErrInvalidArgument)
	}
	p, err := strconv.ParseFloat(f.Args[0], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: percentile %q", core.ErrInvalidArgument, f.Args[0])
	}
	nums, err := e.numbers(values)
	if err != nil {
		return nil, err
	}
	return profiling.PercentileInclusive(nums, p)
}

func evalDistinctCount(_ *Evaluator, _ Formula, _ *dataset.Dataset, values []any) (any, error) {
	return dataset.DistinctCount(values), nil
}

// datePart collects the sorted distinct values of part over parseable dates
func (e *Evaluator) datePart(values []any, part func(y, m int) int) ([]int, error) {
	seen := make(map[int]bool)
	for _, v := range values {
		if t, ok := e.coercer.ParseDate(v); ok {
			seen[part(t.Year(), int(t.Month()))] = true
		}
	}
	if len(seen) == 0 {
		return nil, core.ErrEmptyValues
	}
	out := make([]int, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Ints(out)
	return out, nil
}

func evalYear(e *Evaluator, _ Formula, _ *dataset.Dataset, values []any) (any, error) {
	return e.datePart(values, func(y, _ int) int { return y })
}

func evalMonth(e *Evaluator, _ Formula, _ *dataset.Dataset, values []any) (any, error) {
	return e.datePart(values, func(_, m int) int { return m })
}

func evalQuarter(e *Evaluator, _ Formula, _ *dataset.Dataset, values []any) (any, error) {
	return e.datePart(values, func(_, m int) int { return (m-1)/3 + 1 })
}

func evalLen(_ *Evaluator, _ Formula, _ *dataset.Dataset, values []any) (any, error) {
	if len(values) == 0 {
		return nil, core.ErrEmptyValues
	}
	total := 0
	for _, v := range values {
		total += utf8.RuneCountInString(coercer.ToString(v))
	}
	return float64(total) / float64(len(values)), nil
}

func evalUpper(_ *Evaluator, _ Formula, _ *dataset.Dataset, values []any) (any, error) {
	seen := make(map[string]bool)
	for _, v := range values {
		seen[strings.ToUpper(coercer.ToString(v))] = true
	}
	if len(seen) == 0 {
		return nil, core.ErrEmptyValues
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	if len(out) > MaxUpperValues {
		out = out[:MaxUpperValues]
	}
	return out, nil
}

// evalIf sums the true branch over truthy rows and the false branch over
// falsy ones; IF([c], 1, 0) counts the true rows.
func evalIf(e *Evaluator, f Formula, _ *dataset.Dataset, values []any) (any, error) {
	whenTrue, whenFalse := 1.0, 0.0
	if len(f.Args) == 2 {
		var err1, err2 error
		whenTrue, err1 = strconv.ParseFloat(f.Args[0], 64)
		whenFalse, err2 = strconv.ParseFloat(f.Args[1], 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: IF branches must be numeric", core.ErrInvalidArgument)
		}
	} else if len(f.Args) != 0 {
		return nil, fmt.Errorf("%w: IF takes a condition and two branches", core.ErrInvalidArgument)
	}

	total := 0.0
	matched := 0
	for _, v := range values {
		b, ok := e.coercer.ParseBoolean(v)
		if !ok {
			continue
		}
		matched++
		if b {
			total += whenTrue
		} else {
			total += whenFalse
		}
	}
	if matched == 0 {
		return nil, core.ErrEmptyValues
	}
	return total, nil
}
