package datareadiness

import (
	"context"

	"datalens/adapters/datareadiness/coercer"
	"datalens/domain/dataset"
	"datalens/internal"
	"datalens/internal/errors"
	"datalens/internal/profiling"
)

// DefaultSampleSize is the number of leading non-null values kept per column
const DefaultSampleSize = 5

// TypeInferrer decides column types and coerces numeric values.
// *coercer.TypeCoercer is the production implementation.
type TypeInferrer interface {
	InferType(nonNull []any) dataset.ColumnType
	ParseNumber(v any) (float64, bool)
}

// ProfilerAdapter implements ports.ColumnProfiler
type ProfilerAdapter struct {
	coercer    TypeInferrer
	sampleSize int
	logger     *internal.Logger
}

// NewProfilerAdapter creates a profiler. A nil coercer uses coercer.Default.
func NewProfilerAdapter(c TypeInferrer, sampleSize int, logger *internal.Logger) *ProfilerAdapter {
	if c == nil {
		c = coercer.Default
	}
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ProfilerAdapter{coercer: c, sampleSize: sampleSize, logger: logger}
}

// ProfileColumns analyzes every header column. A failure inside one column
// is contained to that column.
func (p *ProfilerAdapter) ProfileColumns(ctx context.Context, headers []string, rows []dataset.Row) ([]dataset.ColumnInfo, error) {
	columns := make([]dataset.ColumnInfo, 0, len(headers))
	for _, name := range headers {
		if err := ctx.Err(); err != nil {
			return nil, errors.Canceled(err)
		}

		values := make([]any, len(rows))
		for i, row := range rows {
			values[i] = row[name]
		}
		columns = append(columns, p.safeProfileColumn(name, values))
	}
	return columns, nil
}

func (p *ProfilerAdapter) safeProfileColumn(name string, values []any) (info dataset.ColumnInfo) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("column %q analysis failed: %v", name, r)
			info = p.fallbackColumn(name, values)
		}
	}()
	return p.ProfileColumn(name, values)
}

// ProfileColumn infers the type of one column and computes its statistics
func (p *ProfilerAdapter) ProfileColumn(name string, values []any) dataset.ColumnInfo {
	nonNull := dataset.NonNull(values)

	info := dataset.ColumnInfo{
		Name:         name,
		Type:         p.coercer.InferType(nonNull),
		SampleValues: p.samples(nonNull),
		NullCount:    len(values) - len(nonNull),
		UniqueCount:  dataset.DistinctCount(nonNull),
	}

	if info.Type == dataset.TypeNumber {
		p.computeNumericStats(&info, nonNull)
	}
	return info
}

// computeNumericStats fills min, max and mean from the values that coerce
func (p *ProfilerAdapter) computeNumericStats(info *dataset.ColumnInfo, nonNull []any) {
	numbers := make([]float64, 0, len(nonNull))
	for _, v := range nonNull {
		if f, ok := p.coercer.ParseNumber(v); ok {
			numbers = append(numbers, f)
		}
	}

	summary, err := profiling.Summarize(numbers)
	if err != nil {
		p.logger.Debug("column %q: no numeric summary: %v", info.Name, err)
		return
	}
	info.Min = &summary.Min
	info.Max = &summary.Max
	info.Mean = &summary.Mean
}

func (p *ProfilerAdapter) samples(nonNull []any) []any {
	n := p.sampleSize
	if n > len(nonNull) {
		n = len(nonNull)
	}
	return append([]any{}, nonNull[:n]...)
}

// fallbackColumn reports a string column with counts only
func (p *ProfilerAdapter) fallbackColumn(name string, values []any) dataset.ColumnInfo {
	nonNull := dataset.NonNull(values)
	return dataset.ColumnInfo{
		Name:         name,
		Type:         dataset.TypeString,
		SampleValues: []any{},
		NullCount:    len(values) - len(nonNull),
		UniqueCount:  dataset.DistinctCount(nonNull),
	}
}
