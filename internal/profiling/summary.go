package profiling

import (
	"fmt"
	"math"
	"sort"

	"datalens/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the descriptive statistics of a numeric column
type Summary struct {
	Count int
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
}

// Summarize computes count, sum, min, max and mean. The mean is clamped
// into [min, max]; float summation can otherwise land one ulp outside.
func Summarize(data []float64) (Summary, error) {
	if len(data) == 0 {
		return Summary{}, core.ErrEmptyValues
	}

	sum, err := stats.Sum(data)
	if err != nil {
		return Summary{}, fmt.Errorf("sum: %w", err)
	}
	min, err := stats.Min(data)
	if err != nil {
		return Summary{}, fmt.Errorf("min: %w", err)
	}
	max, err := stats.Max(data)
	if err != nil {
		return Summary{}, fmt.Errorf("max: %w", err)
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return Summary{}, fmt.Errorf("mean: %w", err)
	}

	return Summary{
		Count: len(data),
		Sum:   sum,
		Min:   min,
		Max:   max,
		Mean:  math.Min(math.Max(mean, min), max),
	}, nil
}

// PopulationVariance is VAR.P: the mean squared deviation over all values
func PopulationVariance(data []float64) (float64, error) {
	if len(data) == 0 {
		return 0, core.ErrEmptyValues
	}
	return stat.PopVariance(data, nil), nil
}

// PopulationStdDev is STDEV.P
func PopulationStdDev(data []float64) (float64, error) {
	if len(data) == 0 {
		return 0, core.ErrEmptyValues
	}
	return stat.PopStdDev(data, nil), nil
}

// PercentileInclusive is PERCENTILE.INC: linear interpolation at rank
// p*(n-1) over the sorted values, p in [0,1].
func PercentileInclusive(data []float64, p float64) (float64, error) {
	if len(data) == 0 {
		return 0, core.ErrEmptyValues
	}
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, fmt.Errorf("%w: percentile %v outside [0,1]", core.ErrInvalidArgument, p)
	}

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo], nil
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo]), nil
}
