package metrics

import (
	"testing"

	"datalens/domain/dataset"
	"datalens/domain/metric"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzedDataset(columns ...dataset.ColumnInfo) *dataset.Dataset {
	ds := dataset.NewDataset("t.csv", dataset.FormatCSV, &dataset.Table{}, "")
	return ds.WithColumns(columns)
}

func ids(metrics []metric.DerivedMetric) []string {
	out := make([]string, len(metrics))
	for i, m := range metrics {
		out[i] = m.ID
	}
	return out
}

func TestGenerateCoreSet(t *testing.T) {
	ds := analyzedDataset(
		dataset.ColumnInfo{Name: "amount", Type: dataset.TypeNumber},
		dataset.ColumnInfo{Name: "region", Type: dataset.TypeString},
		dataset.ColumnInfo{Name: "day", Type: dataset.TypeDate},
		dataset.ColumnInfo{Name: "paid", Type: dataset.TypeBoolean},
	)

	got := NewGenerator(TemplatesCore).Generate(ds)
	assert.Equal(t, []string{"total-rows", "sum-amount", "avg-amount", "max-amount", "min-amount", "year-day"}, ids(got))

	total := got[0]
	assert.Equal(t, 1.0, total.Confidence)
	assert.Equal(t, "COUNTROWS(Table)", total.Formula)
	assert.True(t, total.Applicable)
	assert.Equal(t, ds.ID, total.DatasetID)

	assert.Equal(t, "SUM([amount])", got[1].Formula)
	assert.Equal(t, metric.CategoryAggregation, got[1].Category)
	assert.Equal(t, metric.CategoryTime, got[5].Category)
}

func TestGenerateExtendedSet(t *testing.T) {
	ds := analyzedDataset(
		dataset.ColumnInfo{Name: "amount", Type: dataset.TypeNumber},
		dataset.ColumnInfo{Name: "region", Type: dataset.TypeString},
		dataset.ColumnInfo{Name: "day", Type: dataset.TypeDate},
		dataset.ColumnInfo{Name: "paid", Type: dataset.TypeBoolean},
	)

	got := NewGenerator(TemplatesExtended).Generate(ds)
	assert.Contains(t, ids(got), "p90-amount")
	assert.Contains(t, ids(got), "upper-region")
	assert.Contains(t, ids(got), "quarter-day")
	assert.Contains(t, ids(got), "flag-paid")
	assert.Contains(t, ids(got), "distinct-paid")

	for _, m := range got {
		assert.GreaterOrEqual(t, m.Confidence, 0.0)
		assert.LessOrEqual(t, m.Confidence, 1.0)
		assert.True(t, CheckApplicability(m, ds.Columns), m.ID)
	}
}

func TestGenerateNeverTargetsIncompatibleColumns(t *testing.T) {
	ds := analyzedDataset(dataset.ColumnInfo{Name: "region", Type: dataset.TypeString})

	for _, m := range NewGenerator(TemplatesExtended).Generate(ds) {
		switch m.Operator {
		case metric.OpSum, metric.OpAverage, metric.OpMax, metric.OpMin, metric.OpYear:
			t.Fatalf("%s proposed for a string column", m.ID)
		}
	}
}

func TestGenerateWithoutColumns(t *testing.T) {
	got := NewGenerator("").Generate(analyzedDataset())
	require.Len(t, got, 1)
	assert.Equal(t, metric.OpCountRows, got[0].Operator)
}

func TestRefreshApplicability(t *testing.T) {
	ds := analyzedDataset(dataset.ColumnInfo{Name: "amount", Type: dataset.TypeNumber})
	metrics := NewGenerator(TemplatesCore).Generate(ds)

	reanalyzed := ds.WithColumns([]dataset.ColumnInfo{{Name: "amount", Type: dataset.TypeString}})
	refreshed := Refresh(metrics, reanalyzed)

	assert.True(t, refreshed[0].Applicable, "row count always applies")
	for _, m := range refreshed[1:] {
		assert.False(t, m.Applicable, m.ID)
	}
	assert.True(t, metrics[1].Applicable, "input is not modified")
}

func TestParseTemplateSet(t *testing.T) {
	s, err := ParseTemplateSet("CORE")
	require.NoError(t, err)
	assert.Equal(t, TemplatesCore, s)

	s, err = ParseTemplateSet("")
	require.NoError(t, err)
	assert.Equal(t, TemplatesExtended, s)

	_, err = ParseTemplateSet("everything")
	assert.Error(t, err)
}
