package metrics

import (
	"testing"

	"datalens/domain/core"
	"datalens/domain/metric"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormula(t *testing.T) {
	tests := []struct {
		in   string
		want Formula
	}{
		{"SUM([Sales])", Formula{Operator: metric.OpSum, Column: "Sales", HasColumn: true}},
		{"COUNTROWS(Table)", Formula{Operator: metric.OpCountRows, Args: []string{"Table"}}},
		{"PERCENTILE.INC([Order Value], 0.9)", Formula{Operator: metric.OpPercentileInc, Column: "Order Value", HasColumn: true, Args: []string{"0.9"}}},
		{"IF([active],1, 0)", Formula{Operator: metric.OpIf, Column: "active", HasColumn: true, Args: []string{"1", "0"}}},
		{"MAX([odd]]name, (x)])", Formula{Operator: metric.OpMax, Column: "odd]name, (x)", HasColumn: true}},
		{"  AVERAGE( [a] )  ", Formula{Operator: metric.OpAverage, Column: "a", HasColumn: true}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormula(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormulaRejects(t *testing.T) {
	for _, in := range []string{"", "sum([a])", "SUM[a]", "SUM([a)", "SUM([a] 3)"} {
		_, err := ParseFormula(in)
		assert.ErrorIs(t, err, core.ErrInvalidArgument, in)
	}
}

func TestColumnRefRoundTrip(t *testing.T) {
	for _, name := range []string{"plain", "with space", "a]b", "]]"} {
		f, err := ParseFormula("LEN(" + ColumnRef(name) + ")")
		require.NoError(t, err)
		assert.Equal(t, name, f.Column)
	}
}
