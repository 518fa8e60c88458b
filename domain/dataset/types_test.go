package dataset

import (
	"testing"

	"datalens/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHeaders(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{"trims", []string{" a ", "b"}, []string{"a", "b"}},
		{"blank cells", []string{"a", "", "  "}, []string{"a", "column_2", "column_3"}},
		{"duplicates", []string{"id", "id", "id"}, []string{"id", "id_2", "id_3"}},
		{"suffix collision", []string{"id", "id_2", "id"}, []string{"id", "id_2", "id_3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHeaders(tt.raw))
		})
	}
}

func TestDatasetAccessors(t *testing.T) {
	table := &Table{
		Headers: []string{"n", "s"},
		Rows:    []Row{{"n": "1", "s": "a"}, {"n": "2"}},
	}
	ds := NewDataset("t.csv", FormatCSV, table, core.NewHash([]byte("x")))

	assert.False(t, ds.ID.String() == "")
	assert.Equal(t, 2, ds.RowCount)
	assert.Equal(t, []any{"1", "2"}, ds.Values("n"))
	assert.Equal(t, []any{"a", nil}, ds.Values("s"))
	assert.Len(t, ds.Preview(1), 1)
	assert.Len(t, ds.Preview(100), 2)

	analyzed := ds.WithColumns([]ColumnInfo{{Name: "n", Type: TypeNumber}, {Name: "s", Type: TypeString}})
	assert.Empty(t, ds.Columns, "original is not mutated")
	col, ok := analyzed.Column("n")
	assert.True(t, ok)
	assert.Equal(t, TypeNumber, col.Type)
	assert.Len(t, analyzed.ColumnsOfType(TypeString), 1)
	_, ok = analyzed.Column("missing")
	assert.False(t, ok)
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(""))
	assert.False(t, IsNull(" "))
	assert.False(t, IsNull(0.0))
	assert.False(t, IsNull(false))
}

func TestFormatLabel(t *testing.T) {
	assert.Equal(t, "CSV", FormatCSV.Label())
	assert.Equal(t, "EXCEL", FormatExcel.Label())
}

func TestDistinctCount(t *testing.T) {
	assert.Equal(t, 0, DistinctCount(nil))
	assert.Equal(t, 2, DistinctCount([]any{"a", "a", "b", "", nil}))
	assert.Equal(t, 2, DistinctCount([]any{1.0, "1"}))
	assert.Equal(t, 2, DistinctCount([]any{true, false, true}))
	assert.Equal(t, []any{"a", 0.0}, NonNull([]any{nil, "a", "", 0.0}))
}
