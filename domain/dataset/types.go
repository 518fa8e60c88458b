package dataset

import (
	"strings"
	"time"

	"datalens/domain/core"
)

// Format is the container format of an uploaded file
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatJSON  Format = "json"
)

// AllFormats lists every format the parsers understand
var AllFormats = []Format{FormatCSV, FormatExcel, FormatJSON}

// Label is the upper-case name used in user-facing messages
func (f Format) Label() string {
	return strings.ToUpper(string(f))
}

// ColumnType is the semantic type inferred for a column
type ColumnType string

const (
	TypeString  ColumnType = "string"
	TypeNumber  ColumnType = "number"
	TypeDate    ColumnType = "date"
	TypeBoolean ColumnType = "boolean"
)

// Row maps a column name to its raw value. Values are string for CSV and
// Excel sources; JSON sources also produce float64, bool and nil.
type Row map[string]any

// Table is the raw output of a parser, before any analysis
type Table struct {
	Headers   []string
	Rows      []Row
	Truncated bool // row cap reached, trailing rows were not read
	Dropped   int  // rows discarded because their width did not match the header
}

// ColumnInfo holds the inferred type and summary statistics of one column
type ColumnInfo struct {
	Name         string     `json:"name" yaml:"name"`
	Type         ColumnType `json:"type" yaml:"type"`
	SampleValues []any      `json:"sampleValues" yaml:"sampleValues"`
	NullCount    int        `json:"nullCount" yaml:"nullCount"`
	UniqueCount  int        `json:"uniqueCount" yaml:"uniqueCount"`

	// Set only for number columns
	Min  *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max  *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Mean *float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
}

// Dataset is one parsed upload and its column metadata
type Dataset struct {
	ID          core.DatasetID `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Format      Format         `json:"format" yaml:"format"`
	Headers     []string       `json:"headers" yaml:"headers"`
	Rows        []Row          `json:"-" yaml:"-"`
	Columns     []ColumnInfo   `json:"columns" yaml:"columns"`
	RowCount    int            `json:"rowCount" yaml:"rowCount"`
	Truncated   bool           `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Fingerprint core.Hash      `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	CreatedAt   time.Time      `json:"createdAt" yaml:"createdAt"`
}

// NewDataset wraps a parsed table into a dataset with a fresh ID
func NewDataset(name string, format Format, table *Table, fingerprint core.Hash) *Dataset {
	ds := &Dataset{
		ID:          core.NewDatasetID(),
		Name:        name,
		Format:      format,
		Fingerprint: fingerprint,
		CreatedAt:   time.Now().UTC(),
	}
	if table != nil {
		ds.Headers = table.Headers
		ds.Rows = table.Rows
		ds.RowCount = len(table.Rows)
		ds.Truncated = table.Truncated
	}
	return ds
}

// WithColumns returns a copy carrying freshly computed column metadata.
// Rows are shared; they are never mutated after parsing.
func (d *Dataset) WithColumns(columns []ColumnInfo) *Dataset {
	cp := *d
	cp.Columns = columns
	return &cp
}

// Column looks up column metadata by exact name
func (d *Dataset) Column(name string) (ColumnInfo, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

// ColumnsOfType returns the columns of the given type in header order
func (d *Dataset) ColumnsOfType(t ColumnType) []ColumnInfo {
	var out []ColumnInfo
	for _, c := range d.Columns {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// Values returns the raw values of a column in row order; absent keys are nil
func (d *Dataset) Values(column string) []any {
	values := make([]any, len(d.Rows))
	for i, row := range d.Rows {
		values[i] = row[column]
	}
	return values
}

// Preview returns at most n leading rows
func (d *Dataset) Preview(n int) []Row {
	if n < 0 || n > len(d.Rows) {
		n = len(d.Rows)
	}
	return d.Rows[:n]
}

// IsNull reports whether a raw value counts as missing
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
