package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"datalens/app"
	"datalens/domain/core"
	domainDataset "datalens/domain/dataset"
	"datalens/domain/metric"
	viz "datalens/domain/visualization"
	"datalens/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() (*dataset.Report, []app.UploadOutcome) {
	mean := 15.0
	ds := &domainDataset.Dataset{
		ID:       core.DatasetID("ds-1"),
		Name:     "sales.csv",
		Format:   domainDataset.FormatCSV,
		Headers:  []string{"region", "amount"},
		RowCount: 2,
		Columns: []domainDataset.ColumnInfo{
			{Name: "region", Type: domainDataset.TypeString, UniqueCount: 2},
			{Name: "amount", Type: domainDataset.TypeNumber, UniqueCount: 2, Mean: &mean},
		},
	}
	report := &dataset.Report{
		Datasets: []dataset.Analysis{{
			Dataset: ds,
			Metrics: []metric.DerivedMetric{
				{ID: "m1", Name: "Total amount", Formula: "SUM([amount])", Result: 30.0},
				{ID: "m2", Name: "Regions", Formula: "UPPER([region])", Result: []string{"EAST", "WEST"}},
				{ID: "m3", Name: "Pipe|name", Formula: "AVERAGE([amount])"},
			},
			Visualizations: []viz.Visualization{{ID: "bar-ds-1", Title: "amount by region", Kind: viz.KindBar}},
		}},
		Relationships: []domainDataset.Relationship{},
		CrossDataset:  []viz.Visualization{},
		GeneratedAt:   time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
	}
	outcomes := []app.UploadOutcome{
		{Name: "sales.csv", Dataset: ds},
		{Name: "notes.txt", Code: "UNSUPPORTED_FORMAT", Error: "Please upload a CSV, Excel (.xlsx), or JSON file", Err: errors.New("unsupported")},
	}
	return report, outcomes
}

func TestBuildMarkdown(t *testing.T) {
	report, outcomes := sampleReport()
	md := buildMarkdown(report, outcomes)

	assert.Contains(t, md, "# Data report")
	assert.Contains(t, md, "## sales.csv")
	assert.Contains(t, md, "CSV, 2 rows, 2 columns")
	assert.Contains(t, md, "| amount | number | 0 | 2 |  |  | 15 |")
	assert.Contains(t, md, "| Total amount | `SUM([amount])` | 30 |")
	assert.Contains(t, md, "| Regions | `UPPER([region])` | EAST, WEST |")
	assert.Contains(t, md, `| Pipe\|name | `+"`AVERAGE([amount])`"+` | n/a |`)
	assert.Contains(t, md, "| notes.txt | Please upload a CSV, Excel (.xlsx), or JSON file (UNSUPPORTED_FORMAT) |")
	assert.Contains(t, md, "- bar: amount by region")
	assert.NotContains(t, md, "## Relationships")
}

func TestBuildMarkdownRelationships(t *testing.T) {
	report, outcomes := sampleReport()
	report.Datasets = append(report.Datasets, dataset.Analysis{
		Dataset: &domainDataset.Dataset{ID: "ds-2", Name: "regions.json", Format: domainDataset.FormatJSON},
	})
	report.Relationships = []domainDataset.Relationship{{
		ID:              "rel-ds-1-ds-2-region",
		SourceDatasetID: "ds-1",
		TargetDatasetID: "ds-2",
		SourceColumn:    "region",
		TargetColumn:    "region",
		Cardinality:     domainDataset.ManyToMany,
		Confidence:      0.8,
	}}
	report.RelationshipConfidence = 0.8

	md := buildMarkdown(report, outcomes)
	assert.Contains(t, md, "Overall confidence: 0.80")
	assert.Contains(t, md, "| sales.csv.region | regions.json.region | many-to-many | 0.80 |")
}

func TestRenderers(t *testing.T) {
	report, outcomes := sampleReport()

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderYAML(&buf, report, outcomes))

		var decoded map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Contains(t, decoded, "files")
		assert.Contains(t, decoded, "report")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderJSON(&buf, report, outcomes))
		assert.Contains(t, buf.String(), `"name": "sales.csv"`)
		assert.NotContains(t, buf.String(), `"Err"`)
	})

	t.Run("html", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderHTML(&buf, report, outcomes))
		out := buf.String()
		assert.Contains(t, out, "<title>Data report</title>")
		assert.Contains(t, out, "<h2")
		assert.Contains(t, out, "<table>")
	})
}

func TestRenderersRegistered(t *testing.T) {
	for _, name := range []string{"json", "yaml", "markdown", "md", "html"} {
		assert.Contains(t, renderers, name)
	}
}
