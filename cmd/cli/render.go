package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"datalens/adapters/datareadiness/coercer"
	"datalens/app"
	"datalens/internal/dataset"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"gopkg.in/yaml.v3"
)

type renderFunc func(w io.Writer, report *dataset.Report, outcomes []app.UploadOutcome) error

var renderers = map[string]renderFunc{
	"json":     renderJSON,
	"yaml":     renderYAML,
	"markdown": renderMarkdown,
	"md":       renderMarkdown,
	"html":     renderHTML,
}

// cliReport adds per-file upload outcomes to the report
type cliReport struct {
	Files  []app.UploadOutcome `json:"files" yaml:"files"`
	Report *dataset.Report     `json:"report" yaml:"report"`
}

func renderJSON(w io.Writer, report *dataset.Report, outcomes []app.UploadOutcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cliReport{Files: outcomes, Report: report})
}

func renderYAML(w io.Writer, report *dataset.Report, outcomes []app.UploadOutcome) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cliReport{Files: outcomes, Report: report}); err != nil {
		return err
	}
	return enc.Close()
}

func renderMarkdown(w io.Writer, report *dataset.Report, outcomes []app.UploadOutcome) error {
	_, err := io.WriteString(w, buildMarkdown(report, outcomes))
	return err
}

func renderHTML(w io.Writer, report *dataset.Report, outcomes []app.UploadOutcome) error {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Data report",
		Flags: html.CommonFlags | html.CompletePage,
	})
	_, err := w.Write(markdown.ToHTML([]byte(buildMarkdown(report, outcomes)), p, renderer))
	return err
}

func buildMarkdown(report *dataset.Report, outcomes []app.UploadOutcome) string {
	var b strings.Builder

	b.WriteString("# Data report\n\n")
	fmt.Fprintf(&b, "Generated %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	b.WriteString("## Files\n\n| File | Status |\n|---|---|\n")
	for _, o := range outcomes {
		status := "ok"
		switch {
		case o.Err != nil:
			status = fmt.Sprintf("%s (%s)", o.Error, o.Code)
		case o.Replaced:
			status = "replaced"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", cell(o.Name), cell(status))
	}
	b.WriteString("\n")

	for _, a := range report.Datasets {
		ds := a.Dataset
		fmt.Fprintf(&b, "## %s\n\n", ds.Name)
		fmt.Fprintf(&b, "%s, %d rows, %d columns", ds.Format.Label(), ds.RowCount, len(ds.Columns))
		if ds.Truncated {
			b.WriteString(" (truncated)")
		}
		b.WriteString("\n\n")

		b.WriteString("### Columns\n\n| Column | Type | Nulls | Unique | Min | Max | Mean |\n|---|---|---|---|---|---|---|\n")
		for _, c := range ds.Columns {
			fmt.Fprintf(&b, "| %s | %s | %d | %d | %s | %s | %s |\n",
				cell(c.Name), c.Type, c.NullCount, c.UniqueCount, number(c.Min), number(c.Max), number(c.Mean))
		}
		b.WriteString("\n")

		if len(a.Metrics) > 0 {
			b.WriteString("### Metrics\n\n| Metric | Formula | Result |\n|---|---|---|\n")
			for _, m := range a.Metrics {
				fmt.Fprintf(&b, "| %s | `%s` | %s |\n", cell(m.Name), m.Formula, cell(result(m.Result)))
			}
			b.WriteString("\n")
		}

		if len(a.Visualizations) > 0 {
			b.WriteString("### Charts\n\n")
			for _, v := range a.Visualizations {
				fmt.Fprintf(&b, "- %s: %s\n", v.Kind, v.Title)
			}
			b.WriteString("\n")
		}
	}

	if len(report.Relationships) > 0 {
		names := datasetNames(report)
		fmt.Fprintf(&b, "## Relationships\n\nOverall confidence: %.2f\n\n", report.RelationshipConfidence)
		b.WriteString("| Source | Target | Cardinality | Confidence |\n|---|---|---|---|\n")
		for _, r := range report.Relationships {
			fmt.Fprintf(&b, "| %s.%s | %s.%s | %s | %.2f |\n",
				cell(names[string(r.SourceDatasetID)]), cell(r.SourceColumn),
				cell(names[string(r.TargetDatasetID)]), cell(r.TargetColumn),
				r.Cardinality, r.Confidence)
		}
		b.WriteString("\n")
	}

	if len(report.CrossDataset) > 0 {
		b.WriteString("## Cross-dataset charts\n\n")
		for _, v := range report.CrossDataset {
			fmt.Fprintf(&b, "- %s: %s\n", v.Kind, v.Title)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func datasetNames(report *dataset.Report) map[string]string {
	names := make(map[string]string, len(report.Datasets))
	for _, a := range report.Datasets {
		names[string(a.Dataset.ID)] = a.Dataset.Name
	}
	return names
}

func number(v *float64) string {
	if v == nil {
		return ""
	}
	return coercer.ToString(*v)
}

func result(v any) string {
	switch r := v.(type) {
	case nil:
		return "n/a"
	case float64:
		return coercer.ToString(r)
	case []string:
		return strings.Join(r, ", ")
	default:
		return fmt.Sprint(r)
	}
}

// cell escapes pipes so a value cannot break the table
func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
