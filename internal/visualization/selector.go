// Package visualization turns analysed datasets into chart specifications
// for an external rendering component.
package visualization

import (
	"fmt"
	"sort"
	"strings"

	"datalens/adapters/datareadiness/coercer"
	"datalens/domain/core"
	"datalens/domain/dataset"
	"datalens/domain/metric"
	viz "datalens/domain/visualization"
	"datalens/internal"
)

const (
	// DefaultPreviewRows is the number of rows the table view carries
	DefaultPreviewRows = 100
	// DefaultTopCategories caps bar and pie series
	DefaultTopCategories = 20

	// OtherCategory collects the series tail beyond TopCategories
	OtherCategory = "Other"
	// BlankCategory labels rows whose category value is missing
	BlankCategory = "(blank)"

	dayLayout = "2006-01-02"
)

// Options controls chart construction
type Options struct {
	PreviewRows   int
	TopCategories int
	Palette       string
}

// DefaultOptions returns 100 preview rows, 20 categories and the professional palette
func DefaultOptions() Options {
	return Options{
		PreviewRows:   DefaultPreviewRows,
		TopCategories: DefaultTopCategories,
		Palette:       DefaultPalette,
	}
}

// Selector picks chart kinds from column types
type Selector struct {
	options Options
	coercer *coercer.TypeCoercer
	logger  *internal.Logger
}

// NewSelector creates a selector; a nil coercer uses the package default
func NewSelector(options Options, c *coercer.TypeCoercer, logger *internal.Logger) *Selector {
	if options.PreviewRows <= 0 {
		options.PreviewRows = DefaultPreviewRows
	}
	if options.TopCategories <= 0 {
		options.TopCategories = DefaultTopCategories
	}
	if c == nil {
		c = coercer.Default
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Selector{options: options, coercer: c, logger: logger}
}

// Select builds the charts for one dataset. An empty palette name uses the
// configured default. The table view is always the last entry.
func (s *Selector) Select(ds *dataset.Dataset, metrics []metric.DerivedMetric, paletteName string) []viz.Visualization {
	if ds == nil {
		return nil
	}
	palette := s.palette(paletteName)
	base := func(id, title string, kind viz.ChartKind, data any, columns ...string) viz.Visualization {
		return viz.Visualization{
			ID:         fmt.Sprintf("%s-%s", id, ds.ID),
			Title:      title,
			Kind:       kind,
			Data:       data,
			Colors:     palette.Colors,
			Gradient:   Gradient(palette),
			Metrics:    metricsFor(metrics, ds.ID, columns...),
			DatasetIDs: []core.DatasetID{ds.ID},
		}
	}

	category := firstOfType(ds, dataset.TypeString, "")
	number := firstOfType(ds, dataset.TypeNumber, "")
	date := firstOfType(ds, dataset.TypeDate, "")

	var out []viz.Visualization

	if category != "" && number != "" {
		out = append(out, base("bar", fmt.Sprintf("%s by %s", number, category), viz.KindBar,
			s.categoryTotals(ds, category, number), category, number))
	}

	if category != "" {
		out = append(out, base("pie", fmt.Sprintf("Distribution of %s", category), viz.KindPie,
			s.categoryTotals(ds, category, ""), category))
	}

	if date != "" {
		series := s.dateSeries(ds, date, number)
		measure := "Records"
		if number != "" {
			measure = number
		}
		out = append(out,
			base("line", fmt.Sprintf("%s over %s", measure, date), viz.KindLine, series, date, number),
			base("area", fmt.Sprintf("Cumulative %s over %s", measure, date), viz.KindArea, cumulative(series), date, number),
		)
	}

	if second := firstOfType(ds, dataset.TypeNumber, number); number != "" && second != "" {
		out = append(out, base("scatter", fmt.Sprintf("%s vs %s", second, number), viz.KindScatter,
			s.scatterPoints(ds, number, second), number, second))
	}

	if gaugeCol, gauge, ok := gaugeFor(ds); ok {
		out = append(out, base("gauge", fmt.Sprintf("Average %s", gaugeCol), viz.KindGauge, gauge, gaugeCol))
	}

	table := base("table", fmt.Sprintf("Data Table - %s", ds.Name), viz.KindTable, ds.Preview(s.options.PreviewRows))
	table.Metrics = countRowsMetrics(metrics, ds.ID)
	out = append(out, table)

	s.logger.Debug("[Selector] %s: %d visualizations", ds.Name, len(out))
	return out
}

// SelectCrossDataset emits one correlation scatter per relationship whose
// datasets both carry a number column besides the join key. Values are
// summed per key on each side and paired where the key exists in both.
func (s *Selector) SelectCrossDataset(datasets []*dataset.Dataset, rels []dataset.Relationship, metrics []metric.DerivedMetric, paletteName string) []viz.Visualization {
	byID := make(map[core.DatasetID]*dataset.Dataset, len(datasets))
	for _, ds := range datasets {
		if ds != nil {
			byID[ds.ID] = ds
		}
	}
	palette := s.palette(paletteName)

	var out []viz.Visualization
	for _, rel := range rels {
		src, tgt := byID[rel.SourceDatasetID], byID[rel.TargetDatasetID]
		if src == nil || tgt == nil {
			continue
		}
		x := firstOfType(src, dataset.TypeNumber, rel.SourceColumn)
		y := firstOfType(tgt, dataset.TypeNumber, rel.TargetColumn)
		if x == "" || y == "" {
			continue
		}

		xs := s.keyedTotals(src, rel.SourceColumn, x)
		ys := s.keyedTotals(tgt, rel.TargetColumn, y)
		keys := make([]string, 0, len(xs))
		for k := range xs {
			if _, ok := ys[k]; ok {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		if len(keys) > s.options.PreviewRows {
			keys = keys[:s.options.PreviewRows]
		}
		points := make([]viz.XYPoint, 0, len(keys))
		for _, k := range keys {
			points = append(points, viz.XYPoint{X: xs[k], Y: ys[k]})
		}

		associated := append(metricsFor(metrics, src.ID, x), metricsFor(metrics, tgt.ID, y)...)
		out = append(out, viz.Visualization{
			ID:         "cross-" + rel.ID,
			Title:      "Cross-Dataset Correlation",
			Kind:       viz.KindScatter,
			Data:       points,
			Colors:     palette.Colors,
			Gradient:   Gradient(palette),
			Metrics:    associated,
			DatasetIDs: []core.DatasetID{src.ID, tgt.ID},
		})
	}
	return out
}

func (s *Selector) palette(name string) viz.Palette {
	if strings.TrimSpace(name) == "" {
		name = s.options.Palette
	}
	return LookupPalette(name)
}

// categoryTotals sums valueCol per category, or counts rows when valueCol is empty
func (s *Selector) categoryTotals(ds *dataset.Dataset, categoryCol, valueCol string) []viz.CategoryPoint {
	totals := make(map[string]float64)
	for _, row := range ds.Rows {
		amount := 1.0
		if valueCol != "" {
			v, ok := s.coercer.ParseNumber(row[valueCol])
			if !ok {
				continue
			}
			amount = v
		}
		totals[categoryLabel(row[categoryCol])] += amount
	}

	points := make([]viz.CategoryPoint, 0, len(totals))
	for k, v := range totals {
		points = append(points, viz.CategoryPoint{Category: k, Value: v})
	}
	sortCategories(points)
	return foldCategories(points, s.options.TopCategories)
}

// dateSeries sums valueCol per day, or counts rows when valueCol is empty.
// Rows whose date does not parse are skipped.
func (s *Selector) dateSeries(ds *dataset.Dataset, dateCol, valueCol string) []viz.SeriesPoint {
	totals := make(map[string]float64)
	for _, row := range ds.Rows {
		d, ok := s.coercer.ParseDate(row[dateCol])
		if !ok {
			continue
		}
		amount := 1.0
		if valueCol != "" {
			v, ok := s.coercer.ParseNumber(row[valueCol])
			if !ok {
				continue
			}
			amount = v
		}
		totals[d.Format(dayLayout)] += amount
	}

	points := make([]viz.SeriesPoint, 0, len(totals))
	for k, v := range totals {
		points = append(points, viz.SeriesPoint{Date: k, Value: v})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

func (s *Selector) scatterPoints(ds *dataset.Dataset, xCol, yCol string) []viz.XYPoint {
	var points []viz.XYPoint
	for _, row := range ds.Rows {
		if len(points) >= s.options.PreviewRows {
			break
		}
		x, okX := s.coercer.ParseNumber(row[xCol])
		y, okY := s.coercer.ParseNumber(row[yCol])
		if okX && okY {
			points = append(points, viz.XYPoint{X: x, Y: y})
		}
	}
	return points
}

func (s *Selector) keyedTotals(ds *dataset.Dataset, keyCol, valueCol string) map[string]float64 {
	totals := make(map[string]float64)
	for _, row := range ds.Rows {
		key := row[keyCol]
		if dataset.IsNull(key) {
			continue
		}
		if v, ok := s.coercer.ParseNumber(row[valueCol]); ok {
			totals[coercer.ToString(key)] += v
		}
	}
	return totals
}

func cumulative(series []viz.SeriesPoint) []viz.SeriesPoint {
	out := make([]viz.SeriesPoint, len(series))
	running := 0.0
	for i, p := range series {
		running += p.Value
		out[i] = viz.SeriesPoint{Date: p.Date, Value: running}
	}
	return out
}

// gaugeFor places the mean of the first number column with a real range
func gaugeFor(ds *dataset.Dataset) (string, viz.GaugeData, bool) {
	for _, c := range ds.ColumnsOfType(dataset.TypeNumber) {
		if c.Min == nil || c.Max == nil || c.Mean == nil || *c.Min >= *c.Max {
			continue
		}
		return c.Name, viz.GaugeData{Value: *c.Mean, Min: *c.Min, Max: *c.Max}, true
	}
	return "", viz.GaugeData{}, false
}

// firstOfType returns the first column of type t whose name is not skip
func firstOfType(ds *dataset.Dataset, t dataset.ColumnType, skip string) string {
	for _, c := range ds.ColumnsOfType(t) {
		if c.Name != skip {
			return c.Name
		}
	}
	return ""
}

func categoryLabel(v any) string {
	if dataset.IsNull(v) {
		return BlankCategory
	}
	return coercer.ToString(v)
}

// sortCategories orders by value descending, then label
func sortCategories(points []viz.CategoryPoint) {
	sort.Slice(points, func(i, j int) bool {
		if points[i].Value != points[j].Value {
			return points[i].Value > points[j].Value
		}
		return points[i].Category < points[j].Category
	})
}

// foldCategories keeps limit-1 leading points and sums the rest into Other
func foldCategories(points []viz.CategoryPoint, limit int) []viz.CategoryPoint {
	if limit <= 0 || len(points) <= limit {
		return points
	}
	keep := limit - 1
	other := viz.CategoryPoint{Category: OtherCategory}
	for _, p := range points[keep:] {
		other.Value += p.Value
	}
	out := make([]viz.CategoryPoint, 0, limit)
	out = append(out, points[:keep]...)
	return append(out, other)
}

func metricsFor(metrics []metric.DerivedMetric, datasetID core.DatasetID, columns ...string) []metric.DerivedMetric {
	wanted := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c != "" {
			wanted[c] = true
		}
	}
	out := []metric.DerivedMetric{}
	for _, m := range metrics {
		if m.DatasetID == datasetID && m.Column != "" && wanted[m.Column] {
			out = append(out, m)
		}
	}
	return out
}

func countRowsMetrics(metrics []metric.DerivedMetric, datasetID core.DatasetID) []metric.DerivedMetric {
	out := []metric.DerivedMetric{}
	for _, m := range metrics {
		if m.DatasetID == datasetID && m.Operator == metric.OpCountRows {
			out = append(out, m)
		}
	}
	return out
}
