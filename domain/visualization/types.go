package visualization

import (
	"datalens/domain/core"
	"datalens/domain/metric"
)

// ChartKind is the shape handed to the external charting component
type ChartKind string

const (
	KindBar     ChartKind = "bar"
	KindLine    ChartKind = "line"
	KindPie     ChartKind = "pie"
	KindScatter ChartKind = "scatter"
	KindArea    ChartKind = "area"
	KindTable   ChartKind = "table"
	KindGauge   ChartKind = "gauge"
)

// CategoryPoint is one bar or pie slice
type CategoryPoint struct {
	Category string  `json:"category" yaml:"category"`
	Value    float64 `json:"value" yaml:"value"`
}

// SeriesPoint is one point of a trend line or area
type SeriesPoint struct {
	Date  string  `json:"date" yaml:"date"`
	Value float64 `json:"value" yaml:"value"`
}

// XYPoint is one scatter point
type XYPoint struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// GaugeData places a value within its observed range
type GaugeData struct {
	Value float64 `json:"value" yaml:"value"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
}

// Palette is a named color scheme
type Palette struct {
	Name   string   `json:"name" yaml:"name"`
	Colors []string `json:"colors" yaml:"colors"`
}

// Visualization is a chart specification; it is never persisted
type Visualization struct {
	ID         string                 `json:"id" yaml:"id"`
	Title      string                 `json:"title" yaml:"title"`
	Kind       ChartKind              `json:"type" yaml:"type"`
	Data       any                    `json:"data" yaml:"data"`
	Colors     []string               `json:"colors" yaml:"colors"`
	Gradient   string                 `json:"gradient" yaml:"gradient"`
	Metrics    []metric.DerivedMetric `json:"metrics" yaml:"metrics"`
	DatasetIDs []core.DatasetID       `json:"datasetIds" yaml:"datasetIds"`
}
