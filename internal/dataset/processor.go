// Package dataset runs uploads through parsing, column analysis, metric
// derivation and chart selection. The Processor holds no session state.
package dataset

import (
	"bytes"
	"context"
	"time"

	"datalens/adapters/datareadiness"
	"datalens/adapters/datareadiness/coercer"
	"datalens/adapters/ingest"
	"datalens/domain/core"
	domainDataset "datalens/domain/dataset"
	"datalens/domain/metric"
	viz "datalens/domain/visualization"
	"datalens/internal"
	"datalens/internal/errors"
	"datalens/internal/metrics"
	"datalens/internal/visualization"
	"datalens/ports"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds IngestAll
const DefaultConcurrency = 4

// Options configure every pipeline stage
type Options struct {
	Ingest        ingest.Options
	SampleSize    int
	Templates     metrics.TemplateSet
	Visualization visualization.Options
	Discovery     DiscoveryOptions
	Concurrency   int
}

// DefaultOptions returns the stock pipeline configuration
func DefaultOptions() Options {
	return Options{
		Ingest:        ingest.DefaultOptions(),
		SampleSize:    datareadiness.DefaultSampleSize,
		Templates:     metrics.TemplatesExtended,
		Visualization: visualization.DefaultOptions(),
		Discovery:     DefaultDiscoveryOptions(),
		Concurrency:   DefaultConcurrency,
	}
}

// Upload is one named file payload
type Upload struct {
	Name string
	Data []byte
}

// IngestResult pairs an upload with its dataset or its failure
type IngestResult struct {
	Name    string
	Dataset *domainDataset.Dataset
	Err     error
}

// Analysis is the derived view of one dataset
type Analysis struct {
	Dataset        *domainDataset.Dataset `json:"dataset" yaml:"dataset"`
	Metrics        []metric.DerivedMetric `json:"metrics" yaml:"metrics"`
	Visualizations []viz.Visualization    `json:"visualizations" yaml:"visualizations"`
}

// Report is the derived view of a whole collection of datasets
type Report struct {
	Datasets               []Analysis                   `json:"datasets" yaml:"datasets"`
	Relationships          []domainDataset.Relationship `json:"relationships" yaml:"relationships"`
	RelationshipConfidence float64                      `json:"relationshipConfidence" yaml:"relationshipConfidence"`
	CrossDataset           []viz.Visualization          `json:"crossDataset" yaml:"crossDataset"`
	GeneratedAt            time.Time                    `json:"generatedAt" yaml:"generatedAt"`
}

// Processor handles dataset file processing
type Processor struct {
	registry    *ingest.Registry
	profiler    ports.ColumnProfiler
	generator   *metrics.Generator
	evaluator   *metrics.Evaluator
	selector    *visualization.Selector
	discovery   *RelationshipDiscoveryEngine
	concurrency int
	logger      *internal.Logger
}

// NewProcessor wires the pipeline stages from opts
func NewProcessor(opts Options, logger *internal.Logger) *Processor {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	c := coercer.Default
	return &Processor{
		registry:    ingest.NewRegistry(opts.Ingest, logger),
		profiler:    datareadiness.NewProfilerAdapter(c, opts.SampleSize, logger),
		generator:   metrics.NewGenerator(opts.Templates),
		evaluator:   metrics.NewEvaluator(c, logger),
		selector:    visualization.NewSelector(opts.Visualization, c, logger),
		discovery:   NewRelationshipDiscoveryEngine(opts.Discovery, logger),
		concurrency: opts.Concurrency,
		logger:      logger,
	}
}

// Discovery exposes the relationship engine so sessions can share it
func (p *Processor) Discovery() *RelationshipDiscoveryEngine {
	return p.discovery
}

// Ingest validates the file name, parses the payload and analyses its columns.
// Zero parsed rows is an EmptyData error naming the format.
func (p *Processor) Ingest(ctx context.Context, upload Upload) (*domainDataset.Dataset, error) {
	start := time.Now()

	table, format, err := p.registry.Parse(ctx, upload.Name, bytes.NewReader(upload.Data))
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, errors.EmptyData(format.Label())
	}

	ds := domainDataset.NewDataset(upload.Name, format, table, core.NewHash(upload.Data))
	columns, err := p.profiler.ProfileColumns(ctx, table.Headers, table.Rows)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to analyze %s", upload.Name)
	}
	ds = ds.WithColumns(columns)

	p.logger.Info("[Processor] ingested %s (%s): %d rows, %d columns, %d dropped, truncated=%t in %s",
		upload.Name, ds.Fingerprint.Short(), ds.RowCount, len(ds.Columns), table.Dropped, table.Truncated, time.Since(start))
	return ds, nil
}

// IngestAll ingests independent uploads concurrently. Results keep the input
// order and one failing upload never affects the others.
func (p *Processor) IngestAll(ctx context.Context, uploads []Upload) []IngestResult {
	results := make([]IngestResult, len(uploads))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, upload := range uploads {
		i, upload := i, upload
		g.Go(func() error {
			ds, err := p.Ingest(ctx, upload)
			results[i] = IngestResult{Name: upload.Name, Dataset: ds, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Analyze derives and evaluates metrics, then selects charts for them
func (p *Processor) Analyze(ds *domainDataset.Dataset, palette string) Analysis {
	derived := p.evaluator.EvaluateAll(ds, p.generator.Generate(ds))
	return Analysis{
		Dataset:        ds,
		Metrics:        derived,
		Visualizations: p.selector.Select(ds, derived, palette),
	}
}

// BuildReport analyses each dataset, discovers the relationships between
// them and adds the cross-dataset charts those relationships support.
func (p *Processor) BuildReport(datasets []*domainDataset.Dataset, palette string) *Report {
	discovery := p.discovery.Discover(datasets)
	report := &Report{
		Datasets:               make([]Analysis, 0, len(datasets)),
		Relationships:          discovery.Relationships,
		RelationshipConfidence: discovery.ConfidenceScore,
		GeneratedAt:            time.Now().UTC(),
	}
	var all []metric.DerivedMetric
	for _, ds := range datasets {
		a := p.Analyze(ds, palette)
		all = append(all, a.Metrics...)
		report.Datasets = append(report.Datasets, a)
	}
	if report.Relationships == nil {
		report.Relationships = []domainDataset.Relationship{}
	}
	report.CrossDataset = p.selector.SelectCrossDataset(datasets, report.Relationships, all, palette)
	return report
}
