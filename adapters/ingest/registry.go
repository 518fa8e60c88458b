package ingest

import (
	"context"
	"io"

	"datalens/adapters/excel"
	"datalens/domain/dataset"
	"datalens/internal"
	"datalens/internal/errors"
	"datalens/ports"
)

// Options configure the parsers
type Options struct {
	MaxRows          int
	CSVQuoteAware    bool
	SupportedFormats []dataset.Format
}

// DefaultOptions accepts every format with a 100k row cap
func DefaultOptions() Options {
	return Options{
		MaxRows:          100000,
		SupportedFormats: dataset.AllFormats,
	}
}

// Registry maps each format to its parser
type Registry struct {
	parsers   map[dataset.Format]ports.Parser
	supported []dataset.Format
}

// NewRegistry registers the CSV, Excel and JSON parsers
func NewRegistry(opts Options, logger *internal.Logger) *Registry {
	supported := opts.SupportedFormats
	if len(supported) == 0 {
		supported = dataset.AllFormats
	}
	r := &Registry{
		parsers:   make(map[dataset.Format]ports.Parser),
		supported: supported,
	}
	r.Register(NewCSVParser(opts.MaxRows, opts.CSVQuoteAware, logger))
	r.Register(excel.NewReader(opts.MaxRows, logger))
	r.Register(NewJSONParser(opts.MaxRows, logger))
	return r
}

// Register adds or replaces the parser for its format
func (r *Registry) Register(p ports.Parser) {
	r.parsers[p.Format()] = p
}

// Supported returns the accepted formats
func (r *Registry) Supported() []dataset.Format {
	return r.supported
}

// Parse validates the file name, picks a parser and parses src
func (r *Registry) Parse(ctx context.Context, name string, src io.Reader) (*dataset.Table, dataset.Format, error) {
	if err := ValidateExtension(name, r.supported); err != nil {
		return nil, "", err
	}
	format := DetectFormat(name)
	p, ok := r.parsers[format]
	if !ok {
		return nil, format, errors.UnsupportedFormat(name)
	}
	table, err := p.Parse(ctx, src)
	if err != nil {
		return nil, format, errors.Wrapf(err, "failed to parse %s", name)
	}
	return table, format, nil
}
