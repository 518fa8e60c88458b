package ingest

import (
	"bufio"
	"context"
	"encoding/csv"
	stderrors "errors"
	"io"
	"strings"

	"datalens/domain/dataset"
	"datalens/internal"
	"datalens/internal/errors"
)

const (
	cancelCheckInterval = 1024
	maxLineBytes        = 16 << 20
)

// CSVParser splits text into lines and lines into comma-separated fields.
// Rows whose width differs from the header are dropped, never padded.
type CSVParser struct {
	maxRows    int
	quoteAware bool
	logger     *internal.Logger
}

// NewCSVParser creates a CSV parser. With quoteAware the fields are read by
// encoding/csv, so a quoted comma stays inside its field.
func NewCSVParser(maxRows int, quoteAware bool, logger *internal.Logger) *CSVParser {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &CSVParser{maxRows: maxRows, quoteAware: quoteAware, logger: logger}
}

// Format implements ports.Parser
func (p *CSVParser) Format() dataset.Format {
	return dataset.FormatCSV
}

// Parse implements ports.Parser
func (p *CSVParser) Parse(ctx context.Context, r io.Reader) (*dataset.Table, error) {
	next := p.lineSplitter(r)
	if p.quoteAware {
		next = p.recordReader(r)
	}

	table := &dataset.Table{}
	seen := 0
	for {
		fields, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ParseError("failed to read CSV", err)
		}

		seen++
		if seen%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.Canceled(err)
			}
		}

		if table.Headers == nil {
			table.Headers = dataset.NormalizeHeaders(fields)
			continue
		}
		if len(fields) != len(table.Headers) {
			table.Dropped++
			continue
		}
		if p.maxRows > 0 && len(table.Rows) >= p.maxRows {
			table.Truncated = true
			break
		}

		row := make(dataset.Row, len(fields))
		for i, h := range table.Headers {
			row[h] = fields[i]
		}
		table.Rows = append(table.Rows, row)
	}

	if table.Dropped > 0 {
		p.logger.Debug("[CSVParser] dropped %d rows with a field count other than %d", table.Dropped, len(table.Headers))
	}
	return table, nil
}

// lineSplitter yields the cleaned fields of each non-blank line
func (p *CSVParser) lineSplitter(r io.Reader) func() ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	first := true

	return func() ([]string, error) {
		for scanner.Scan() {
			line := scanner.Text()
			if first {
				line = strings.TrimPrefix(line, "\ufeff")
				first = false
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			parts := strings.Split(line, ",")
			for i, part := range parts {
				parts[i] = cleanField(part)
			}
			return parts, nil
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
}

// recordReader yields encoding/csv records, cleaned the same way
func (p *CSVParser) recordReader(r io.Reader) func() ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = false
	first := true

	return func() ([]string, error) {
		for {
			record, err := reader.Read()
			if err != nil {
				var parseErr *csv.ParseError
				if stderrors.As(err, &parseErr) && stderrors.Is(parseErr.Err, csv.ErrFieldCount) {
					continue
				}
				return nil, err
			}
			if first && len(record) > 0 {
				record[0] = strings.TrimPrefix(record[0], "\ufeff")
				first = false
			}
			if isBlankLine(record) {
				continue
			}
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}
			return record, nil
		}
	}
}

func cleanField(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// isBlankLine matches the lines the line splitter skips: a record of one
// whitespace-only field. A line of bare commas is a row of empty cells.
func isBlankLine(record []string) bool {
	return len(record) == 1 && strings.TrimSpace(record[0]) == ""
}
