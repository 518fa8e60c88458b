package ingest

import (
	"bytes"
	"context"
	"io"

	"datalens/domain/dataset"
	"datalens/internal"
	"datalens/internal/errors"

	"github.com/tidwall/gjson"
)

// scalarKey names the single column of rows built from non-object array elements
const scalarKey = "value"

// JSONParser reads an array of objects, an object holding such an array, or
// a single object. Key order follows the document.
type JSONParser struct {
	maxRows int
	logger  *internal.Logger
}

// NewJSONParser creates a JSON parser. maxRows <= 0 means no cap.
func NewJSONParser(maxRows int, logger *internal.Logger) *JSONParser {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &JSONParser{maxRows: maxRows, logger: logger}
}

// Format implements ports.Parser
func (p *JSONParser) Format() dataset.Format {
	return dataset.FormatJSON
}

// Parse implements ports.Parser
func (p *JSONParser) Parse(ctx context.Context, r io.Reader) (*dataset.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.ParseError("failed to read JSON", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &dataset.Table{}, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.ParseError("Invalid JSON format", nil)
	}

	records := locateRecords(gjson.ParseBytes(data))

	table := &dataset.Table{}
	headerSeen := make(map[string]bool)
	var ctxErr error
	records.ForEach(func(_, element gjson.Result) bool {
		if len(table.Rows)%cancelCheckInterval == cancelCheckInterval-1 {
			if ctxErr = ctx.Err(); ctxErr != nil {
				return false
			}
		}
		if p.maxRows > 0 && len(table.Rows) >= p.maxRows {
			table.Truncated = true
			return false
		}

		row := toRow(element)
		if element.IsObject() {
			element.ForEach(func(key, _ gjson.Result) bool {
				addHeader(table, headerSeen, key.String())
				return true
			})
		} else {
			addHeader(table, headerSeen, scalarKey)
		}
		table.Rows = append(table.Rows, row)
		return true
	})
	if ctxErr != nil {
		return nil, errors.Canceled(ctxErr)
	}

	p.logger.Debug("[JSONParser] %d rows, %d columns, truncated=%t", len(table.Rows), len(table.Headers), table.Truncated)
	return table, nil
}

// locateRecords returns the value whose elements become rows. It is always
// an array, or an object standing for a single row.
func locateRecords(root gjson.Result) gjson.Result {
	switch {
	case root.IsArray():
		return root
	case root.IsObject():
		var found gjson.Result
		root.ForEach(func(_, value gjson.Result) bool {
			if value.IsArray() {
				found = value
				return false
			}
			return true
		})
		if found.Exists() {
			return found
		}
		return gjson.Parse("[" + root.Raw + "]")
	default:
		return gjson.Parse("[]")
	}
}

func toRow(element gjson.Result) dataset.Row {
	if !element.IsObject() {
		return dataset.Row{scalarKey: scalarOf(element)}
	}
	row := make(dataset.Row)
	element.ForEach(func(key, value gjson.Result) bool {
		row[key.String()] = scalarOf(value)
		return true
	})
	return row
}

// scalarOf maps a JSON value to a raw cell; nested values keep their JSON text
func scalarOf(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return v.Float()
	case gjson.String:
		return v.String()
	default:
		return v.Raw
	}
}

func addHeader(table *dataset.Table, seen map[string]bool, key string) {
	if !seen[key] {
		seen[key] = true
		table.Headers = append(table.Headers, key)
	}
}
