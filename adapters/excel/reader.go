package excel

import (
	"context"
	"io"
	"strings"
	"time"

	"datalens/domain/dataset"
	"datalens/internal"
	"datalens/internal/errors"

	"github.com/xuri/excelize/v2"
)

const cancelCheckInterval = 1024

// Reader parses the first sheet of an Excel workbook
type Reader struct {
	maxRows int
	logger  *internal.Logger
}

// NewReader creates an Excel reader. maxRows <= 0 means no cap.
func NewReader(maxRows int, logger *internal.Logger) *Reader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reader{maxRows: maxRows, logger: logger}
}

// Format implements ports.Parser
func (r *Reader) Format() dataset.Format {
	return dataset.FormatExcel
}

// Parse reads the first sheet: first non-blank row is the header, later
// rows are zipped against it with missing trailing cells as "".
func (r *Reader) Parse(ctx context.Context, src io.Reader) (*dataset.Table, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, errors.ParseError("unreadable Excel container", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &dataset.Table{}, nil
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, errors.ParseError("failed to read sheet "+sheet, err)
	}
	defer rows.Close()

	table := &dataset.Table{}
	seen := 0
	for rows.Next() {
		seen++
		if seen%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.Canceled(err)
			}
		}

		cells, err := rows.Columns()
		if err != nil {
			return nil, errors.ParseError("failed to read row of sheet "+sheet, err)
		}
		if isBlank(cells) {
			continue
		}

		if table.Headers == nil {
			table.Headers = dataset.NormalizeHeaders(cells)
			continue
		}
		if r.maxRows > 0 && len(table.Rows) >= r.maxRows {
			table.Truncated = true
			break
		}
		table.Rows = append(table.Rows, zipRow(table.Headers, cells))
	}
	if err := rows.Error(); err != nil {
		return nil, errors.ParseError("failed to iterate sheet "+sheet, err)
	}

	r.logger.Debug("[ExcelReader] sheet %q read in %.2fms (%d columns, %d rows, truncated=%t)",
		sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(table.Headers), len(table.Rows), table.Truncated)
	return table, nil
}

// zipRow pairs cells with headers. Cells beyond the header are ignored.
func zipRow(headers, cells []string) dataset.Row {
	row := make(dataset.Row, len(headers))
	for j, header := range headers {
		if j < len(cells) {
			row[header] = strings.TrimSpace(cells[j])
		} else {
			row[header] = ""
		}
	}
	return row
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
