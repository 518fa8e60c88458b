package ingest

import (
	"path/filepath"
	"strings"

	"datalens/domain/dataset"
	"datalens/internal/errors"
)

var extensionFormats = map[string]dataset.Format{
	".csv":  dataset.FormatCSV,
	".xlsx": dataset.FormatExcel,
	".xlsm": dataset.FormatExcel,
	".xls":  dataset.FormatExcel,
	".json": dataset.FormatJSON,
}

// unreadableExtensions classify as a known format but no parser can open
// them: legacy .xls workbooks are BIFF, the Excel reader only reads OOXML.
var unreadableExtensions = map[string]bool{
	".xls": true,
}

// DetectFormat classifies a file name by extension. Unrecognized
// extensions are treated as CSV.
func DetectFormat(name string) dataset.Format {
	if f, ok := extensionFormats[strings.ToLower(filepath.Ext(name))]; ok {
		return f
	}
	return dataset.FormatCSV
}

// ValidateExtension rejects a file before parsing unless its extension maps
// to one of the supported formats.
func ValidateExtension(name string, supported []dataset.Format) error {
	ext := strings.ToLower(filepath.Ext(name))
	f, ok := extensionFormats[ext]
	if !ok || unreadableExtensions[ext] {
		return errors.UnsupportedFormat(name)
	}
	for _, s := range supported {
		if s == f {
			return nil
		}
	}
	return errors.UnsupportedFormat(name)
}

// ParseFormats reads a list such as "csv,excel,json"
func ParseFormats(names []string) ([]dataset.Format, error) {
	formats := make([]dataset.Format, 0, len(names))
	for _, n := range names {
		f := dataset.Format(strings.ToLower(strings.TrimSpace(n)))
		switch f {
		case dataset.FormatCSV, dataset.FormatExcel, dataset.FormatJSON:
			formats = append(formats, f)
		case "":
		default:
			return nil, errors.InvalidInput("unknown format " + n)
		}
	}
	if len(formats) == 0 {
		return nil, errors.InvalidInput("at least one supported format is required")
	}
	return formats, nil
}
