package ports

import (
	"context"

	"datalens/domain/dataset"
)

// ColumnProfiler infers column types and summary statistics from parsed rows
type ColumnProfiler interface {
	ProfileColumns(ctx context.Context, headers []string, rows []dataset.Row) ([]dataset.ColumnInfo, error)
}
