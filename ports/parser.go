package ports

import (
	"context"
	"io"

	"datalens/domain/dataset"
)

// Parser turns the bytes of one uploaded file into an ordered table of rows.
// An input with no data rows yields an empty table, not an error.
type Parser interface {
	Format() dataset.Format
	Parse(ctx context.Context, r io.Reader) (*dataset.Table, error)
}
