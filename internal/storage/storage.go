// Package storage persists car image assets and resolves their public URLs.
// Assets are addressed only by the generated filename returned from Save;
// there is no metadata, deduplication, or reference counting.
package storage

import (
	"context"
	"io"
)

// Upload is a single incoming image file.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Store saves, deletes, and resolves image assets. Delete is idempotent: a
// missing file is not an error, because records may reference images already
// removed by a prior partial failure.
type Store interface {
	Save(ctx context.Context, up Upload) (string, error)
	Delete(ctx context.Context, filename string) error
	Resolve(filename string) string
}
