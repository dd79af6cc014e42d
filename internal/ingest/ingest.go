package ingest

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/bnpl-tracker/internal/entity"
)

// ErrUnsupported is returned for files whose extension is not accepted.
var ErrUnsupported = errors.New("unsupported or missing extension")

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	entity.SourceFile
	HashHex      string
	Deduplicated bool
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the batch tools depend on.
type Ingestor interface {
	// IngestPath reads a single reminder file.
	IngestPath(ctx context.Context, path string) (IngestionResult, error)
	// IngestDirectory reads all matching files under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
