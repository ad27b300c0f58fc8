// Package ingest feeds card photos from disk into the capture pipeline, either
// as a one-off directory sweep or by watching folders for new files.
package ingest

import (
	"context"

	"github.com/joseph-ayodele/swiftscan/internal/entity"
)

// Processor is the pipeline entry point ingest depends on.
type Processor interface {
	ProcessFile(ctx context.Context, path string) (*entity.ScanRecord, error)
}

// Result is the per-file ingest outcome.
type Result struct {
	Path         string
	RecordID     string
	Status       string
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
