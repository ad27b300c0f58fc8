package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
)

// Ingestor runs files through the pipeline once per distinct content.
type Ingestor struct {
	proc   Processor
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]string // sha256 -> record id
}

func NewIngestor(proc Processor, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{proc: proc, logger: logger, seen: map[string]string{}}
}

// IngestPath processes a single file. A file whose bytes were already
// processed in this run is reported as deduplicated and skipped.
func (in *Ingestor) IngestPath(ctx context.Context, path string) (Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{Path: path}, fmt.Errorf("abs path: %w", err)
	}
	if !AllowedExt(abs) {
		return Result{Path: abs}, fmt.Errorf("unsupported or missing extension: %q", filepath.Ext(abs))
	}
	sum, err := hashFile(abs)
	if err != nil {
		return Result{Path: abs}, err
	}

	in.mu.Lock()
	prev, dup := in.seen[sum]
	in.mu.Unlock()
	if dup {
		in.logger.Debug("ingest.dedup", "path", abs, "record_id", prev)
		return Result{Path: abs, RecordID: prev, HashHex: sum, Deduplicated: true}, nil
	}

	rec, err := in.proc.ProcessFile(ctx, abs)
	if err != nil {
		in.logger.Warn("ingest.failed", "path", abs, "error", err)
		return Result{Path: abs, HashHex: sum}, err
	}

	in.mu.Lock()
	in.seen[sum] = rec.ID.String()
	in.mu.Unlock()
	in.logger.Info("ingest.ok", "path", abs, "record_id", rec.ID, "status", rec.Status)
	return Result{Path: abs, RecordID: rec.ID.String(), Status: string(rec.Status), HashHex: sum}, nil
}

// IngestDirectory walks root, skips hidden entries if requested, and calls
// IngestPath for each matching file. Returns per-file results + aggregate stats.
func (in *Ingestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]Result, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []Result
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, Result{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(path) {
			return nil
		}
		stats.Matched++

		res, err := in.IngestPath(ctx, path)
		if err != nil {
			res.Err = err.Error()
			results = append(results, res)
			stats.Failed++
			return nil
		}
		results = append(results, res)
		stats.Succeeded++
		if res.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	in.logger.Info("ingest.directory.done",
		"root", root,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, nil
}
