package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/swiftscan/internal/async"
)

type WatchConfig struct {
	Roots       []string      // directories to watch (recursive)
	InitialScan bool          // if true, walk roots and emit existing files
	Debounce    time.Duration // coalesce rapid create/write/rename bursts
	SkipHidden  bool
}

// StartWatcher emits paths of card files that appear or change under the
// roots. Both channels close when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		logger.Error("watcher start failed: no roots provided")
		return nil, nil, errors.New("no roots provided")
	}
	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}

	var initial []string
	addDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if cfg.SkipHidden && path != root && IsHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && AllowedExt(path) {
				initial = append(initial, path)
			}
			return nil
		})
	}
	for _, r := range cfg.Roots {
		if err := addDir(r); err != nil {
			logger.Error("failed to add root directory", "root", r, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}
	logger.Info("watcher.started", "roots", cfg.Roots, "initial", len(initial), "debounce", cfg.Debounce)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("watcher close failed", "error", err)
			}
		}()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		var pending pendingPaths
		var flush <-chan time.Time
		var timer *time.Timer
		flushPending := func() bool {
			for _, p := range pending.drain() {
				if !emit(p) {
					return false
				}
			}
			return true
		}

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					// new sub-directories are watched too; adding a plain file fails harmlessly
					_ = w.Add(e.Name)
				}
				if cfg.SkipHidden && IsHidden(e.Name) {
					continue
				}
				if !AllowedExt(e.Name) || !(e.Has(fsnotify.Create) || e.Has(fsnotify.Write) || e.Has(fsnotify.Rename)) {
					continue
				}
				pending.add(e.Name)
				if cfg.Debounce <= 0 {
					if !flushPending() {
						return
					}
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(cfg.Debounce)
				flush = timer.C
			case <-flush:
				flush = nil
				if !flushPending() {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// pendingPaths is a debounce batch: each path once, in first-seen order.
type pendingPaths struct {
	order []string
	seen  map[string]struct{}
}

func (p *pendingPaths) add(path string) {
	if p.seen == nil {
		p.seen = make(map[string]struct{})
	}
	if _, ok := p.seen[path]; ok {
		return
	}
	p.seen[path] = struct{}{}
	p.order = append(p.order, path)
}

func (p *pendingPaths) drain() []string {
	out := p.order
	p.order, p.seen = nil, nil
	return out
}

// Watch ingests every path the watcher reports until ctx is done. Files are
// processed one at a time.
func (in *Ingestor) Watch(ctx context.Context, cfg WatchConfig) error {
	return in.watch(ctx, cfg, func(p string) {
		if _, err := in.IngestPath(ctx, p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			in.logger.Warn("watch.ingest_failed", "path", p, "error", err)
		}
	})
}

// WatchQueue hands reported paths to q instead of processing them inline.
func (in *Ingestor) WatchQueue(ctx context.Context, cfg WatchConfig, q async.Queue) error {
	return in.watch(ctx, cfg, func(p string) {
		job := async.Job{Path: p, SubmittedAt: time.Now(), TraceID: uuid.New().String()}
		if err := q.Enqueue(ctx, job); err != nil {
			in.logger.Warn("watch.enqueue_failed", "path", p, "error", err)
		}
	})
}

// Handle adapts IngestPath to an async.Handler. Files that vanished before
// their turn are not treated as failures.
func (in *Ingestor) Handle(ctx context.Context, job async.Job) error {
	_, err := in.IngestPath(ctx, job.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (in *Ingestor) watch(ctx context.Context, cfg WatchConfig, sink func(path string)) error {
	events, errs, err := StartWatcher(ctx, cfg, in.logger)
	if err != nil {
		return err
	}
	for {
		select {
		case p, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			// a rename away from the folder also reports the old name
			sink(p)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			in.logger.Warn("watch.error", "error", err)
		}
	}
}
