package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/swiftscan/constants"
	"github.com/joseph-ayodele/swiftscan/internal/async"
	"github.com/joseph-ayodele/swiftscan/internal/entity"
)

type recordingProc struct {
	mu    sync.Mutex
	paths []string
	fail  string
}

func (r *recordingProc) ProcessFile(_ context.Context, path string) (*entity.ScanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	if r.fail != "" && strings.HasSuffix(path, r.fail) {
		return nil, errors.New("ocr failed")
	}
	return entity.NewScanRecord(entity.Contact{Name: filepath.Base(path)}, nil, path, constants.ScanStatusScanned), nil
}

func (r *recordingProc) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestAllowedExt(t *testing.T) {
	for _, p := range []string{"a.jpg", "b.JPEG", "c.png", "d.heic", "e.txt"} {
		assert.True(t, AllowedExt(p), p)
	}
	for _, p := range []string{"a.pdf", "b", "c.docx"} {
		assert.False(t, AllowedExt(p), p)
	}
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/x/.cache"))
	assert.False(t, IsHidden("/x/cards"))
	assert.False(t, IsHidden("."))
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "jane.png"), "jane")
	writeFile(t, filepath.Join(root, "sub", "bob.txt"), "bob")
	writeFile(t, filepath.Join(root, "sub", "copy.jpg"), "jane") // same bytes as jane.png
	writeFile(t, filepath.Join(root, "notes.pdf"), "skip")
	writeFile(t, filepath.Join(root, ".hidden", "x.png"), "hidden")
	writeFile(t, filepath.Join(root, "bad.png"), "bad")

	proc := &recordingProc{fail: "bad.png"}
	in := NewIngestor(proc, nil)

	results, stats, err := in.IngestDirectory(context.Background(), root, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), stats.Matched)
	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Equal(t, uint32(1), stats.Failed)
	assert.Len(t, results, 4)
	assert.Equal(t, 3, proc.count())

	for _, r := range results {
		if strings.HasSuffix(r.Path, "bad.png") {
			assert.Equal(t, "ocr failed", r.Err)
		}
	}
}

func TestIngestDirectory_EmptyRoot(t *testing.T) {
	_, _, err := NewIngestor(&recordingProc{}, nil).IngestDirectory(context.Background(), " ", false)
	assert.Error(t, err)
}

func TestIngestPath_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.pdf")
	writeFile(t, path, "x")
	_, err := NewIngestor(&recordingProc{}, nil).IngestPath(context.Background(), path)
	assert.Error(t, err)
}

func TestWatch_PicksUpNewFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "existing.png"), "old")

	proc := &recordingProc{}
	in := NewIngestor(proc, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- in.Watch(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond})
	}()

	require.Eventually(t, func() bool { return proc.count() == 1 }, 5*time.Second, 10*time.Millisecond)

	writeFile(t, filepath.Join(root, "new.jpg"), "new card")
	writeFile(t, filepath.Join(root, "ignored.pdf"), "nope")
	require.Eventually(t, func() bool { return proc.count() >= 2 }, 5*time.Second, 10*time.Millisecond)
	proc.mu.Lock()
	assert.Contains(t, proc.paths, filepath.Join(root, "new.jpg"))
	proc.mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)
}

func TestWatchQueue(t *testing.T) {
	root := t.TempDir()
	proc := &recordingProc{}
	in := NewIngestor(proc, nil)
	q := async.NewProcessorQueue(in.Handle, nil, async.WithWorkers(2))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- in.WatchQueue(ctx, WatchConfig{Roots: []string{root}, Debounce: 20 * time.Millisecond}, q) }()

	// give the watcher time to register the root
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(root, "a.png"), "a")
	require.Eventually(t, func() bool { return proc.count() >= 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-done
	q.Shutdown(context.Background())
}

func TestHandle_MissingFileIsNotAnError(t *testing.T) {
	in := NewIngestor(&recordingProc{}, nil)
	assert.NoError(t, in.Handle(context.Background(), async.Job{Path: filepath.Join(t.TempDir(), "gone.png")}))
}

func TestPendingPaths_FirstSeenOrder(t *testing.T) {
	var p pendingPaths
	for _, path := range []string{"c.png", "a.png", "b.png", "a.png", "c.png"} {
		p.add(path)
	}
	assert.Equal(t, []string{"c.png", "a.png", "b.png"}, p.drain())
	assert.Empty(t, p.drain())

	p.add("a.png")
	assert.Equal(t, []string{"a.png"}, p.drain())
}
