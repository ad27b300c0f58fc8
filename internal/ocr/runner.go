package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// maxStderrLog bounds how much converter or tesseract chatter reaches the log.
const maxStderrLog = 8 << 10

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// execRunner runs tesseract and the HEIC converters as subprocesses.
type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	log := r.logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("cmd", name, "args", strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	switch {
	case err == nil:
		log.Debug("ocr.exec.ok", "elapsed_ms", elapsed, "stdout_bytes", stdout.Len(), "stderr_bytes", stderr.Len())
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		log.Error("ocr.exec.timeout", "elapsed_ms", elapsed)
		err = fmt.Errorf("%s timed out after %dms: %w", name, elapsed, ctx.Err())
	default:
		log.Error("ocr.exec.failed", "elapsed_ms", elapsed, "error", err, "stderr", truncate(stderr.String(), maxStderrLog))
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

// truncate shortens s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := strings.ToValidUTF8(s[:max], "")
	return cut + "...(truncated)"
}

// CheckBinary reports whether name resolves on PATH (or is an executable path).
func CheckBinary(name string) error {
	_, err := exec.LookPath(name)
	return err
}
