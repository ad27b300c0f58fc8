package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/swiftscan/internal/common"
	"github.com/joseph-ayodele/swiftscan/internal/extract"
	"github.com/joseph-ayodele/swiftscan/internal/ocr"
)

// ScanFailedMessage is what the user sees when a card could not be read.
const ScanFailedMessage = "Scan failed. Try improving lighting or focus."

// ErrScanFailed marks OCR failures. Bad uploads keep their invalid-input cause.
var ErrScanFailed = errors.New("scan failed")

type OCRStage struct {
	TextExtractor extract.TextExtractor
	Logger        *slog.Logger
}

func NewOCRStage(tx extract.TextExtractor, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRStage{TextExtractor: tx, Logger: logger}
}

// RunDataURI reads the text off a captured frame.
func (p *OCRStage) RunDataURI(ctx context.Context, uri string) (extract.TextExtractionResult, error) {
	res, err := p.TextExtractor.ExtractDataURI(ctx, uri)
	return p.finish(res, err, "data_uri")
}

// RunFile reads the text off an image (or .txt) on disk.
func (p *OCRStage) RunFile(ctx context.Context, path string) (extract.TextExtractionResult, error) {
	res, err := p.TextExtractor.Extract(ctx, path)
	return p.finish(res, err, path)
}

func (p *OCRStage) finish(res extract.TextExtractionResult, err error, source string) (extract.TextExtractionResult, error) {
	if err != nil {
		p.Logger.Error("pipeline.ocr.failed", "source", source, "error", err)
		return res, scanFailed(err)
	}
	if strings.TrimSpace(res.Text) == "" {
		p.Logger.Warn("pipeline.ocr.empty", "source", source, "method", res.Method)
		return res, scanFailed(errors.New("no text recognized"))
	}
	if res.Confidence > 0 && res.Confidence < ocr.ImageConfidenceThreshold {
		p.Logger.Warn("pipeline.ocr.low_confidence", "source", source, "conf", res.Confidence)
	}
	p.Logger.Info("pipeline.ocr.ok",
		"source", source,
		"method", res.Method,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// sourceText is the text fields are parsed from: the recognizer output when the
// extractor reports it, else the normalized text.
func sourceText(res extract.TextExtractionResult) string {
	if res.RawText != "" {
		return res.RawText
	}
	return res.Text
}

func scanFailed(cause error) error {
	if errors.Is(cause, common.ErrInvalidInput) {
		return common.NewAppError("SCAN_FAILED", ScanFailedMessage, errors.Join(ErrScanFailed, cause))
	}
	return common.NewAppError("SCAN_FAILED", ScanFailedMessage, errors.Join(ErrScanFailed, common.ErrInternal, cause))
}
