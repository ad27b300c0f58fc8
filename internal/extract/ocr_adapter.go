package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/swiftscan/internal/ocr"
)

type OCRAdapter struct {
	e   *ocr.Extractor
	log *slog.Logger
}

func NewOCRAdapter(e *ocr.Extractor, logger *slog.Logger) *OCRAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRAdapter{e: e, log: logger}
}

func (a *OCRAdapter) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	r, err := a.e.Extract(ctx, path)
	return fromOCR(r), err
}

func (a *OCRAdapter) ExtractDataURI(ctx context.Context, uri string) (TextExtractionResult, error) {
	r, err := a.e.ExtractDataURI(ctx, uri)
	if err != nil {
		a.log.Warn("data uri extraction failed", "error", err)
	}
	return fromOCR(r), err
}

func fromOCR(r ocr.ExtractionResult) TextExtractionResult {
	return TextExtractionResult{
		Text:       r.Text,
		RawText:    r.RawText,
		SourceType: r.SourceType,
		Method:     r.Method,
		Language:   r.Language,
		Duration:   r.Duration,
		Warnings:   r.Warnings,
		Confidence: r.Confidence,
	}
}
