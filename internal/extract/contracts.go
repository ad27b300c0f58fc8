package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/swiftscan/internal/entity"
)

// TextExtractor is Stage 1: image -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
	ExtractDataURI(ctx context.Context, uri string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	RawText    string // what the recognizer produced; fields are parsed from this
	SourceType string // "IMAGE" | "TXT"
	Method     string // "image-ocr" | "text"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// FieldExtractor is Stage 2: text -> contact fields.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string) (entity.Contact, error)
}
