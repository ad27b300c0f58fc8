package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/swiftscan/internal/email"
	"github.com/joseph-ayodele/swiftscan/internal/entity"
	"github.com/joseph-ayodele/swiftscan/internal/extract"
)

// ParseStage turns OCR text into a contact and a follow-up draft.
type ParseStage struct {
	Extractor extract.FieldExtractor
	Logger    *slog.Logger
}

func NewParseStage(fe extract.FieldExtractor, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStage{Extractor: fe, Logger: logger}
}

type ParseResult struct {
	Contact   entity.Contact
	Draft     entity.Draft
	NextIndex int
}

// Run extracts the fields and renders the template at index.
func (p *ParseStage) Run(ctx context.Context, text string, sender entity.Sender, index int) (ParseResult, error) {
	c, err := p.Extractor.ExtractFields(ctx, text)
	if err != nil {
		return ParseResult{}, fmt.Errorf("extract fields: %w", err)
	}
	d, next := email.Generate(c, sender, index)

	p.Logger.Info("parsed fields",
		"has_name", c.Name != "",
		"has_email", c.Email != "",
		"has_phone", c.Phone != "",
		"role", c.Role,
		"company", c.Company,
		"template", email.TemplateAt(index).Name,
	)
	return ParseResult{Contact: c, Draft: d, NextIndex: next}, nil
}
