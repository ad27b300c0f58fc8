package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/swiftscan/constants"
)

type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string

	HeicConverter       string // "heif-convert" | "magick" | "sips"
	EnableTSVConfidence bool

	PSM int // 0 = tesseract default; 6 suits a single block, 11 sparse card layouts
	OEM int // 1 = LSTM; leave 0 to use default

	ArtifactCacheDir string // scratch space for decoded uploads and converted photos

	Timeout time.Duration // per-file bound on conversion + recognition; 0 = none
}

type ExtractionResult struct {
	Text       string // normalized, for confidence scoring and logs
	RawText    string // recognizer output as produced
	SourceType string // constants.IMAGE | constants.TXT
	Method     string // "image-ocr" | "text"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	return NewExtractorWithRunner(cfg, execRunner{logger: logger}, logger)
}

// NewExtractorWithRunner lets tests substitute the command runner.
func NewExtractorWithRunner(cfg Config, r Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.ArtifactCacheDir == "" {
		cfg.ArtifactCacheDir = "./tmp"
	}
	return &Extractor{cfg: cfg, runner: r, logger: logger}
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting ocr extraction", "path", path, "ext", ext)

	switch constants.MapExtToFormat(ext) {
	case constants.TXT:
		b, err := os.ReadFile(path)
		if err != nil {
			return ExtractionResult{SourceType: constants.TXT}, fmt.Errorf("read text: %w", err)
		}
		txt := Normalize(string(b))
		return ExtractionResult{
			Text:       txt,
			RawText:    string(b),
			SourceType: constants.TXT,
			Method:     "text",
			Language:   e.cfg.TesseractLang,
			Duration:   time.Since(start),
			Confidence: heuristicConfidence(txt),
		}, nil
	case constants.IMAGE:
		var warns []string
		if constants.IsHEICExt(ext) {
			out, w, cleanup, err := convertHEICtoPNG(ctx, e.runner, e.cfg.HeicConverter, path)
			warns = append(warns, w...)
			if cleanup != nil {
				defer cleanup()
			}
			if err != nil {
				e.logger.Error("heic conversion failed", "path", path, "error", err)
				return ExtractionResult{SourceType: constants.IMAGE, Warnings: warns}, err
			}
			path = out
		}
		res, err := e.extractImage(ctx, path)
		res.Duration = time.Since(start)
		res.Warnings = append(res.Warnings, warns...)
		if err == nil {
			e.logger.Info("ocr extraction ok",
				"method", res.Method, "bytes", len(res.Text),
				"confidence", res.Confidence, "duration_ms", res.Duration.Milliseconds())
		}
		return res, err
	default:
		e.logger.Error("unsupported ocr extension", "extension", ext)
		return ExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}
}

// ExtractDataURI decodes an uploaded data URI into the artifact cache, OCRs it and
// removes the temporary file.
func (e *Extractor) ExtractDataURI(ctx context.Context, uri string) (ExtractionResult, error) {
	data, ext, err := DecodeDataURI(uri)
	if err != nil {
		return ExtractionResult{}, err
	}
	if err := os.MkdirAll(e.cfg.ArtifactCacheDir, 0o755); err != nil {
		return ExtractionResult{}, fmt.Errorf("artifact dir: %w", err)
	}
	f, err := os.CreateTemp(e.cfg.ArtifactCacheDir, "card-*."+ext)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("create temp image: %w", err)
	}
	path := f.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			e.logger.Warn("failed to remove temp image", "path", path, "error", rmErr)
		}
	}()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return ExtractionResult{}, fmt.Errorf("write temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		return ExtractionResult{}, fmt.Errorf("close temp image: %w", err)
	}
	return e.Extract(ctx, path)
}
