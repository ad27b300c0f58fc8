// Command swiftscan is the command-line companion to the swiftscan daemon:
// parse card text, scan photos into history, watch folders and export.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/swiftscan/internal/common"
	"github.com/joseph-ayodele/swiftscan/internal/contact"
	"github.com/joseph-ayodele/swiftscan/internal/extract"
	"github.com/joseph-ayodele/swiftscan/internal/ocr"
	"github.com/joseph-ayodele/swiftscan/internal/pipeline"
	repo "github.com/joseph-ayodele/swiftscan/internal/repository"
	"github.com/joseph-ayodele/swiftscan/internal/server"
)

const appName = "swiftscan"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every subcommand shares.
type app struct {
	logLevel string
	cfg      *common.Config
	logger   *slog.Logger
	out      io.Writer
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Business card scanner",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `swiftscan reads business cards (photos or OCR text), extracts the contact
fields and drafts a follow-up email. History is kept in the configured store
(DB_DRIVER / DB_URL).`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.out = cmd.OutOrStdout()
			a.setup()
		},
	}
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		parseCmd(a),
		draftCmd(a),
		scanCmd(a),
		watchCmd(a),
		historyCmd(a),
		exportCmd(a),
		settingsCmd(a),
		dbhealthCmd(a),
	)
	return cmd
}

func (a *app) setup() {
	level := slog.LevelWarn
	switch strings.ToLower(a.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
	a.cfg = common.LoadConfig()
}

// openDB connects and migrates; the caller closes.
func (a *app) openDB(ctx context.Context) (*repo.DB, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	return server.ConnectDB(ctx, a.cfg.Database, a.logger)
}

func (a *app) processor(db *repo.DB) *pipeline.Processor {
	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:           a.cfg.OCR.Tesseract,
		TesseractLang:       a.cfg.OCR.Language,
		TessdataDir:         a.cfg.OCR.TessdataDir,
		HeicConverter:       a.cfg.OCR.HeicConverter,
		EnableTSVConfidence: a.cfg.OCR.EnableTSVConfidence,
		PSM:                 a.cfg.OCR.PSM,
		ArtifactCacheDir:    a.cfg.OCR.ArtifactCacheDir,
		Timeout:             a.cfg.OCR.Timeout,
	}, a.logger)
	return pipeline.NewProcessor(a.logger,
		pipeline.NewOCRStage(extract.NewOCRAdapter(extractor, a.logger), a.logger),
		pipeline.NewParseStage(contact.HeuristicExtractor{}, a.logger),
		nil,
		repo.NewScanRepository(db, a.logger),
		repo.NewSettingsRepository(db, a.logger),
		nil,
	)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput reads a file argument, or stdin when the argument is "-" or missing.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(args[0])
	return string(b), err
}
