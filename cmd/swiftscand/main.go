package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/swiftscan/internal/async"
	"github.com/joseph-ayodele/swiftscan/internal/common"
	"github.com/joseph-ayodele/swiftscan/internal/contact"
	"github.com/joseph-ayodele/swiftscan/internal/export"
	"github.com/joseph-ayodele/swiftscan/internal/extract"
	"github.com/joseph-ayodele/swiftscan/internal/google"
	"github.com/joseph-ayodele/swiftscan/internal/ingest"
	"github.com/joseph-ayodele/swiftscan/internal/ocr"
	"github.com/joseph-ayodele/swiftscan/internal/pipeline"
	repo "github.com/joseph-ayodele/swiftscan/internal/repository"
	"github.com/joseph-ayodele/swiftscan/internal/server"
	"github.com/joseph-ayodele/swiftscan/internal/session"
)

const sessionIdleTTL = 12 * time.Hour

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := ocr.CheckBinary(cfg.OCR.Tesseract); err != nil {
		logger.Warn("tesseract not found; captures will fail until it is installed", "binary", cfg.OCR.Tesseract, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err, "driver", cfg.Database.Driver)
		os.Exit(1)
	}
	defer server.CloseDB(db, logger)

	if err := server.PingDB(ctx, db, logger, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	scans := repo.NewScanRepository(db, logger)
	settings := repo.NewSettingsRepository(db, logger)
	sessions := session.NewStore(logger)

	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:           cfg.OCR.Tesseract,
		TesseractLang:       cfg.OCR.Language,
		TessdataDir:         cfg.OCR.TessdataDir,
		HeicConverter:       cfg.OCR.HeicConverter,
		EnableTSVConfidence: cfg.OCR.EnableTSVConfidence,
		PSM:                 cfg.OCR.PSM,
		ArtifactCacheDir:    cfg.OCR.ArtifactCacheDir,
		Timeout:             cfg.OCR.Timeout,
	}, logger)
	fields := contact.HeuristicExtractor{}
	gclient := google.NewClient(google.Config{
		UserInfoURL: cfg.Google.UserInfoURL,
		GmailURL:    cfg.Google.GmailURL,
		Timeout:     cfg.Google.Timeout,
	}, logger)

	processor := pipeline.NewProcessor(logger,
		pipeline.NewOCRStage(extract.NewOCRAdapter(extractor, logger), logger),
		pipeline.NewParseStage(fields, logger),
		sessions, scans, settings, gclient,
	)

	router := server.NewRouter(server.Deps{
		Processor: processor,
		Sessions:  sessions,
		Scans:     scans,
		Settings:  settings,
		Export:    export.NewService(scans, logger),
		Fields:    fields,
		Google:    gclient,
	}, server.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("swiftscan http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	grpcServer, healthServer := server.NewGRPCServer(logger)
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
			os.Exit(1)
		}
		go server.WatchDB(ctx, db, healthServer, 15*time.Second, logger)
		go func() {
			logger.Info("swiftscan grpc health listening", "addr", cfg.Server.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC serve error", "error", err)
			}
		}()
	}

	go func() {
		t := time.NewTicker(time.Hour)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				sessions.Prune(sessionIdleTTL)
			}
		}
	}()

	var queue *async.ProcessorQueue
	if len(cfg.Ingest.WatchDirs) > 0 {
		ingestor := ingest.NewIngestor(processor, logger)
		queue = async.NewProcessorQueue(ingestor.Handle, logger,
			async.WithWorkers(cfg.Ingest.Workers),
			async.WithQueueSize(cfg.Ingest.QueueSize),
			async.WithProcessTimeout(cfg.Ingest.FileTimeout),
		)
		go func() {
			err := ingestor.WatchQueue(ctx, ingest.WatchConfig{
				Roots:      cfg.Ingest.WatchDirs,
				Debounce:   cfg.Ingest.Debounce,
				SkipHidden: true,
			}, queue)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("watcher stopped", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if queue != nil {
		queue.Shutdown(shutdownCtx)
	}
	grpcServer.GracefulStop()
	logger.Info("stopped")
}
