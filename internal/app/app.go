// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/Nightfall2318/text-summary-app/internal/config"
	"github.com/Nightfall2318/text-summary-app/internal/core"
	"github.com/Nightfall2318/text-summary-app/internal/core/ingestion_engine"
	"github.com/Nightfall2318/text-summary-app/internal/core/llm"
	objectclient "github.com/Nightfall2318/text-summary-app/internal/core/object-client"
	"github.com/Nightfall2318/text-summary-app/internal/core/summary_engine"
	"github.com/Nightfall2318/text-summary-app/internal/core/tasks"
	"github.com/Nightfall2318/text-summary-app/internal/metadata"
	"github.com/Nightfall2318/text-summary-app/internal/services"
)

type App struct {
	Model        core.SummaryModel
	Registry     *tasks.Registry
	Dispatcher   *tasks.Dispatcher
	Sweeper      *tasks.Sweeper
	ObjectClient core.ObjectClient
	Server       *Server

	logger *zap.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	appCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	model, err := llm.NewSummaryModel(appCtx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the summary model, %w", err)
	}

	objClient, err := objectclient.NewObjectClient(appCtx, cfg, logger)
	if err != nil {
		closeModel(model)
		return nil, fmt.Errorf("couldn't initialize the upload archive, %w", err)
	}

	registry := tasks.NewRegistry(cfg.TaskExpiry)
	sweeper, err := tasks.NewSweeper(registry, cfg.CleanupInterval, logger.Named("sweeper"))
	if err != nil {
		closeModel(model)
		return nil, err
	}

	summarizer := summary_engine.NewSummarizer(model, registry, summary_engine.Config{
		ChunkSize:     cfg.ChunkSize,
		MinTextLength: cfg.MinTextLength,
	}, logger.Named("summarizer"))

	dispatcher := tasks.NewDispatcher(registry, summarizer, logger.Named("dispatcher"),
		tasks.WithWorkers(cfg.SummaryWorkers),
		tasks.WithQueueSize(cfg.SummaryQueueSize),
		tasks.WithTaskTimeout(cfg.SummaryTimeout),
	)

	ingCfg := ingestion_engine.Config{
		Tesseract:   cfg.TesseractBin,
		Pdftoppm:    cfg.PdftoppmBin,
		Lang:        cfg.TesseractLang,
		TessdataDir: cfg.TessdataPrefix,
		DPI:         cfg.OCRDPI,
		MaxPages:    cfg.OCRMaxPages,
		Concurrency: cfg.OCRConcurrency,
	}
	ocr := ingestion_engine.NewTesseractEngine(ingCfg, ingestion_engine.NewExecRunner(logger.Named("exec")), logger.Named("ocr"))
	if !ocr.Available() {
		logger.Warn("tesseract not found, OCR fallback disabled", zap.String("binary", ingCfg.Tesseract))
	}
	extractor := ingestion_engine.NewExtractor(ingCfg, ocr, logger.Named("extractor"))

	docService := services.NewDocumentService(
		extractor,
		metadata.NewExtractor(logger.Named("metadata")),
		objClient,
		tasks.NewTextStore(cfg.TextStoreMaxEntries),
		dispatcher,
		registry,
		services.Options{
			DefaultMaxLength: cfg.DefaultMaxLength,
			DefaultMinLength: cfg.DefaultMinLength,
		},
		logger.Named("documents"),
	)

	server := NewServer(cfg, docService, registry, logger)

	sweeper.Start()
	logger.Info("application initialized",
		zap.String("provider", cfg.SummaryProvider),
		zap.String("archive", cfg.ArchiveBackend),
		zap.Int("workers", cfg.SummaryWorkers),
	)

	return &App{
		Model:        model,
		Registry:     registry,
		Dispatcher:   dispatcher,
		Sweeper:      sweeper,
		ObjectClient: objClient,
		Server:       server,
		logger:       logger,
	}, nil
}

// Shutdown stops the HTTP server first so no new task is accepted, then
// drains queued summaries within ctx.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if a.Dispatcher != nil {
		a.Dispatcher.Shutdown(ctx)
	}
	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}
	if err := closeModel(a.Model); err != nil {
		errs = append(errs, fmt.Errorf("close model: %w", err))
	}
	a.logger.Info("application stopped")
	return errors.Join(errs...)
}

func closeModel(m core.SummaryModel) error {
	if c, ok := m.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
