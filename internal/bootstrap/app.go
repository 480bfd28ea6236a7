// Package bootstrap wires the configured providers and pipeline components
// into a ready-to-serve App. Everything is constructed once and passed down
// explicitly.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/voxlate/domain/repositories"
	"github.com/satriahrh/voxlate/internal/audio"
	"github.com/satriahrh/voxlate/internal/config"
	"github.com/satriahrh/voxlate/internal/metrics"
	"github.com/satriahrh/voxlate/internal/textseg"
	"github.com/satriahrh/voxlate/internal/workdir"
	"github.com/satriahrh/voxlate/usecase"
)

// App holds the long-lived components shared by the server and the CLI
type App struct {
	Config      config.Config
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	InputStore  *workdir.Store
	OutputStore *workdir.Store
	Janitor     *workdir.Janitor
	Synthesizer repositories.Synthesizer
	Service     *usecase.TranslationService

	closers []func() error
}

// New builds the application graph from cfg. Call Close when done.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	inputStore, err := workdir.NewStore(cfg.Storage.InputDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare input directory: %w", err)
	}
	outputStore, err := workdir.NewStore(cfg.Storage.OutputDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare output directory: %w", err)
	}

	segmenter, err := textseg.NewSegmenter(cfg.Pipeline.MaxSegmentChars)
	if err != nil {
		return nil, err
	}

	transcriber, closeTranscriber, err := NewTranscriber(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcriber: %w", err)
	}
	translator, err := NewTranslator(ctx, cfg, logger)
	if err != nil {
		closeTranscriber()
		return nil, fmt.Errorf("failed to create translator: %w", err)
	}
	synthesizer, err := NewSynthesizer(cfg, logger)
	if err != nil {
		closeTranscriber()
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}

	m := metrics.NewMetrics()
	converter := audio.NewFormatConverter(cfg.Pipeline.FFmpegPath, inputStore, logger)
	assembler := audio.NewAssembler(outputStore, cfg.Pipeline.SynthesisConcurrency, logger)

	service := usecase.NewTranslationService(
		converter,
		transcriber,
		translator,
		synthesizer,
		segmenter,
		assembler,
		logger,
		usecase.WithTranscriptStore(inputStore),
		usecase.WithRunRecorder(m),
	)

	janitor := workdir.NewJanitor(cfg.Storage.Sweep, cfg.Storage.SweepInterval, m, logger, inputStore, outputStore)

	logger.Info("Application initialized",
		zap.String("transcriber", cfg.Providers.Transcriber),
		zap.String("translator", cfg.Providers.Translator),
		zap.String("synthesizer", cfg.Providers.Synthesizer),
		zap.String("inputDir", inputStore.Dir()),
		zap.String("outputDir", outputStore.Dir()),
		zap.Int("maxSegmentChars", segmenter.MaxChars()))

	return &App{
		Config:      cfg,
		Logger:      logger,
		Metrics:     m,
		InputStore:  inputStore,
		OutputStore: outputStore,
		Janitor:     janitor,
		Synthesizer: synthesizer,
		Service:     service,
		closers:     []func() error{closeTranscriber},
	}, nil
}

// Close stops the janitor and releases provider clients
func (a *App) Close() error {
	a.Janitor.Stop()

	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
