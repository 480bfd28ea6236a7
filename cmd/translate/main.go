package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/voxlate/domain/entities"
	"github.com/satriahrh/voxlate/internal/bootstrap"
	"github.com/satriahrh/voxlate/internal/config"
	"github.com/satriahrh/voxlate/usecase"
)

func main() {
	in := flag.String("in", "", "input audio file (mp3, wav, m4a)")
	from := flag.String("from", "en", "source language code")
	to := flag.String("to", "es", "target language code")
	out := flag.String("out", "", "output file (default: translated_audio_<to>.<ext>)")
	slow := flag.Bool("slow", false, "request slower speech")
	configPath := flag.String("config", "", "path to a YAML config file")
	envPath := flag.String("env", ".env", "path to a dotenv file (skipped when missing)")
	listVoices := flag.Bool("list-voices", false, "list ElevenLabs voices and exit")
	flag.Parse()

	cfg, err := config.Load(config.Options{ConfigPath: *configPath, DotEnvPath: *envPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.Logging.Format = "console"

	// Create logger
	logger, err := bootstrap.NewLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Pipeline.RequestTimeout)
	defer cancel()

	if *listVoices {
		if err := printVoices(ctx, cfg, logger); err != nil {
			logger.Fatal("Failed to list voices", zap.Error(err))
		}
		return
	}

	if *in == "" {
		fmt.Fprintln(os.Stderr, "usage: translate -in <file> [-from en] [-to es] [-out path] [-slow]")
		os.Exit(2)
	}

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer app.Close()

	result, err := app.Service.Run(ctx, entities.PipelineRequest{
		Audio:      entities.AudioAsset{Path: *in, Encoding: entities.EncodingFromPath(*in)},
		SourceLang: *from,
		TargetLang: *to,
		Slow:       *slow,
	}, usecase.WithStageObserver(func(ev entities.StageEvent) {
		fmt.Printf("[%6s] %s\n", ev.Elapsed.Round(time.Millisecond), ev.State)
	}))
	if err != nil {
		logger.Fatal("Translation failed", zap.Error(err))
	}

	outputFile := *out
	if outputFile == "" {
		outputFile = result.DownloadName
	}
	data := result.Audio.Data
	if len(data) == 0 {
		if data, err = os.ReadFile(result.Audio.Path); err != nil {
			logger.Fatal("Failed to read translated audio", zap.Error(err))
		}
	}
	if err := os.WriteFile(outputFile, data, 0o644); err != nil {
		logger.Fatal("Failed to write output file", zap.Error(err))
	}

	abs, _ := filepath.Abs(outputFile)
	fmt.Printf("\nTranscript:  %s\n", result.Transcript)
	fmt.Printf("Translation: %s\n", result.Translation)
	fmt.Printf("Audio saved to %s (%s, %d segments)\n", abs, result.Audio.Duration.Round(time.Millisecond), result.Segments)
}

func printVoices(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	client, err := bootstrap.NewElevenLabs(cfg, logger)
	if err != nil {
		return err
	}
	voices, err := client.ListVoices(ctx)
	if err != nil {
		return err
	}
	for _, v := range voices {
		fmt.Printf("%-24s %-20s %s\n", v.VoiceID, v.Name, v.Category)
	}
	return nil
}
