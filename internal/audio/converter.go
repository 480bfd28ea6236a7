package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/voxlate/domain"
	"github.com/satriahrh/voxlate/domain/entities"
	"github.com/satriahrh/voxlate/internal/workdir"
)

// SupportedInputEncodings lists the input formats accepted by Convert
var SupportedInputEncodings = []entities.Encoding{
	entities.EncodingMP3,
	entities.EncodingWAV,
	entities.EncodingM4A,
}

// IsSupportedInput reports whether path has a whitelisted extension
func IsSupportedInput(path string) bool {
	enc := entities.EncodingFromPath(path)
	for _, e := range SupportedInputEncodings {
		if enc == e {
			return true
		}
	}
	return false
}

// commandResult is the captured output of one process run
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec
type execRunner struct{}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// FormatConverter normalises input audio to 16 kHz mono PCM WAV
type FormatConverter struct {
	ffmpegPath string
	runner     commandRunner
	store      *workdir.Store
	logger     *zap.Logger
}

// NewFormatConverter writes converted files into store
func NewFormatConverter(ffmpegPath string, store *workdir.Store, logger *zap.Logger) *FormatConverter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FormatConverter{
		ffmpegPath: ffmpegPath,
		runner:     &execRunner{},
		store:      store,
		logger:     logger,
	}
}

// Convert produces a new canonical WAV asset from input. The original file is
// left in place. In-memory input without a path is staged to disk first.
func (c *FormatConverter) Convert(ctx context.Context, input entities.AudioAsset) (entities.AudioAsset, error) {
	path, err := c.locate(input)
	if err != nil {
		return entities.AudioAsset{}, err
	}

	name, partial := c.store.Stage("converted", entities.EncodingWAV.Extension())
	args := buildFFmpegArgs(path, partial)

	result, runErr := c.runner.Run(ctx, c.ffmpegPath, args...)
	if runErr != nil {
		c.store.Discard(name)
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.logger.Warn("ffmpeg conversion interrupted",
				zap.String("input", path),
				zap.Error(ctxErr))
			return entities.AudioAsset{}, domain.NewError(domain.CodeTranscriptionFailure, "audio conversion interrupted", ctxErr)
		}
		c.logger.Error("ffmpeg conversion failed",
			zap.String("input", path),
			zap.Int("exitCode", result.ExitCode),
			zap.String("stderr", lastLine(result.Stderr)),
			zap.Error(runErr))
		return entities.AudioAsset{}, domain.NewError(domain.CodeUnsupportedFormat,
			fmt.Sprintf("ffmpeg could not decode %s: %s", path, lastLine(result.Stderr)), runErr)
	}

	entry, err := c.store.Commit(name)
	if err != nil {
		c.store.Discard(name)
		return entities.AudioAsset{}, domain.NewError(domain.CodeUnsupportedFormat, "ffmpeg produced no output", err)
	}

	data, err := os.ReadFile(entry.Path())
	if err != nil {
		return entities.AudioAsset{}, domain.NewError(domain.CodeUnsupportedFormat, "failed to read converted audio", err)
	}
	info, err := ParseWAV(data)
	if err != nil {
		return entities.AudioAsset{}, domain.NewError(domain.CodeUnsupportedFormat, "converted audio is not valid WAV", err)
	}

	c.logger.Info("Audio converted",
		zap.String("input", path),
		zap.String("output", entry.Name),
		zap.Duration("duration", info.Duration))

	return entities.AudioAsset{
		Path:          entry.Path(),
		Data:          data,
		Encoding:      entities.EncodingWAV,
		SampleRate:    info.SampleRate,
		Channels:      info.Channels,
		BitsPerSample: info.BitsPerSample,
		Duration:      info.Duration,
	}, nil
}

// locate validates input and returns a readable path for ffmpeg
func (c *FormatConverter) locate(input entities.AudioAsset) (string, error) {
	if input.Path == "" {
		if !input.InMemory() {
			return "", domain.Errorf(domain.CodeMissingInput, "no input audio provided")
		}
		if !IsSupportedInput("upload" + input.Encoding.Extension()) {
			return "", domain.Errorf(domain.CodeUnsupportedFormat, "unsupported audio format: %q", input.Encoding)
		}
		entry, err := c.store.Write("upload", input.Encoding.Extension(), input.Data)
		if err != nil {
			return "", domain.NewError(domain.CodeMissingInput, "failed to stage uploaded audio", err)
		}
		return entry.Path(), nil
	}

	if !IsSupportedInput(input.Path) {
		return "", domain.Errorf(domain.CodeUnsupportedFormat, "unsupported audio format: %q", entities.EncodingFromPath(input.Path))
	}
	info, err := os.Stat(input.Path)
	if err != nil {
		return "", domain.NewError(domain.CodeMissingInput, fmt.Sprintf("cannot access input audio: %s", input.Path), err)
	}
	if info.IsDir() {
		return "", domain.Errorf(domain.CodeMissingInput, "input audio is a directory: %s", input.Path)
	}
	return input.Path, nil
}

// buildFFmpegArgs returns deterministic arguments for canonical conversion
func buildFFmpegArgs(inputPath, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"-fflags", "+bitexact",
		"-map_metadata", "-1",
		"-f", "wav",
		outputPath,
	}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
