package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/voxlate/adapters/llm"
	"github.com/satriahrh/voxlate/adapters/stt"
	"github.com/satriahrh/voxlate/adapters/tts"
	"github.com/satriahrh/voxlate/domain/repositories"
	"github.com/satriahrh/voxlate/internal/config"
)

// NewTranscriber constructs the configured speech recognizer. The returned
// close function is never nil.
func NewTranscriber(ctx context.Context, cfg config.Config, logger *zap.Logger) (repositories.Transcriber, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Providers.Transcriber {
	case config.ProviderGoogle:
		t, err := stt.NewGoogleTranscriber(ctx, stt.GoogleConfig{Model: cfg.Google.SpeechModel}, logger)
		if err != nil {
			return nil, noop, err
		}
		return t, t.Close, nil
	case config.ProviderOpenAI:
		t, err := stt.NewOpenAITranscriber(stt.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		return t, noop, nil
	case config.ProviderMock:
		return stt.NewMockTranscriber(logger), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown transcriber provider %q", cfg.Providers.Transcriber)
	}
}

// NewTranslator constructs the configured translator
func NewTranslator(ctx context.Context, cfg config.Config, logger *zap.Logger) (repositories.Translator, error) {
	switch cfg.Providers.Translator {
	case config.ProviderGemini:
		return llm.NewGeminiTranslator(ctx, llm.GeminiConfig{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.Model,
		}, logger)
	case config.ProviderMock:
		return llm.NewMockTranslator(logger), nil
	default:
		return nil, fmt.Errorf("unknown translator provider %q", cfg.Providers.Translator)
	}
}

// NewSynthesizer constructs the configured speech synthesizer
func NewSynthesizer(cfg config.Config, logger *zap.Logger) (repositories.Synthesizer, error) {
	switch cfg.Providers.Synthesizer {
	case config.ProviderElevenLabs:
		return NewElevenLabs(cfg, logger)
	case config.ProviderGoogleTranslate:
		return tts.NewGoogleTranslateTTS(cfg.GoogleTTS.BaseURL, logger), nil
	case config.ProviderMock:
		return tts.NewMockSynthesizer(logger), nil
	default:
		return nil, fmt.Errorf("unknown synthesizer provider %q", cfg.Providers.Synthesizer)
	}
}

// NewElevenLabs constructs the ElevenLabs client regardless of the selected
// synthesizer, e.g. for listing voices
func NewElevenLabs(cfg config.Config, logger *zap.Logger) (*tts.ElevenLabsTTS, error) {
	return tts.NewElevenLabsTTS(tts.ElevenLabsConfig{
		APIKey:       cfg.ElevenLabs.APIKey,
		APIBaseURL:   cfg.ElevenLabs.BaseURL,
		VoiceID:      cfg.ElevenLabs.VoiceID,
		ModelID:      cfg.ElevenLabs.ModelID,
		OutputFormat: cfg.ElevenLabs.OutputFormat,
		Stability:    cfg.ElevenLabs.Stability,
		Clarity:      cfg.ElevenLabs.Clarity,
	}, logger)
}
