package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"

	"github.com/satriahrh/voxlate/domain/entities"
	"github.com/satriahrh/voxlate/domain/repositories"
	"github.com/satriahrh/voxlate/internal/audio"
)

const (
	defaultGoogleModel  = "default"
	defaultGoogleLocale = "en-US"
)

// recognizer is the subset of the speech client used by the transcriber
type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

// GoogleConfig holds configuration for the Google Cloud Speech adapter.
// Credentials are resolved by the client library (GOOGLE_APPLICATION_CREDENTIALS
// or the metadata server).
type GoogleConfig struct {
	Model string // Optional: recognition model (default: "default")
}

// GoogleTranscriber implements Transcriber with synchronous Google Cloud
// Speech recognition. Audio is expected in the canonical 16 kHz mono WAV.
type GoogleTranscriber struct {
	client recognizer
	model  string
	logger *zap.Logger
}

var _ repositories.Transcriber = (*GoogleTranscriber)(nil)

// NewGoogleTranscriber dials the speech service
func NewGoogleTranscriber(ctx context.Context, config GoogleConfig, logger *zap.Logger) (*GoogleTranscriber, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return newGoogleTranscriber(client, config, logger), nil
}

func newGoogleTranscriber(client recognizer, config GoogleConfig, logger *zap.Logger) *GoogleTranscriber {
	model := config.Model
	if model == "" {
		model = defaultGoogleModel
		logger.Info("Using default speech model", zap.String("model", model))
	}
	return &GoogleTranscriber{client: client, model: model, logger: logger}
}

// Transcribe sends the whole asset in one Recognize call and joins the best
// alternative of every result
func (g *GoogleTranscriber) Transcribe(ctx context.Context, asset entities.AudioAsset, languageHint string) (string, error) {
	data, err := readAsset(asset)
	if err != nil {
		return "", err
	}
	pcm, info, err := audio.PCM(data)
	if err != nil {
		return "", fmt.Errorf("expected WAV input: %w", err)
	}

	locale := defaultGoogleLocale
	if lang, ok := entities.LookupLanguage(languageHint); ok {
		locale = lang.Locale
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            int32(info.SampleRate),
			AudioChannelCount:          int32(info.Channels),
			LanguageCode:               locale,
			Model:                      g.model,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: pcm},
		},
	}

	g.logger.Debug("Sending recognize request",
		zap.String("locale", locale),
		zap.Int("bytes", len(pcm)),
		zap.Duration("duration", info.Duration))

	resp, err := g.client.Recognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to recognize speech: %w", err)
	}

	var parts []string
	for _, result := range resp.GetResults() {
		if alts := result.GetAlternatives(); len(alts) > 0 {
			if text := strings.TrimSpace(alts[0].GetTranscript()); text != "" {
				parts = append(parts, text)
			}
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no speech detected in audio")
	}

	transcript := strings.Join(parts, " ")
	g.logger.Info("Speech recognized",
		zap.String("locale", locale),
		zap.Int("results", len(parts)),
		zap.Int("chars", len(transcript)))
	return transcript, nil
}

// Close releases the underlying client
func (g *GoogleTranscriber) Close() error {
	return g.client.Close()
}
