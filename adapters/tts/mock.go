package tts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/voxlate/domain/entities"
	"github.com/satriahrh/voxlate/domain/repositories"
	"github.com/satriahrh/voxlate/internal/audio"
)

// toneFrequencies gives every language an audibly different pitch
var toneFrequencies = map[string]float64{
	"en": 440, "es": 494, "fr": 523, "de": 587, "it": 659, "pt": 698,
	"nl": 784, "ru": 880, "ja": 988, "ko": 1047, "zh": 1175,
}

// MockSynthesizer renders a fixed-length sine tone per segment
type MockSynthesizer struct {
	segmentDuration time.Duration
	logger          *zap.Logger
}

var _ repositories.Synthesizer = (*MockSynthesizer)(nil)

// NewMockSynthesizer creates a mock producing one second of audio per call
func NewMockSynthesizer(logger *zap.Logger) *MockSynthesizer {
	return &MockSynthesizer{segmentDuration: time.Second, logger: logger}
}

// Synthesize returns a canonical WAV tone; slow speech doubles its length
func (m *MockSynthesizer) Synthesize(ctx context.Context, text, languageCode string, slow bool) (entities.AudioAsset, error) {
	if strings.TrimSpace(text) == "" {
		return entities.AudioAsset{}, fmt.Errorf("text cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return entities.AudioAsset{}, err
	}

	freq, ok := toneFrequencies[languageCode]
	if !ok {
		freq = 440
	}
	duration := m.segmentDuration
	if slow {
		duration *= 2
	}

	data, err := audio.ToneWAV(freq, duration)
	if err != nil {
		return entities.AudioAsset{}, err
	}

	m.logger.Debug("Mock synthesis",
		zap.String("language", languageCode),
		zap.Int("chars", len(text)),
		zap.Duration("duration", duration))

	return entities.AudioAsset{
		Data:          data,
		Encoding:      entities.EncodingWAV,
		SampleRate:    audio.CanonicalSampleRate,
		Channels:      audio.CanonicalChannels,
		BitsPerSample: audio.CanonicalBitsPerSample,
		Duration:      duration,
	}, nil
}
