package stt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/voxlate/domain/entities"
	"github.com/satriahrh/voxlate/domain/repositories"
)

// mockTranscripts are returned by language hint
var mockTranscripts = map[string]string{
	"en": "Hello world. How are you today?",
	"es": "Hola mundo. ¿Cómo estás hoy?",
	"fr": "Bonjour le monde. Comment allez-vous aujourd'hui ?",
	"de": "Hallo Welt. Wie geht es dir heute?",
}

// MockTranscriber is a placeholder implementation for speech recognition
type MockTranscriber struct {
	logger *zap.Logger
}

var _ repositories.Transcriber = (*MockTranscriber)(nil)

// NewMockTranscriber creates a new mock transcriber
func NewMockTranscriber(logger *zap.Logger) *MockTranscriber {
	return &MockTranscriber{logger: logger}
}

// Transcribe returns a canned sentence in the hinted language
func (m *MockTranscriber) Transcribe(ctx context.Context, asset entities.AudioAsset, languageHint string) (string, error) {
	if !asset.InMemory() && asset.Path == "" {
		return "", fmt.Errorf("no audio data received")
	}

	text, ok := mockTranscripts[languageHint]
	if !ok {
		text = mockTranscripts["en"]
	}

	m.logger.Info("Mock transcription",
		zap.String("language", languageHint),
		zap.Duration("duration", asset.Duration),
		zap.String("result", text))
	return text, nil
}
