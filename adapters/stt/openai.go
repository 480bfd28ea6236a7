package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/voxlate/domain/entities"
	"github.com/satriahrh/voxlate/domain/repositories"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "whisper-1"
)

// OpenAIConfig holds configuration for the OpenAI transcription adapter
// Required fields:
// - APIKey: OpenAI API key
// Optional fields with defaults:
// - BaseURL: API root (default: "https://api.openai.com/v1")
// - Model: transcription model (default: "whisper-1")
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAITranscriber implements Transcriber using audio.transcriptions
type OpenAITranscriber struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ repositories.Transcriber = (*OpenAITranscriber)(nil)

type openAITranscription struct {
	Text string `json:"text"`
}

// ValidateOpenAIConfig validates the OpenAIConfig
func ValidateOpenAIConfig(config OpenAIConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("openai API key is required")
	}
	return nil
}

// NewOpenAITranscriber creates a new OpenAI transcriber
func NewOpenAITranscriber(config OpenAIConfig, logger *zap.Logger) (*OpenAITranscriber, error) {
	if err := ValidateOpenAIConfig(config); err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
		logger.Info("Using default API base URL", zap.String("baseURL", baseURL))
	}

	model := config.Model
	if model == "" {
		model = defaultOpenAIModel
		logger.Info("Using default transcription model", zap.String("model", model))
	}

	return &OpenAITranscriber{
		apiKey:     config.APIKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		logger:     logger,
	}, nil
}

// Transcribe uploads the asset as multipart form data
func (o *OpenAITranscriber) Transcribe(ctx context.Context, asset entities.AudioAsset, languageHint string) (string, error) {
	data, err := readAsset(asset)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model", o.model); err != nil {
		return "", err
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", err
	}
	if languageHint != "" {
		if err := mw.WriteField("language", languageHint); err != nil {
			return "", err
		}
	}

	enc := asset.Encoding
	if enc == "" {
		enc = entities.EncodingWAV
	}
	fw, err := mw.CreateFormFile("file", "audio"+enc.Extension())
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("openai http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out openAITranscription
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", fmt.Errorf("no speech detected in audio")
	}

	o.logger.Info("Speech transcribed",
		zap.String("model", o.model),
		zap.String("language", languageHint),
		zap.Int("chars", len(text)))
	return text, nil
}
