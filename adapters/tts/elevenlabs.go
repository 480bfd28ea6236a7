package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/voxlate/domain/entities"
	"github.com/satriahrh/voxlate/domain/repositories"
	"github.com/satriahrh/voxlate/internal/audio"
)

const (
	defaultAPIBaseURL   = "https://api.elevenlabs.io/v1"
	defaultVoiceID      = "21m00Tcm4TlvDq8ikWAM"   // Rachel voice
	defaultOutputFormat = "pcm_16000"              // Matches the canonical encoding
	defaultModelID      = "eleven_multilingual_v2" // Default model ID
	defaultStability    = 0.5                      // Default voice stability
	defaultClarity      = 0.75                     // Default voice clarity/similarity_boost
	slowSpeed           = 0.8
)

// modelsWithLanguageCode accept an explicit language_code
var modelsWithLanguageCode = map[string]bool{
	"eleven_turbo_v2_5": true,
	"eleven_flash_v2_5": true,
}

// ElevenLabsConfig holds configuration for the ElevenLabsTTS adapter
// Required fields:
// - APIKey: Your Eleven Labs API key
// Optional fields with defaults:
// - APIBaseURL: The base URL for the Eleven Labs API (default: "https://api.elevenlabs.io/v1")
// - VoiceID: The voice ID to use (default: "21m00Tcm4TlvDq8ikWAM" - Rachel voice)
// - ModelID: The model ID to use (default: "eleven_multilingual_v2")
// - OutputFormat: "pcm_<rate>" or "mp3_<rate>_<kbps>" (default: "pcm_16000")
// - Stability: Voice stability value between 0 and 1 (default: 0.5)
// - Clarity: Voice clarity/similarity boost value between 0 and 1 (default: 0.75)
type ElevenLabsConfig struct {
	APIKey       string  // Required: Your Eleven Labs API key
	APIBaseURL   string  // Optional: The base URL for the Eleven Labs API
	VoiceID      string  // Optional: The voice ID to use
	ModelID      string  // Optional: The model ID to use
	OutputFormat string  // Optional: The output format
	Stability    float64 // Optional: Voice stability value between 0 and 1
	Clarity      float64 // Optional: Voice clarity/similarity boost value between 0 and 1
}

// ElevenLabsTTS implements Synthesizer using the Eleven Labs API
type ElevenLabsTTS struct {
	apiKey       string
	apiBaseURL   string
	modelID      string
	outputFormat string
	httpClient   *http.Client
	logger       *zap.Logger

	mu        sync.RWMutex
	voiceID   string
	stability float64
	clarity   float64
}

var _ repositories.Synthesizer = (*ElevenLabsTTS)(nil)

// ElevenLabsVoiceSettings represents voice settings for Eleven Labs API
type ElevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style,omitempty"`
	UseSpeakerBoost bool    `json:"use_speaker_boost,omitempty"`
	Speed           float64 `json:"speed,omitempty"`
}

// ElevenLabsRequest represents the request payload for Eleven Labs TTS API
type ElevenLabsRequest struct {
	Text                   string                  `json:"text"`
	ModelID                string                  `json:"model_id"`
	LanguageCode           string                  `json:"language_code,omitempty"`
	VoiceSettings          ElevenLabsVoiceSettings `json:"voice_settings"`
	ApplyTextNormalization string                  `json:"apply_text_normalization,omitempty"`
}

// Voice is an entry returned by ListVoices
type Voice struct {
	VoiceID  string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// ValidateElevenLabsConfig validates the ElevenLabsConfig
func ValidateElevenLabsConfig(config ElevenLabsConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("eleven labs API key is required")
	}

	if config.Stability != 0 && (config.Stability < 0 || config.Stability > 1) {
		return fmt.Errorf("stability must be between 0 and 1, got %f", config.Stability)
	}

	if config.Clarity != 0 && (config.Clarity < 0 || config.Clarity > 1) {
		return fmt.Errorf("clarity must be between 0 and 1, got %f", config.Clarity)
	}

	if config.OutputFormat != "" {
		if _, _, err := parseOutputFormat(config.OutputFormat); err != nil {
			return err
		}
	}

	return nil
}

// NewElevenLabsTTS creates a new Eleven Labs TTS instance
func NewElevenLabsTTS(config ElevenLabsConfig, logger *zap.Logger) (*ElevenLabsTTS, error) {
	if err := ValidateElevenLabsConfig(config); err != nil {
		return nil, err
	}

	apiBaseURL := strings.TrimRight(config.APIBaseURL, "/")
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
		logger.Info("Using default API base URL", zap.String("apiBaseURL", apiBaseURL))
	}

	voiceID := config.VoiceID
	if voiceID == "" {
		voiceID = defaultVoiceID
		logger.Info("Using default voice ID", zap.String("voiceID", voiceID))
	}

	modelID := config.ModelID
	if modelID == "" {
		modelID = defaultModelID
		logger.Info("Using default model ID", zap.String("modelID", modelID))
	}

	outputFormat := config.OutputFormat
	if outputFormat == "" {
		outputFormat = defaultOutputFormat
		logger.Info("Using default output format", zap.String("outputFormat", outputFormat))
	}

	stability := config.Stability
	if stability == 0 {
		stability = defaultStability
		logger.Info("Using default stability", zap.Float64("stability", stability))
	}

	clarity := config.Clarity
	if clarity == 0 {
		clarity = defaultClarity
		logger.Info("Using default clarity", zap.Float64("clarity", clarity))
	}

	return &ElevenLabsTTS{
		apiKey:       config.APIKey,
		apiBaseURL:   apiBaseURL,
		voiceID:      voiceID,
		modelID:      modelID,
		outputFormat: outputFormat,
		stability:    stability,
		clarity:      clarity,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		logger:       logger,
	}, nil
}

// Synthesize converts one segment of text to speech. PCM output is wrapped
// in a WAV header; MP3 output is returned as is.
func (e *ElevenLabsTTS) Synthesize(ctx context.Context, text, languageCode string, slow bool) (entities.AudioAsset, error) {
	if strings.TrimSpace(text) == "" {
		return entities.AudioAsset{}, fmt.Errorf("text cannot be empty")
	}

	e.mu.RLock()
	voiceID, stability, clarity := e.voiceID, e.stability, e.clarity
	e.mu.RUnlock()

	request := ElevenLabsRequest{
		Text:                   text,
		ModelID:                e.modelID,
		ApplyTextNormalization: "auto",
		VoiceSettings: ElevenLabsVoiceSettings{
			Stability:       stability,
			SimilarityBoost: clarity,
			UseSpeakerBoost: true,
		},
	}
	if modelsWithLanguageCode[e.modelID] {
		request.LanguageCode = languageCode
	}
	if slow {
		request.VoiceSettings.Speed = slowSpeed
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return entities.AudioAsset{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s&enable_logging=false",
		e.apiBaseURL, voiceID, e.outputFormat)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
	if err != nil {
		return entities.AudioAsset{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	encoding, sampleRate, _ := parseOutputFormat(e.outputFormat)
	acceptHeader := "audio/mpeg"
	if encoding == entities.EncodingWAV {
		acceptHeader = "audio/pcm"
	}
	httpReq.Header.Set("Accept", acceptHeader)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", e.apiKey)

	e.logger.Debug("Sending request to Eleven Labs API",
		zap.String("voiceID", voiceID),
		zap.String("language", languageCode),
		zap.Int("chars", len(text)))

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return entities.AudioAsset{}, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return entities.AudioAsset{}, fmt.Errorf("API returned error %d: %s", resp.StatusCode, strings.TrimSpace(string(errorBody)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return entities.AudioAsset{}, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(body) == 0 {
		return entities.AudioAsset{}, fmt.Errorf("no audio data received")
	}

	asset, err := e.toAsset(body, encoding, sampleRate)
	if err != nil {
		return entities.AudioAsset{}, err
	}

	e.logger.Info("Segment synthesized",
		zap.String("voiceID", voiceID),
		zap.String("language", languageCode),
		zap.Int("bytes", len(asset.Data)),
		zap.Duration("duration", asset.Duration))
	return asset, nil
}

func (e *ElevenLabsTTS) toAsset(body []byte, encoding entities.Encoding, sampleRate int) (entities.AudioAsset, error) {
	if encoding == entities.EncodingMP3 {
		duration, err := audio.MP3Duration(body)
		if err != nil {
			return entities.AudioAsset{}, fmt.Errorf("invalid MP3 from provider: %w", err)
		}
		return entities.AudioAsset{Data: body, Encoding: entities.EncodingMP3, SampleRate: sampleRate, Duration: duration}, nil
	}

	wav, err := audio.EncodeWAV(body, sampleRate, 1, 16)
	if err != nil {
		return entities.AudioAsset{}, err
	}
	info, err := audio.ParseWAV(wav)
	if err != nil {
		return entities.AudioAsset{}, err
	}
	return entities.AudioAsset{
		Data:          wav,
		Encoding:      entities.EncodingWAV,
		SampleRate:    info.SampleRate,
		Channels:      info.Channels,
		BitsPerSample: info.BitsPerSample,
		Duration:      info.Duration,
	}, nil
}

// SetVoiceSettings allows customization of voice parameters
func (e *ElevenLabsTTS) SetVoiceSettings(stability, clarity float64) {
	e.mu.Lock()
	e.stability = stability
	e.clarity = clarity
	e.mu.Unlock()
	e.logger.Info("Updated voice settings",
		zap.Float64("stability", stability),
		zap.Float64("clarity", clarity))
}

// SetVoiceID allows changing the voice used for TTS
func (e *ElevenLabsTTS) SetVoiceID(voiceID string) {
	e.mu.Lock()
	e.voiceID = voiceID
	e.mu.Unlock()
	e.logger.Info("Updated voice ID", zap.String("voiceID", voiceID))
}

// ListVoices retrieves available voices from Eleven Labs API
func (e *ElevenLabsTTS) ListVoices(ctx context.Context) ([]Voice, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, e.apiBaseURL+"/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API returned error %d: %s", resp.StatusCode, string(errorBody))
	}

	var voicesResponse struct {
		Voices []Voice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&voicesResponse); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	e.logger.Info("Retrieved available voices", zap.Int("count", len(voicesResponse.Voices)))
	return voicesResponse.Voices, nil
}

// parseOutputFormat maps "pcm_16000" or "mp3_44100_128" to an encoding and
// sample rate
func parseOutputFormat(format string) (entities.Encoding, int, error) {
	parts := strings.Split(format, "_")
	if len(parts) < 2 {
		return "", 0, fmt.Errorf("unsupported output format: %q", format)
	}
	rate, err := strconv.Atoi(parts[1])
	if err != nil || rate <= 0 {
		return "", 0, fmt.Errorf("unsupported output format: %q", format)
	}
	switch parts[0] {
	case "pcm":
		return entities.EncodingWAV, rate, nil
	case "mp3":
		return entities.EncodingMP3, rate, nil
	default:
		return "", 0, fmt.Errorf("unsupported output format: %q", format)
	}
}
