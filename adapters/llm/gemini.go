package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/voxlate/domain/entities"
	"github.com/satriahrh/voxlate/domain/repositories"
)

const (
	defaultModel          = "gemini-2.0-flash"
	defaultTemperature    = 0.1
	defaultTimeoutSeconds = 30
)

const translatePrompt = `You are a professional translator. Translate the user's text from %s to %s.
Keep sentence punctuation so every sentence still ends with . ! ? or 。 where appropriate.
Reply with the translation only, without quotes, notes or explanations.`

const detectPrompt = `Identify the language of the user's text.
Reply with its two-letter ISO 639-1 code only, in lowercase. Reply "unknown" if unsure.`

// contentGenerator is the subset of genai.Models used by the translator
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig holds configuration for the Gemini translator
// Required fields:
// - APIKey: Google AI API key
// Optional fields with defaults:
// - Model: model name (default: "gemini-2.0-flash")
// - Temperature: sampling temperature between 0 and 1 (default: 0.1)
// - TimeoutSeconds: per-request timeout (default: 30)
type GeminiConfig struct {
	APIKey         string
	Model          string
	Temperature    float32
	TimeoutSeconds int
}

// GeminiTranslator implements Translator and LanguageDetector with Gemini
type GeminiTranslator struct {
	models      contentGenerator
	model       string
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

var (
	_ repositories.Translator       = (*GeminiTranslator)(nil)
	_ repositories.LanguageDetector = (*GeminiTranslator)(nil)
)

// ValidateGeminiConfig validates the GeminiConfig
func ValidateGeminiConfig(config GeminiConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("Google AI API key is required")
	}
	if config.Temperature != 0 && (config.Temperature < 0 || config.Temperature > 1) {
		return fmt.Errorf("temperature must be between 0 and 1, got %f", config.Temperature)
	}
	if config.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must be positive, got %d", config.TimeoutSeconds)
	}
	return nil
}

// NewGeminiTranslator creates a Gemini API client and wraps it
func NewGeminiTranslator(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiTranslator, error) {
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return newGeminiTranslator(client.Models, config, logger), nil
}

func newGeminiTranslator(models contentGenerator, config GeminiConfig, logger *zap.Logger) *GeminiTranslator {
	model := config.Model
	if model == "" {
		model = defaultModel
		logger.Info("Using default model", zap.String("model", model))
	}

	temperature := config.Temperature
	if temperature == 0 {
		temperature = float32(defaultTemperature)
		logger.Info("Using default temperature", zap.Float32("temperature", temperature))
	}

	timeoutSeconds := config.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = defaultTimeoutSeconds
		logger.Info("Using default timeoutSeconds", zap.Int("timeoutSeconds", timeoutSeconds))
	}

	return &GeminiTranslator{
		models:      models,
		model:       model,
		temperature: temperature,
		timeout:     time.Duration(timeoutSeconds) * time.Second,
		logger:      logger,
	}
}

// Translate returns text rendered in targetLang
func (g *GeminiTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("text cannot be empty")
	}

	prompt := fmt.Sprintf(translatePrompt, languageName(sourceLang), languageName(targetLang))
	translation, err := g.generate(ctx, prompt, text)
	if err != nil {
		return "", err
	}

	g.logger.Info("Text translated",
		zap.String("from", sourceLang),
		zap.String("to", targetLang),
		zap.Int("inputChars", len(text)),
		zap.Int("outputChars", len(translation)))
	return translation, nil
}

// DetectLanguage returns a supported two-letter code, or "" when the model
// is unsure or names a language outside the supported table
func (g *GeminiTranslator) DetectLanguage(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	answer, err := g.generate(ctx, detectPrompt, text)
	if err != nil {
		return "", err
	}

	code := strings.ToLower(strings.Trim(strings.TrimSpace(answer), `."'`))
	if !entities.IsSupportedLanguage(code) {
		g.logger.Debug("Detected language is not supported", zap.String("answer", answer))
		return "", nil
	}
	return code, nil
}

func (g *GeminiTranslator) generate(ctx context.Context, instruction, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
	}
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	response, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if response == nil || len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content generated")
	}

	var b strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return out, nil
}

func languageName(code string) string {
	if lang, ok := entities.LookupLanguage(code); ok {
		return lang.Name
	}
	return code
}
