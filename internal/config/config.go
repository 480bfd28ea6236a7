// Package config resolves the service configuration once at start-up from,
// in increasing precedence: built-in defaults, a YAML file, a dotenv file
// and the process environment. The result is a plain value.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/satriahrh/voxlate/internal/workdir"
)

// Provider names accepted in ProvidersConfig
const (
	ProviderMock            = "mock"
	ProviderGoogle          = "google"
	ProviderOpenAI          = "openai"
	ProviderGemini          = "gemini"
	ProviderElevenLabs      = "elevenlabs"
	ProviderGoogleTranslate = "googletranslate"
)

// Config represents the complete service configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Storage    StorageConfig    `yaml:"storage"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Google     GoogleConfig     `yaml:"google"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs"`
	GoogleTTS  GoogleTTSConfig  `yaml:"google_tts"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Address         string        `yaml:"address"`
	Port            int           `yaml:"port"`
	MaxUploadMB     int           `yaml:"max_upload_mb"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig locates the working directories and bounds their content
type StorageConfig struct {
	InputDir      string              `yaml:"input_dir"`
	OutputDir     string              `yaml:"output_dir"`
	SweepInterval time.Duration       `yaml:"sweep_interval"`
	Sweep         workdir.SweepPolicy `yaml:"sweep"`
}

// PipelineConfig tunes the translation pipeline
type PipelineConfig struct {
	FFmpegPath           string        `yaml:"ffmpeg_path"`
	MaxSegmentChars      int           `yaml:"max_segment_chars"`
	SynthesisConcurrency int           `yaml:"synthesis_concurrency"`
	RequestTimeout       time.Duration `yaml:"request_timeout"`
}

// ProvidersConfig selects one implementation per capability
type ProvidersConfig struct {
	Transcriber string `yaml:"transcriber"`
	Translator  string `yaml:"translator"`
	Synthesizer string `yaml:"synthesizer"`
}

// GoogleConfig configures Google Cloud Speech. Credentials come from the
// standard application default credentials lookup.
type GoogleConfig struct {
	SpeechModel string `yaml:"speech_model"`
}

// OpenAIConfig configures the Whisper transcription API
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// GeminiConfig configures the Gemini translator
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// ElevenLabsConfig configures ElevenLabs synthesis
type ElevenLabsConfig struct {
	APIKey       string  `yaml:"api_key"`
	BaseURL      string  `yaml:"base_url"`
	VoiceID      string  `yaml:"voice_id"`
	ModelID      string  `yaml:"model_id"`
	OutputFormat string  `yaml:"output_format"`
	Stability    float64 `yaml:"stability"`
	Clarity      float64 `yaml:"clarity"`
}

// GoogleTTSConfig configures the Google Translate speech endpoint
type GoogleTTSConfig struct {
	BaseURL string `yaml:"base_url"`
}

// Default returns the built-in configuration: mock providers, local
// working directories and the eviction defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:         "0.0.0.0",
			Port:            8080,
			MaxUploadMB:     25,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Storage: StorageConfig{
			InputDir:      "temp/input",
			OutputDir:     "temp/output",
			SweepInterval: 10 * time.Minute,
			Sweep:         workdir.DefaultSweepPolicy(),
		},
		Pipeline: PipelineConfig{
			FFmpegPath:           "ffmpeg",
			MaxSegmentChars:      200,
			SynthesisConcurrency: 1,
			RequestTimeout:       2 * time.Minute,
		},
		Providers: ProvidersConfig{
			Transcriber: ProviderMock,
			Translator:  ProviderMock,
			Synthesizer: ProviderMock,
		},
	}
}

// Options locate the optional file sources
type Options struct {
	// ConfigPath is a YAML file; empty skips the layer, a missing file is an error
	ConfigPath string
	// DotEnvPath is a dotenv file; a missing file is skipped
	DotEnvPath string
}

// Load resolves the configuration from every source and validates it
func Load(opts Options) (Config, error) {
	return load(opts, os.LookupEnv)
}

func load(opts Options, lookupEnv func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if opts.ConfigPath != "" {
		data, err := os.ReadFile(opts.ConfigPath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", opts.ConfigPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", opts.ConfigPath, err)
		}
	}

	if opts.DotEnvPath != "" {
		values, err := godotenv.Read(opts.DotEnvPath)
		switch {
		case err == nil:
			if err := applyEnv(&cfg, mapLookup(values)); err != nil {
				return Config{}, fmt.Errorf("dotenv %s: %w", opts.DotEnvPath, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("failed to read dotenv file %s: %w", opts.DotEnvPath, err)
		}
	}

	if err := applyEnv(&cfg, lookupEnv); err != nil {
		return Config{}, fmt.Errorf("environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the merged configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("max_upload_mb must be at least 1, got %d", c.Server.MaxUploadMB)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging format must be json or console, got %q", c.Logging.Format)
	}

	if strings.TrimSpace(c.Storage.InputDir) == "" || strings.TrimSpace(c.Storage.OutputDir) == "" {
		return fmt.Errorf("input_dir and output_dir are required")
	}
	if c.Storage.Sweep.MaxAgeHours < 0 {
		return fmt.Errorf("max_age_hours cannot be negative, got %d", c.Storage.Sweep.MaxAgeHours)
	}

	if c.Pipeline.MaxSegmentChars < 1 {
		return fmt.Errorf("max_segment_chars must be at least 1, got %d", c.Pipeline.MaxSegmentChars)
	}
	if c.Pipeline.SynthesisConcurrency < 1 {
		return fmt.Errorf("synthesis_concurrency must be at least 1, got %d", c.Pipeline.SynthesisConcurrency)
	}

	if err := oneOf("transcriber", c.Providers.Transcriber, ProviderMock, ProviderGoogle, ProviderOpenAI); err != nil {
		return err
	}
	if err := oneOf("translator", c.Providers.Translator, ProviderMock, ProviderGemini); err != nil {
		return err
	}
	if err := oneOf("synthesizer", c.Providers.Synthesizer, ProviderMock, ProviderElevenLabs, ProviderGoogleTranslate); err != nil {
		return err
	}

	if c.Providers.Transcriber == ProviderOpenAI && c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai api_key is required for the openai transcriber")
	}
	if c.Providers.Translator == ProviderGemini && c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini api_key is required for the gemini translator")
	}
	if c.Providers.Synthesizer == ProviderElevenLabs && c.ElevenLabs.APIKey == "" {
		return fmt.Errorf("elevenlabs api_key is required for the elevenlabs synthesizer")
	}

	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s provider must be one of %s, got %q", field, strings.Join(allowed, ", "), value)
}
