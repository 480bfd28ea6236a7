package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// envBinding maps one variable onto a field of Config
type envBinding struct {
	keys []string
	set  func(c *Config, value string) error
}

// envBindings lists every variable understood by the env and dotenv layers.
// When several keys are given the first one present wins.
var envBindings = []envBinding{
	{[]string{"VOXLATE_ADDRESS"}, setString(func(c *Config) *string { return &c.Server.Address })},
	{[]string{"VOXLATE_PORT", "PORT"}, setInt(func(c *Config) *int { return &c.Server.Port })},
	{[]string{"VOXLATE_MAX_UPLOAD_MB"}, setInt(func(c *Config) *int { return &c.Server.MaxUploadMB })},
	{[]string{"VOXLATE_SHUTDOWN_TIMEOUT"}, setDuration(func(c *Config) *time.Duration { return &c.Server.ShutdownTimeout })},

	{[]string{"VOXLATE_LOG_LEVEL", "LOG_LEVEL"}, setString(func(c *Config) *string { return &c.Logging.Level })},
	{[]string{"VOXLATE_LOG_FORMAT"}, setString(func(c *Config) *string { return &c.Logging.Format })},

	{[]string{"VOXLATE_INPUT_DIR"}, setString(func(c *Config) *string { return &c.Storage.InputDir })},
	{[]string{"VOXLATE_OUTPUT_DIR"}, setString(func(c *Config) *string { return &c.Storage.OutputDir })},
	{[]string{"VOXLATE_SWEEP_INTERVAL"}, setDuration(func(c *Config) *time.Duration { return &c.Storage.SweepInterval })},
	{[]string{"VOXLATE_MAX_FILES"}, setInt(func(c *Config) *int { return &c.Storage.Sweep.MaxFiles })},
	{[]string{"VOXLATE_MAX_AGE_HOURS"}, setInt(func(c *Config) *int { return &c.Storage.Sweep.MaxAgeHours })},
	{[]string{"VOXLATE_ENFORCE_MAX_AGE"}, setBool(func(c *Config) *bool { return &c.Storage.Sweep.EnforceMaxAge })},

	{[]string{"VOXLATE_FFMPEG_PATH", "FFMPEG_PATH"}, setString(func(c *Config) *string { return &c.Pipeline.FFmpegPath })},
	{[]string{"VOXLATE_MAX_SEGMENT_CHARS"}, setInt(func(c *Config) *int { return &c.Pipeline.MaxSegmentChars })},
	{[]string{"VOXLATE_SYNTHESIS_CONCURRENCY"}, setInt(func(c *Config) *int { return &c.Pipeline.SynthesisConcurrency })},
	{[]string{"VOXLATE_REQUEST_TIMEOUT"}, setDuration(func(c *Config) *time.Duration { return &c.Pipeline.RequestTimeout })},

	{[]string{"VOXLATE_TRANSCRIBER"}, setString(func(c *Config) *string { return &c.Providers.Transcriber })},
	{[]string{"VOXLATE_TRANSLATOR"}, setString(func(c *Config) *string { return &c.Providers.Translator })},
	{[]string{"VOXLATE_SYNTHESIZER"}, setString(func(c *Config) *string { return &c.Providers.Synthesizer })},

	{[]string{"GOOGLE_SPEECH_MODEL"}, setString(func(c *Config) *string { return &c.Google.SpeechModel })},

	{[]string{"OPENAI_API_KEY"}, setString(func(c *Config) *string { return &c.OpenAI.APIKey })},
	{[]string{"OPENAI_BASE_URL"}, setString(func(c *Config) *string { return &c.OpenAI.BaseURL })},
	{[]string{"OPENAI_TRANSCRIBE_MODEL"}, setString(func(c *Config) *string { return &c.OpenAI.Model })},

	{[]string{"GEMINI_API_KEY"}, setString(func(c *Config) *string { return &c.Gemini.APIKey })},
	{[]string{"GEMINI_MODEL"}, setString(func(c *Config) *string { return &c.Gemini.Model })},

	{[]string{"ELEVEN_LABS_API_KEY"}, setString(func(c *Config) *string { return &c.ElevenLabs.APIKey })},
	{[]string{"ELEVEN_LABS_API_BASE_URL"}, setString(func(c *Config) *string { return &c.ElevenLabs.BaseURL })},
	{[]string{"ELEVEN_LABS_VOICE_ID"}, setString(func(c *Config) *string { return &c.ElevenLabs.VoiceID })},
	{[]string{"ELEVEN_LABS_MODEL_ID"}, setString(func(c *Config) *string { return &c.ElevenLabs.ModelID })},
	{[]string{"ELEVEN_LABS_OUTPUT_FORMAT"}, setString(func(c *Config) *string { return &c.ElevenLabs.OutputFormat })},
	{[]string{"ELEVEN_LABS_STABILITY"}, setFloat(func(c *Config) *float64 { return &c.ElevenLabs.Stability })},
	{[]string{"ELEVEN_LABS_CLARITY"}, setFloat(func(c *Config) *float64 { return &c.ElevenLabs.Clarity })},

	{[]string{"GOOGLE_TTS_BASE_URL"}, setString(func(c *Config) *string { return &c.GoogleTTS.BaseURL })},
}

// applyEnv overlays every bound variable found by lookup onto c.
// Empty values are ignored.
func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		for _, key := range b.keys {
			value, ok := lookup(key)
			if !ok || strings.TrimSpace(value) == "" {
				continue
			}
			if err := b.set(c, strings.TrimSpace(value)); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			break
		}
	}
	return nil
}

func mapLookup(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func setInt(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer %q", v)
		}
		*field(c) = n
		return nil
	}
}

func setFloat(field func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", v)
		}
		*field(c) = f
		return nil
	}
}

func setBool(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", v)
		}
		*field(c) = b
		return nil
	}
}

// setDuration accepts Go duration strings or a bare number of seconds
func setDuration(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		if secs, err := strconv.Atoi(v); err == nil {
			*field(c) = time.Duration(secs) * time.Second
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q", v)
		}
		*field(c) = d
		return nil
	}
}
