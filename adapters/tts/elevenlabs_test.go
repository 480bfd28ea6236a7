package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/voxlate/domain/entities"
)

// mp3Frames builds MPEG-1 Layer III frames at 128 kbps / 48 kHz (24ms each)
func mp3Frames(n int) []byte {
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		frame := make([]byte, 384)
		copy(frame, []byte{0xFF, 0xFB, 0x94, 0xC4})
		buf.Write(frame)
	}
	return buf.Bytes()
}

func TestNewElevenLabsTTS(t *testing.T) {
	logger := zaptest.NewLogger(t)

	// Test without API key
	_, err := NewElevenLabsTTS(ElevenLabsConfig{}, logger)
	if err == nil {
		t.Error("Expected error when API key is not set")
	}

	tts, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "test-api-key"}, logger)
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	if tts.apiKey != "test-api-key" {
		t.Errorf("Expected API key 'test-api-key', got '%s'", tts.apiKey)
	}

	if tts.voiceID != defaultVoiceID {
		t.Errorf("Expected default voice ID '%s', got '%s'", defaultVoiceID, tts.voiceID)
	}

	if _, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "k", OutputFormat: "ogg_opus"}, logger); err == nil {
		t.Error("Expected error for unsupported output format")
	}
}

func TestElevenLabsTTS_SetVoiceSettings(t *testing.T) {
	tts, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "test-api-key"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	tts.SetVoiceSettings(0.8, 0.9)

	if tts.stability != 0.8 {
		t.Errorf("Expected stability 0.8, got %f", tts.stability)
	}

	if tts.clarity != 0.9 {
		t.Errorf("Expected clarity 0.9, got %f", tts.clarity)
	}

	tts.SetVoiceID("new-voice-id")
	if tts.voiceID != "new-voice-id" {
		t.Errorf("Expected voice ID 'new-voice-id', got '%s'", tts.voiceID)
	}
}

func TestElevenLabsTTS_Synthesize_EmptyText(t *testing.T) {
	tts, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "test-api-key"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	ctx := context.Background()
	if _, err = tts.Synthesize(ctx, "", "en", false); err == nil {
		t.Error("Expected error for empty text")
	}
	if _, err = tts.Synthesize(ctx, "   ", "en", false); err == nil {
		t.Error("Expected error for whitespace-only text")
	}
}

func TestElevenLabsTTS_Synthesize_PCM(t *testing.T) {
	var got ElevenLabsRequest
	var gotFormat string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "test-api-key" || r.URL.Path != "/text-to-speech/voice-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		gotFormat = r.URL.Query().Get("output_format")
		_ = json.NewDecoder(r.Body).Decode(&got)
		// half a second of 16 kHz mono silence
		_, _ = w.Write(make([]byte, 16000))
	}))
	defer server.Close()

	tts, err := NewElevenLabsTTS(ElevenLabsConfig{
		APIKey:     "test-api-key",
		APIBaseURL: server.URL,
		VoiceID:    "voice-1",
		ModelID:    "eleven_flash_v2_5",
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	asset, err := tts.Synthesize(context.Background(), "hola mundo.", "es", true)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if asset.Encoding != entities.EncodingWAV || asset.Duration != 500*time.Millisecond {
		t.Errorf("Unexpected asset: %s %s", asset.Encoding, asset.Duration)
	}
	if gotFormat != "pcm_16000" {
		t.Errorf("Expected pcm_16000, got %q", gotFormat)
	}
	if got.LanguageCode != "es" || got.VoiceSettings.Speed != slowSpeed || got.Text != "hola mundo." {
		t.Errorf("Unexpected request payload: %+v", got)
	}
}

func TestElevenLabsTTS_Synthesize_MP3AndErrors(t *testing.T) {
	status := http.StatusOK
	var got ElevenLabsRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		if status != http.StatusOK {
			http.Error(w, `{"detail":"quota_exceeded"}`, status)
			return
		}
		_, _ = w.Write(mp3Frames(5))
	}))
	defer server.Close()

	tts, err := NewElevenLabsTTS(ElevenLabsConfig{
		APIKey:       "test-api-key",
		APIBaseURL:   server.URL,
		OutputFormat: "mp3_44100_128",
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	asset, err := tts.Synthesize(context.Background(), "hello.", "en", false)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if asset.Encoding != entities.EncodingMP3 || asset.Duration != 5*24*time.Millisecond {
		t.Errorf("Unexpected asset: %s %s", asset.Encoding, asset.Duration)
	}
	if got.LanguageCode != "" || got.VoiceSettings.Speed != 0 {
		t.Errorf("Expected no language code or speed for default model, got %+v", got)
	}

	status = http.StatusPaymentRequired
	if _, err := tts.Synthesize(context.Background(), "hello.", "en", false); err == nil {
		t.Error("Expected error for non-200 response")
	}
}

func TestElevenLabsTTS_ListVoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"voices":[{"voice_id":"a","name":"Rachel"},{"voice_id":"b","name":"Adam"}]}`))
	}))
	defer server.Close()

	tts, _ := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "k", APIBaseURL: server.URL}, zaptest.NewLogger(t))
	voices, err := tts.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices failed: %v", err)
	}
	if len(voices) != 2 || voices[0].Name != "Rachel" {
		t.Errorf("Unexpected voices: %+v", voices)
	}
}

// Integration test - only runs if ELEVEN_LABS_API_KEY is set with real API key
func TestElevenLabsTTS_Synthesize_Integration(t *testing.T) {
	apiKey := os.Getenv("ELEVEN_LABS_API_KEY")
	if apiKey == "" || apiKey == "test-api-key" {
		t.Skip("Skipping integration test - set ELEVEN_LABS_API_KEY environment variable with real API key")
	}

	tts, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: apiKey}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	asset, err := tts.Synthesize(ctx, "Hola, esta es una prueba de integración.", "es", false)
	if err != nil {
		t.Fatalf("Failed to convert text to speech: %v", err)
	}
	if asset.Duration <= 0 {
		t.Error("No audio data received")
	}
}
