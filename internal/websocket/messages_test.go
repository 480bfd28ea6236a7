package websocket

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/satriahrh/voxlate/domain"
	"github.com/satriahrh/voxlate/domain/entities"
)

func TestMessageValidator_ValidateTranslate(t *testing.T) {
	validator := NewMessageValidator()
	audio := base64.StdEncoding.EncodeToString([]byte("fake mp3 bytes"))

	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{
			name: "valid translate",
			message: `{
				"type": "translate",
				"message_id": "m1",
				"audio_data": "` + audio + `",
				"extension": ".MP3",
				"source_lang": "en",
				"target_lang": "es"
			}`,
			wantErr: false,
		},
		{
			name: "missing audio",
			message: `{
				"type": "translate",
				"extension": "mp3",
				"source_lang": "en",
				"target_lang": "es"
			}`,
			wantErr: true,
		},
		{
			name: "missing extension",
			message: `{
				"type": "translate",
				"audio_data": "` + audio + `",
				"source_lang": "en",
				"target_lang": "es"
			}`,
			wantErr: true,
		},
		{
			name: "missing target language",
			message: `{
				"type": "translate",
				"audio_data": "` + audio + `",
				"extension": "mp3",
				"source_lang": "en"
			}`,
			wantErr: true,
		},
		{
			name: "invalid base64",
			message: `{
				"type": "translate",
				"audio_data": "not base64!!",
				"extension": "mp3",
				"source_lang": "en",
				"target_lang": "es"
			}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.ValidateMessage([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTranslateMessageRequest(t *testing.T) {
	validator := NewMessageValidator()
	raw := `{"type":"translate","audio_data":"` + base64.StdEncoding.EncodeToString([]byte("abc")) +
		`","extension":".WAV","source_lang":"en","target_lang":"fr","slow":true}`

	msg, err := validator.ValidateMessage([]byte(raw))
	if err != nil {
		t.Fatalf("ValidateMessage() error = %v", err)
	}
	translate, ok := msg.(*TranslateMessage)
	if !ok {
		t.Fatalf("Expected *TranslateMessage, got %T", msg)
	}

	req := translate.Request()
	if string(req.Audio.Data) != "abc" {
		t.Errorf("Expected decoded audio, got %q", req.Audio.Data)
	}
	if req.Audio.Encoding != entities.EncodingWAV {
		t.Errorf("Expected wav encoding, got %s", req.Audio.Encoding)
	}
	if req.SourceLang != "en" || req.TargetLang != "fr" || !req.Slow {
		t.Errorf("Unexpected request: %+v", req)
	}
}

func TestMessageValidator_ValidatePing(t *testing.T) {
	validator := NewMessageValidator()

	msg, err := validator.ValidateMessage([]byte(`{"type":"ping","data":"hello"}`))
	if err != nil {
		t.Fatalf("ValidateMessage() error = %v", err)
	}
	ping, ok := msg.(*PingMessage)
	if !ok {
		t.Fatalf("Expected *PingMessage, got %T", msg)
	}
	if ping.Data != "hello" {
		t.Errorf("Expected data 'hello', got %q", ping.Data)
	}
}

func TestMessageValidator_InvalidMessages(t *testing.T) {
	validator := NewMessageValidator()

	for _, raw := range []string{`{invalid json}`, `{"type":"unknown"}`, `{}`} {
		if _, err := validator.ValidateMessage([]byte(raw)); err == nil {
			t.Errorf("Expected error for %s", raw)
		}
	}
}

func TestCreatePipelineErrorMessage(t *testing.T) {
	err := domain.NewError(domain.CodeUnsupportedFormat, "ffmpeg could not decode", errors.New("exit status 1"))

	msg := CreatePipelineErrorMessage("m1", err)
	if msg.Type != MessageTypeError {
		t.Errorf("Expected error type, got %s", msg.Type)
	}
	if msg.Code != "unsupported_format" {
		t.Errorf("Expected unsupported_format, got %s", msg.Code)
	}
	if msg.MessageID != "m1" {
		t.Errorf("Expected reply id m1, got %s", msg.MessageID)
	}

	plain := CreatePipelineErrorMessage("m2", errors.New("boom"))
	if plain.Code != "internal_error" {
		t.Errorf("Expected internal_error, got %s", plain.Code)
	}
}

func TestCreateResultMessage(t *testing.T) {
	result := &entities.PipelineResult{
		RunID:        "run-1",
		Transcript:   "hello",
		Translation:  "hola",
		Audio:        entities.AudioAsset{Encoding: entities.EncodingMP3, Duration: 1500 * time.Millisecond},
		Segments:     1,
		DownloadName: "translated_audio_es.mp3",
	}

	msg := CreateResultMessage("m1", result, []byte("audio"))
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if decoded["type"] != "result" {
		t.Errorf("Expected type result, got %v", decoded["type"])
	}
	if decoded["duration_ms"] != float64(1500) {
		t.Errorf("Expected duration_ms 1500, got %v", decoded["duration_ms"])
	}
	if decoded["audio_data"] != base64.StdEncoding.EncodeToString([]byte("audio")) {
		t.Errorf("Unexpected audio_data: %v", decoded["audio_data"])
	}
	if decoded["download_name"] != "translated_audio_es.mp3" {
		t.Errorf("Unexpected download_name: %v", decoded["download_name"])
	}
}
