package websocket

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/satriahrh/voxlate/domain"
	"github.com/satriahrh/voxlate/domain/entities"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypeTranslate MessageType = "translate"
	MessageTypeStage     MessageType = "stage"
	MessageTypeResult    MessageType = "result"
	MessageTypePing      MessageType = "ping"
	MessageTypePong      MessageType = "pong"
	MessageTypeError     MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id,omitempty"`
}

// TranslateMessage asks the server to translate one recording
type TranslateMessage struct {
	BaseMessage
	AudioData  string `json:"audio_data"` // base64 encoded
	Extension  string `json:"extension"`  // e.g. "mp3", "wav"
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Slow       bool   `json:"slow,omitempty"`

	audio []byte
}

// Audio returns the decoded recording
func (m *TranslateMessage) Audio() []byte {
	return m.audio
}

// StageMessage reports a state transition of a running translation
type StageMessage struct {
	BaseMessage
	RunID     string `json:"run_id"`
	State     string `json:"state"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// ResultMessage carries the output of a completed translation
type ResultMessage struct {
	BaseMessage
	RunID        string `json:"run_id"`
	Transcript   string `json:"transcript"`
	Translation  string `json:"translation"`
	AudioData    string `json:"audio_data"` // base64 encoded
	Encoding     string `json:"encoding"`
	DownloadName string `json:"download_name"`
	DurationMs   int64  `json:"duration_ms"`
	Segments     int    `json:"segments"`
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// MessageValidator provides validation for WebSocket messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage validates an incoming message
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	// First parse as base message to get type
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypeTranslate:
		var msg TranslateMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid translate message: %w", err)
		}
		if err := v.validateTranslate(&msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid ping message: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

// validateTranslate checks required fields and decodes the audio payload
func (v *MessageValidator) validateTranslate(msg *TranslateMessage) error {
	if msg.AudioData == "" {
		return fmt.Errorf("audio_data is required")
	}
	if msg.Extension == "" {
		return fmt.Errorf("extension is required")
	}
	if msg.SourceLang == "" || msg.TargetLang == "" {
		return fmt.Errorf("source_lang and target_lang are required")
	}

	audio, err := base64.StdEncoding.DecodeString(msg.AudioData)
	if err != nil {
		return fmt.Errorf("audio_data is not valid base64: %w", err)
	}
	if len(audio) == 0 {
		return fmt.Errorf("audio_data is empty")
	}
	msg.audio = audio
	msg.Extension = strings.ToLower(strings.TrimPrefix(msg.Extension, "."))
	return nil
}

// Request converts the message into a pipeline request
func (m *TranslateMessage) Request() entities.PipelineRequest {
	return entities.PipelineRequest{
		Audio: entities.AudioAsset{
			Data:     m.audio,
			Encoding: entities.Encoding(m.Extension),
		},
		SourceLang: m.SourceLang,
		TargetLang: m.TargetLang,
		Slow:       m.Slow,
	}
}

func newBase(t MessageType, replyTo string) BaseMessage {
	return BaseMessage{
		Type:      t,
		Timestamp: time.Now().Format(time.RFC3339),
		MessageID: replyTo,
	}
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message, details string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: newBase(MessageTypeError, ""),
		Code:        code,
		Message:     message,
		Details:     details,
	}
}

// CreatePipelineErrorMessage renders a pipeline failure for the client.
// Errors without a code are reported as internal errors.
func CreatePipelineErrorMessage(replyTo string, err error) *ErrorMessage {
	code := "internal_error"
	message := "translation failed"
	if c, ok := domain.CodeOf(err); ok {
		code = string(c)
		message = strings.ReplaceAll(string(c), "_", " ")
	}
	msg := CreateErrorMessage(code, message, err.Error())
	msg.MessageID = replyTo
	return msg
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{
		BaseMessage: newBase(MessageTypePong, ""),
		Data:        data,
	}
}

// CreateStageMessage reports a pipeline transition
func CreateStageMessage(replyTo string, ev entities.StageEvent) *StageMessage {
	return &StageMessage{
		BaseMessage: newBase(MessageTypeStage, replyTo),
		RunID:       ev.RunID,
		State:       string(ev.State),
		ElapsedMs:   ev.Elapsed.Milliseconds(),
	}
}

// CreateResultMessage embeds the output audio of a completed run
func CreateResultMessage(replyTo string, result *entities.PipelineResult, audio []byte) *ResultMessage {
	return &ResultMessage{
		BaseMessage:  newBase(MessageTypeResult, replyTo),
		RunID:        result.RunID,
		Transcript:   result.Transcript,
		Translation:  result.Translation,
		AudioData:    base64.StdEncoding.EncodeToString(audio),
		Encoding:     string(result.Audio.Encoding),
		DownloadName: result.DownloadName,
		DurationMs:   result.Audio.Duration.Milliseconds(),
		Segments:     result.Segments,
	}
}
