package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/voxlate/domain"
	"github.com/satriahrh/voxlate/domain/entities"
	"github.com/satriahrh/voxlate/internal/metrics"
	"github.com/satriahrh/voxlate/internal/websocket"
	"github.com/satriahrh/voxlate/internal/workdir"
	"github.com/satriahrh/voxlate/usecase"
)

type fakeService struct {
	outputs  *workdir.Store
	err      error
	detected string
	requests []entities.PipelineRequest
}

func (f *fakeService) Run(ctx context.Context, req entities.PipelineRequest, opts ...usecase.RunOption) (*entities.PipelineResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	entry, err := f.outputs.Write("tts_combined", ".wav", []byte("RIFF-combined"))
	if err != nil {
		return nil, err
	}
	return &entities.PipelineResult{
		RunID:        "run-1",
		Transcript:   "hello world. how are you?",
		Translation:  "hola mundo. ¿cómo estás?",
		Audio:        entities.AudioAsset{Path: entry.Path(), Encoding: entities.EncodingWAV, Duration: 2 * time.Second},
		Segments:     2,
		DownloadName: entities.DownloadName(req.TargetLang, entities.EncodingWAV),
	}, nil
}

func (f *fakeService) DetectLanguage(ctx context.Context, text string) (string, error) {
	return f.detected, f.err
}

type testServer struct {
	echo    *echo.Echo
	service *fakeService
	outputs *workdir.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()

	outputs, err := workdir.NewStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	service := &fakeService{outputs: outputs}
	hub := websocket.NewHub(service, websocket.Options{}, logger)

	e := echo.New()
	InitRoutes(e, service, outputs, hub, metrics.NewMetrics(), Options{MaxUploadMB: 1, RequestTimeout: time.Second}, logger)
	return &testServer{echo: e, service: service, outputs: outputs}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func multipartRequest(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("audio", filename)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		part.Write(content)
	}
	for k, v := range fields {
		w.WriteField(k, v)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/translations", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}
}

func TestListLanguages(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/languages", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var langs []LanguageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &langs); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(langs) != 11 {
		t.Errorf("Expected 11 languages, got %d", len(langs))
	}
	if langs[0].Code != "de" || langs[0].Name != "German" {
		t.Errorf("Expected sorted list starting with German, got %+v", langs[0])
	}
}

func TestCreateTranslation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(multipartRequest(t, "speech.MP3", []byte("fake mp3"), map[string]string{
		"source_lang": "en",
		"target_lang": "es",
		"slow":        "true",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp TranslationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if resp.Translation != "hola mundo. ¿cómo estás?" || resp.Segments != 2 || resp.DurationMs != 2000 {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if resp.DownloadName != "translated_audio_es.wav" {
		t.Errorf("Unexpected download name: %s", resp.DownloadName)
	}
	if !strings.HasPrefix(resp.AudioURL, "/api/v1/audio/tts_combined_") || !strings.HasSuffix(resp.AudioURL, "?download=es") {
		t.Errorf("Unexpected audio url: %s", resp.AudioURL)
	}

	if len(s.service.requests) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(s.service.requests))
	}
	req := s.service.requests[0]
	if req.Audio.Encoding != entities.EncodingMP3 || string(req.Audio.Data) != "fake mp3" {
		t.Errorf("Unexpected audio asset: %s %q", req.Audio.Encoding, req.Audio.Data)
	}
	if !req.Slow || req.SourceLang != "en" || req.TargetLang != "es" {
		t.Errorf("Unexpected request: %+v", req)
	}

	// The advertised URL serves the combined audio as an attachment
	audio := s.do(httptest.NewRequest(http.MethodGet, resp.AudioURL, nil))
	if audio.Code != http.StatusOK {
		t.Fatalf("Expected 200 for audio, got %d", audio.Code)
	}
	if got := audio.Header().Get(echo.HeaderContentDisposition); !strings.Contains(got, "translated_audio_es.wav") {
		t.Errorf("Unexpected Content-Disposition: %s", got)
	}
	if audio.Body.String() != "RIFF-combined" {
		t.Errorf("Unexpected audio body: %q", audio.Body.String())
	}
}

func TestCreateTranslationMissingFile(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(multipartRequest(t, "", nil, map[string]string{"source_lang": "en", "target_lang": "es"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error != "missing_input" {
		t.Errorf("Expected missing_input, got %s", resp.Error)
	}
	if len(s.service.requests) != 0 {
		t.Error("Expected no pipeline run")
	}
}

func TestCreateTranslationInvalidSlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(multipartRequest(t, "a.wav", []byte("x"), map[string]string{"slow": "maybe"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestCreateTranslationTooLarge(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(multipartRequest(t, "big.wav", bytes.Repeat([]byte{0}, 2<<20), nil))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("Expected 413, got %d", rec.Code)
	}
}

func TestCreateTranslationErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unsupported format", domain.Errorf(domain.CodeUnsupportedFormat, "bad"), http.StatusUnsupportedMediaType, "unsupported_format"},
		{"missing input", domain.Errorf(domain.CodeMissingInput, "none"), http.StatusBadRequest, "missing_input"},
		{"unsupported language", domain.Errorf(domain.CodeUnsupportedLanguage, "xx"), http.StatusBadRequest, "unsupported_language"},
		{"empty segments", domain.Errorf(domain.CodeEmptySegmentList, "empty"), http.StatusUnprocessableEntity, "empty_segment_list"},
		{"transcription", domain.NewError(domain.CodeTranscriptionFailure, "stt", errors.New("down")), http.StatusBadGateway, "transcription_failure"},
		{"translation", domain.NewError(domain.CodeTranslationFailure, "llm", errors.New("quota")), http.StatusBadGateway, "translation_failure"},
		{"synthesis", domain.NewError(domain.CodeSynthesisFailure, "segment 1", errors.New("timeout")), http.StatusBadGateway, "synthesis_failure"},
		{"untagged", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.service.err = tt.err

			rec := s.do(multipartRequest(t, "a.wav", []byte("x"), map[string]string{"source_lang": "en", "target_lang": "es"}))
			if rec.Code != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, rec.Code)
			}
			if resp := decodeError(t, rec); resp.Error != tt.code {
				t.Errorf("Expected error %s, got %s", tt.code, resp.Error)
			}
		})
	}
}

func TestGetAudio(t *testing.T) {
	s := newTestServer(t)
	entry, err := s.outputs.Write("tts_combined", ".mp3", []byte("ID3-audio"))
	if err != nil {
		t.Fatalf("Failed to write audio: %v", err)
	}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/audio/"+entry.Name, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentType); got != "audio/mpeg" {
		t.Errorf("Expected audio/mpeg, got %s", got)
	}
	if rec.Header().Get(echo.HeaderContentDisposition) != "" {
		t.Error("Expected inline response without download parameter")
	}

	for _, path := range []string{
		"/api/v1/audio/missing.wav",
		"/api/v1/audio/..%2Fsecret.wav",
		"/api/v1/audio/.partial-x.wav",
	} {
		rec := s.do(httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/audio/"+entry.Name+"?download=xx", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unsupported download language, got %d", rec.Code)
	}
}

func TestDetectLanguage(t *testing.T) {
	s := newTestServer(t)
	s.service.detected = "es"

	req := httptest.NewRequest(http.MethodPost, "/api/v1/languages/detect", strings.NewReader(`{"text":"hola mundo"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := s.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp DetectLanguageResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Language != "es" {
		t.Errorf("Expected es, got %q", resp.Language)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/languages/detect", strings.NewReader(`{"text":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if rec := s.do(req); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty text, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `voxlate_http_requests_total{method="GET",route="/health",status="200"} 1`) {
		t.Errorf("Expected health request to be counted, got:\n%s", body)
	}
}

func TestStatusFor(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), domain.Errorf(domain.CodeEmptySegmentList, "nothing"))
	if got := StatusFor(wrapped); got != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 through wrapping, got %d", got)
	}
}
