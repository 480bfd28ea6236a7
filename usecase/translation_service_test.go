package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/voxlate/domain"
	"github.com/satriahrh/voxlate/domain/entities"
	"github.com/satriahrh/voxlate/internal/audio"
	"github.com/satriahrh/voxlate/internal/textseg"
	"github.com/satriahrh/voxlate/internal/workdir"
)

type passthroughConverter struct {
	calls int
}

func (c *passthroughConverter) Convert(ctx context.Context, input entities.AudioAsset) (entities.AudioAsset, error) {
	c.calls++
	if !input.InMemory() && input.Path == "" {
		return entities.AudioAsset{}, domain.Errorf(domain.CodeMissingInput, "no input audio")
	}
	return input, nil
}

type stubTranscriber struct {
	text  string
	err   error
	calls int
}

func (s *stubTranscriber) Transcribe(ctx context.Context, asset entities.AudioAsset, languageHint string) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubTranslator struct {
	table map[string]string
	err   error
	calls int
}

func (s *stubTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.table[text], nil
}

func (s *stubTranslator) DetectLanguage(ctx context.Context, text string) (string, error) {
	if strings.HasPrefix(text, "hola") {
		return "es", nil
	}
	return "xx", nil
}

type plainTranslator struct{}

func (plainTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return text, nil
}

type toneSynthesizer struct {
	mu    sync.Mutex
	texts []string
}

func (s *toneSynthesizer) Synthesize(ctx context.Context, text, languageCode string, slow bool) (entities.AudioAsset, error) {
	s.mu.Lock()
	s.texts = append(s.texts, text)
	s.mu.Unlock()

	data, err := audio.ToneWAV(440, time.Second)
	if err != nil {
		return entities.AudioAsset{}, err
	}
	return entities.AudioAsset{Data: data, Encoding: entities.EncodingWAV, Duration: time.Second}, nil
}

type recordedRuns struct {
	stages   []string
	outcomes []string
}

func (r *recordedRuns) RecordStage(stage string, d time.Duration) {
	r.stages = append(r.stages, stage)
}

func (r *recordedRuns) RecordRun(outcome string, segments int, audio time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

type serviceFixture struct {
	converter   *passthroughConverter
	transcriber *stubTranscriber
	translator  *stubTranslator
	synthesizer *toneSynthesizer
	recorder    *recordedRuns
	inputDir    string
	service     *TranslationService
}

func newServiceFixture(t *testing.T, maxChars int) *serviceFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	inputStore, err := workdir.NewStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("Failed to create input store: %v", err)
	}
	outputStore, err := workdir.NewStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("Failed to create output store: %v", err)
	}
	segmenter, err := textseg.NewSegmenter(maxChars)
	if err != nil {
		t.Fatalf("Failed to create segmenter: %v", err)
	}

	f := &serviceFixture{
		converter:   &passthroughConverter{},
		transcriber: &stubTranscriber{text: "hello world. how are you?"},
		translator: &stubTranslator{table: map[string]string{
			"hello world. how are you?": "hola mundo. ¿cómo estás?",
		}},
		synthesizer: &toneSynthesizer{},
		recorder:    &recordedRuns{},
		inputDir:    inputStore.Dir(),
	}
	f.service = NewTranslationService(
		f.converter,
		f.transcriber,
		f.translator,
		f.synthesizer,
		segmenter,
		audio.NewAssembler(outputStore, 2, logger),
		logger,
		WithTranscriptStore(inputStore),
		WithRunRecorder(f.recorder),
	)
	return f
}

func inputAudio(t *testing.T) entities.AudioAsset {
	t.Helper()
	data, err := audio.ToneWAV(220, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("Failed to build input audio: %v", err)
	}
	return entities.AudioAsset{Data: data, Encoding: entities.EncodingWAV}
}

func TestRunTranslatesEndToEnd(t *testing.T) {
	f := newServiceFixture(t, 12)

	result, err := f.service.Run(context.Background(), entities.PipelineRequest{
		Audio:      inputAudio(t),
		SourceLang: "en",
		TargetLang: "es",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Transcript != "hello world. how are you?" {
		t.Errorf("Unexpected transcript: %q", result.Transcript)
	}
	if result.Translation != "hola mundo. ¿cómo estás?" {
		t.Errorf("Unexpected translation: %q", result.Translation)
	}
	if result.Segments != 2 {
		t.Errorf("Expected 2 segments, got %d", result.Segments)
	}
	if len(f.synthesizer.texts) != 2 {
		t.Errorf("Expected 2 synthesis calls, got %d", len(f.synthesizer.texts))
	}
	if result.Audio.Duration != 2*time.Second {
		t.Errorf("Expected 2s of audio, got %v", result.Audio.Duration)
	}
	if result.DownloadName != "translated_audio_es.wav" {
		t.Errorf("Unexpected download name: %s", result.DownloadName)
	}
	if result.RunID == "" {
		t.Error("Expected a run id")
	}
	if _, err := os.Stat(result.Audio.Path); err != nil {
		t.Errorf("Expected combined audio on disk: %v", err)
	}
	if len(f.recorder.outcomes) != 1 || f.recorder.outcomes[0] != "success" {
		t.Errorf("Expected one success outcome, got %v", f.recorder.outcomes)
	}
}

func TestRunRejectsUnsupportedLanguageBeforeProviders(t *testing.T) {
	f := newServiceFixture(t, 200)

	_, err := f.service.Run(context.Background(), entities.PipelineRequest{
		Audio:      inputAudio(t),
		SourceLang: "en",
		TargetLang: "xx",
	})
	if !errors.Is(err, domain.ErrUnsupportedLanguage) {
		t.Fatalf("Expected unsupported language error, got %v", err)
	}
	if f.converter.calls+f.transcriber.calls+f.translator.calls+len(f.synthesizer.texts) != 0 {
		t.Error("Expected no provider calls for an unsupported language")
	}
	if len(f.recorder.outcomes) != 1 || f.recorder.outcomes[0] != string(domain.CodeUnsupportedLanguage) {
		t.Errorf("Unexpected outcomes: %v", f.recorder.outcomes)
	}
}

func TestRunStopsOnTranslatorFailure(t *testing.T) {
	f := newServiceFixture(t, 200)
	cause := errors.New("quota exceeded")
	f.translator.err = cause

	_, err := f.service.Run(context.Background(), entities.PipelineRequest{
		Audio:      inputAudio(t),
		SourceLang: "en",
		TargetLang: "es",
	})
	if !errors.Is(err, domain.ErrTranslationFailure) {
		t.Fatalf("Expected translation failure, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("Expected provider cause to be preserved")
	}
	if len(f.synthesizer.texts) != 0 {
		t.Errorf("Expected no synthesis calls, got %d", len(f.synthesizer.texts))
	}
}

func TestRunEmptyTranscriptFails(t *testing.T) {
	f := newServiceFixture(t, 200)
	f.transcriber.text = "   "

	_, err := f.service.Run(context.Background(), entities.PipelineRequest{
		Audio:      inputAudio(t),
		SourceLang: "en",
		TargetLang: "es",
	})
	if !errors.Is(err, domain.ErrTranscriptionFailure) {
		t.Fatalf("Expected transcription failure, got %v", err)
	}
	if f.translator.calls != 0 {
		t.Error("Expected translator not to be called")
	}
}

func TestRunKeepsConverterErrorCode(t *testing.T) {
	f := newServiceFixture(t, 200)

	_, err := f.service.Run(context.Background(), entities.PipelineRequest{
		SourceLang: "en",
		TargetLang: "es",
	})
	if !errors.Is(err, domain.ErrMissingInput) {
		t.Fatalf("Expected missing input error, got %v", err)
	}
}

func TestRunEmitsStageEventsInOrder(t *testing.T) {
	f := newServiceFixture(t, 200)

	var states []entities.PipelineState
	var runIDs = map[string]bool{}
	_, err := f.service.Run(context.Background(), entities.PipelineRequest{
		Audio:      inputAudio(t),
		SourceLang: "en",
		TargetLang: "es",
	}, WithStageObserver(func(ev entities.StageEvent) {
		states = append(states, ev.State)
		runIDs[ev.RunID] = true
	}))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []entities.PipelineState{
		entities.PipelineStateIdle,
		entities.PipelineStateValidated,
		entities.PipelineStateTranscribed,
		entities.PipelineStateTranslated,
		entities.PipelineStateSynthesized,
		entities.PipelineStateComplete,
	}
	if len(states) != len(want) {
		t.Fatalf("Expected %d events, got %v", len(want), states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], states[i])
		}
	}
	if len(runIDs) != 1 {
		t.Errorf("Expected a single run id across events, got %d", len(runIDs))
	}
}

func TestRunFailureEventCarriesError(t *testing.T) {
	f := newServiceFixture(t, 200)
	f.transcriber.err = errors.New("backend down")

	var last entities.StageEvent
	_, err := f.service.Run(context.Background(), entities.PipelineRequest{
		Audio:      inputAudio(t),
		SourceLang: "en",
		TargetLang: "es",
	}, WithStageObserver(func(ev entities.StageEvent) {
		last = ev
	}))
	if err == nil {
		t.Fatal("Expected run to fail")
	}
	if last.State != entities.PipelineStateFailed {
		t.Errorf("Expected final state failed, got %s", last.State)
	}
	if !errors.Is(last.Err, domain.ErrTranscriptionFailure) {
		t.Errorf("Expected failed event to carry the transcription error, got %v", last.Err)
	}
}

func TestRunWritesTranscript(t *testing.T) {
	f := newServiceFixture(t, 200)

	if _, err := f.service.Run(context.Background(), entities.PipelineRequest{
		Audio:      inputAudio(t),
		SourceLang: "en",
		TargetLang: "es",
	}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(f.inputDir, "transcript_*.txt"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("Expected one transcript file, got %v (err=%v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("Failed to read transcript: %v", err)
	}
	if string(data) != "hello world. how are you?" {
		t.Errorf("Unexpected transcript content: %q", data)
	}
}

func TestDetectLanguage(t *testing.T) {
	f := newServiceFixture(t, 200)

	code, err := f.service.DetectLanguage(context.Background(), "hola mundo")
	if err != nil || code != "es" {
		t.Errorf("Expected es, got %q (err=%v)", code, err)
	}

	code, err = f.service.DetectLanguage(context.Background(), "zzz")
	if err != nil || code != "" {
		t.Errorf("Expected unsupported detection to be empty, got %q (err=%v)", code, err)
	}

	logger := zaptest.NewLogger(t)
	segmenter, _ := textseg.NewSegmenter(200)
	plain := NewTranslationService(f.converter, f.transcriber, plainTranslator{}, f.synthesizer, segmenter, nil, logger)
	code, err = plain.DetectLanguage(context.Background(), "hola")
	if err != nil || code != "" {
		t.Errorf("Expected empty code without a detector, got %q (err=%v)", code, err)
	}
}
