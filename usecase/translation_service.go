package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/voxlate/domain"
	"github.com/satriahrh/voxlate/domain/entities"
	"github.com/satriahrh/voxlate/domain/repositories"
	"github.com/satriahrh/voxlate/internal/textseg"
	"github.com/satriahrh/voxlate/internal/workdir"
)

// FormatConverter normalises input audio to the canonical encoding
type FormatConverter interface {
	Convert(ctx context.Context, input entities.AudioAsset) (entities.AudioAsset, error)
}

// SegmentAssembler synthesizes text segments and joins the audio in order
type SegmentAssembler interface {
	SynthesizeAndJoin(ctx context.Context, segments []entities.TextSegment, targetLang string, synthesizer repositories.Synthesizer, slow bool) (entities.AudioAsset, error)
}

// RunRecorder receives per-stage timings and run outcomes
type RunRecorder interface {
	RecordStage(stage string, d time.Duration)
	RecordRun(outcome string, segments int, audio time.Duration)
}

// StageObserver is called synchronously on every state transition of a run
type StageObserver func(entities.StageEvent)

// RunOption customises a single Run call
type RunOption func(*runOptions)

type runOptions struct {
	observer StageObserver
}

// WithStageObserver delivers stage events of the run to fn
func WithStageObserver(fn StageObserver) RunOption {
	return func(o *runOptions) {
		o.observer = fn
	}
}

// StageObserverOf returns the observer selected by opts, or nil
func StageObserverOf(opts ...RunOption) StageObserver {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o.observer
}

// ServiceOption customises a TranslationService
type ServiceOption func(*TranslationService)

// WithTranscriptStore writes every transcript as transcript_<token>.txt into store
func WithTranscriptStore(store *workdir.Store) ServiceOption {
	return func(s *TranslationService) {
		s.transcripts = store
	}
}

// WithRunRecorder reports stage timings and outcomes to recorder
func WithRunRecorder(recorder RunRecorder) ServiceOption {
	return func(s *TranslationService) {
		s.recorder = recorder
	}
}

// TranslationService orchestrates one voice-to-voice translation:
// convert, transcribe, translate, segment, synthesize and assemble.
// It holds no per-run state and is safe for concurrent use.
type TranslationService struct {
	converter   FormatConverter
	transcriber repositories.Transcriber
	translator  repositories.Translator
	synthesizer repositories.Synthesizer
	segmenter   *textseg.Segmenter
	assembler   SegmentAssembler
	transcripts *workdir.Store
	recorder    RunRecorder
	logger      *zap.Logger
}

// NewTranslationService creates a new translation service
func NewTranslationService(
	converter FormatConverter,
	transcriber repositories.Transcriber,
	translator repositories.Translator,
	synthesizer repositories.Synthesizer,
	segmenter *textseg.Segmenter,
	assembler SegmentAssembler,
	logger *zap.Logger,
	opts ...ServiceOption,
) *TranslationService {
	s := &TranslationService{
		converter:   converter,
		transcriber: transcriber,
		translator:  translator,
		synthesizer: synthesizer,
		segmenter:   segmenter,
		assembler:   assembler,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run tracks the progress of a single Run call
type run struct {
	id        string
	started   time.Time
	lastStage time.Time
	observer  StageObserver
	service   *TranslationService
}

func (r *run) transition(state entities.PipelineState, err error) {
	now := time.Now()
	if r.service.recorder != nil && state != entities.PipelineStateIdle {
		r.service.recorder.RecordStage(string(state), now.Sub(r.lastStage))
	}
	r.lastStage = now

	if r.observer != nil {
		r.observer(entities.StageEvent{
			RunID:     r.id,
			State:     state,
			Timestamp: now,
			Elapsed:   now.Sub(r.started),
			Err:       err,
		})
	}
}

// fail moves the run to the failed state and returns err tagged with code
// unless it already carries one
func (r *run) fail(err error, code domain.ErrorCode, message string) error {
	if _, ok := domain.CodeOf(err); !ok {
		err = domain.NewError(code, message, err)
	}
	r.transition(entities.PipelineStateFailed, err)

	outcome, _ := domain.CodeOf(err)
	if r.service.recorder != nil {
		r.service.recorder.RecordRun(string(outcome), 0, 0)
	}
	r.service.logger.Warn("Translation run failed",
		zap.String("runID", r.id),
		zap.Duration("elapsed", time.Since(r.started)),
		zap.Error(err))
	return err
}

// Run executes the pipeline sequentially. Any stage failure stops the run;
// nothing is retried or rolled back.
func (s *TranslationService) Run(ctx context.Context, req entities.PipelineRequest, opts ...RunOption) (*entities.PipelineResult, error) {
	now := time.Now()
	r := &run{id: uuid.NewString(), started: now, lastStage: now, observer: StageObserverOf(opts...), service: s}
	r.transition(entities.PipelineStateIdle, nil)

	s.logger.Info("Translation run started",
		zap.String("runID", r.id),
		zap.String("from", req.SourceLang),
		zap.String("to", req.TargetLang),
		zap.Bool("slow", req.Slow))

	if err := req.Validate(); err != nil {
		return nil, r.fail(err, domain.CodeUnsupportedLanguage, "")
	}
	r.transition(entities.PipelineStateValidated, nil)

	canonical, err := s.converter.Convert(ctx, req.Audio)
	if err != nil {
		return nil, r.fail(err, domain.CodeTranscriptionFailure, "audio conversion failed")
	}

	transcript, err := s.transcriber.Transcribe(ctx, canonical, req.SourceLang)
	if err != nil {
		return nil, r.fail(err, domain.CodeTranscriptionFailure, "transcriber failed")
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, r.fail(domain.Errorf(domain.CodeTranscriptionFailure, "no speech detected in audio"), "", "")
	}
	s.saveTranscript(r.id, transcript)
	r.transition(entities.PipelineStateTranscribed, nil)

	translation, err := s.translator.Translate(ctx, transcript, req.SourceLang, req.TargetLang)
	if err != nil {
		return nil, r.fail(err, domain.CodeTranslationFailure, "translator failed")
	}
	translation = strings.TrimSpace(translation)
	if translation == "" {
		return nil, r.fail(domain.Errorf(domain.CodeTranslationFailure, "translator returned no text"), "", "")
	}
	r.transition(entities.PipelineStateTranslated, nil)

	segments := s.segmenter.Split(translation)
	output, err := s.assembler.SynthesizeAndJoin(ctx, segments, req.TargetLang, s.synthesizer, req.Slow)
	if err != nil {
		return nil, r.fail(err, domain.CodeSynthesisFailure, "synthesis failed")
	}
	r.transition(entities.PipelineStateSynthesized, nil)

	result := &entities.PipelineResult{
		RunID:        r.id,
		Transcript:   transcript,
		Translation:  translation,
		Audio:        output,
		Segments:     len(segments),
		DownloadName: entities.DownloadName(req.TargetLang, output.Encoding),
	}
	r.transition(entities.PipelineStateComplete, nil)

	if s.recorder != nil {
		s.recorder.RecordRun("success", result.Segments, output.Duration)
	}
	s.logger.Info("Translation run completed",
		zap.String("runID", r.id),
		zap.Int("segments", result.Segments),
		zap.Duration("audioDuration", output.Duration),
		zap.Duration("elapsed", time.Since(r.started)))

	return result, nil
}

// DetectLanguage guesses the language of text when the translator supports
// it. An empty code means unknown.
func (s *TranslationService) DetectLanguage(ctx context.Context, text string) (string, error) {
	detector, ok := s.translator.(repositories.LanguageDetector)
	if !ok || strings.TrimSpace(text) == "" {
		return "", nil
	}
	code, err := detector.DetectLanguage(ctx, text)
	if err != nil {
		return "", fmt.Errorf("failed to detect language: %w", err)
	}
	if !entities.IsSupportedLanguage(code) {
		return "", nil
	}
	return code, nil
}

// saveTranscript keeps a copy of the transcript next to the staged input
func (s *TranslationService) saveTranscript(runID, transcript string) {
	if s.transcripts == nil {
		return
	}
	entry, err := s.transcripts.Write("transcript", ".txt", []byte(transcript))
	if err != nil {
		s.logger.Warn("Failed to save transcript", zap.String("runID", runID), zap.Error(err))
		return
	}
	s.logger.Debug("Transcript saved", zap.String("runID", runID), zap.String("name", entry.Name))
}
