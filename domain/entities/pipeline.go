package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/satriahrh/voxlate/domain"
)

// PipelineState represents the current state of a translation run
type PipelineState string

const (
	PipelineStateIdle        PipelineState = "idle"
	PipelineStateValidated   PipelineState = "validated"
	PipelineStateTranscribed PipelineState = "transcribed"
	PipelineStateTranslated  PipelineState = "translated"
	PipelineStateSynthesized PipelineState = "synthesized"
	PipelineStateComplete    PipelineState = "complete"
	PipelineStateFailed      PipelineState = "failed"
)

// IsTerminal reports whether no further transition can happen
func (s PipelineState) IsTerminal() bool {
	return s == PipelineStateComplete || s == PipelineStateFailed
}

// StageEvent is emitted on every state transition of a run
type StageEvent struct {
	RunID     string        `json:"run_id"`
	State     PipelineState `json:"state"`
	Timestamp time.Time     `json:"timestamp"`
	Elapsed   time.Duration `json:"elapsed"`
	Err       error         `json:"-"`
}

// PipelineRequest is the input of one translation run
type PipelineRequest struct {
	Audio      AudioAsset
	SourceLang string
	TargetLang string
	Slow       bool
}

// Validate checks both language codes against the supported table
func (r PipelineRequest) Validate() error {
	if !IsSupportedLanguage(r.SourceLang) {
		return domain.Errorf(domain.CodeUnsupportedLanguage, "unsupported source language: %q", r.SourceLang)
	}
	if !IsSupportedLanguage(r.TargetLang) {
		return domain.Errorf(domain.CodeUnsupportedLanguage, "unsupported target language: %q", r.TargetLang)
	}
	return nil
}

// PipelineResult is the immutable output of a completed run
type PipelineResult struct {
	RunID        string
	Transcript   string
	Translation  string
	Audio        AudioAsset
	Segments     int
	DownloadName string
}

// DownloadName suggests the filename offered to the end user
func DownloadName(targetLang string, encoding Encoding) string {
	ext := strings.TrimPrefix(encoding.Extension(), ".")
	return fmt.Sprintf("translated_audio_%s.%s", targetLang, ext)
}
