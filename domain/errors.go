package domain

import (
	"errors"
	"fmt"
)

// ErrorCode tags a pipeline error so callers can render a specific message
type ErrorCode string

const (
	CodeUnsupportedFormat    ErrorCode = "unsupported_format"
	CodeMissingInput         ErrorCode = "missing_input"
	CodeUnsupportedLanguage  ErrorCode = "unsupported_language"
	CodeTranscriptionFailure ErrorCode = "transcription_failure"
	CodeTranslationFailure   ErrorCode = "translation_failure"
	CodeSynthesisFailure     ErrorCode = "synthesis_failure"
	CodeEmptySegmentList     ErrorCode = "empty_segment_list"
)

// Error is the single tagged error returned by every pipeline stage
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Sentinels for errors.Is checks. Matching is done on Code only.
var (
	ErrUnsupportedFormat    = &Error{Code: CodeUnsupportedFormat}
	ErrMissingInput         = &Error{Code: CodeMissingInput}
	ErrUnsupportedLanguage  = &Error{Code: CodeUnsupportedLanguage}
	ErrTranscriptionFailure = &Error{Code: CodeTranscriptionFailure}
	ErrTranslationFailure   = &Error{Code: CodeTranslationFailure}
	ErrSynthesisFailure     = &Error{Code: CodeSynthesisFailure}
	ErrEmptySegmentList     = &Error{Code: CodeEmptySegmentList}
)

// NewError creates a tagged error wrapping an optional cause
func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Errorf creates a tagged error with a formatted message and no cause
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the provider cause for errors.Is / errors.As
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is a pipeline error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// CodeOf returns the code of the first pipeline error in err's chain
func CodeOf(err error) (ErrorCode, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return "", false
}
