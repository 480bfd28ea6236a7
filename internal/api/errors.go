package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/satriahrh/voxlate/domain"
)

// StatusFor maps a pipeline error to an HTTP status code
func StatusFor(err error) int {
	code, ok := domain.CodeOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch code {
	case domain.CodeUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case domain.CodeMissingInput, domain.CodeUnsupportedLanguage:
		return http.StatusBadRequest
	case domain.CodeEmptySegmentList:
		return http.StatusUnprocessableEntity
	case domain.CodeTranscriptionFailure, domain.CodeTranslationFailure, domain.CodeSynthesisFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writePipelineError renders err as an ErrorResponse. Untagged errors do
// not leak their message.
func writePipelineError(c echo.Context, err error) error {
	status := StatusFor(err)
	code, ok := domain.CodeOf(err)
	if !ok {
		return c.JSON(status, ErrorResponse{
			Error:   "internal_error",
			Message: "Translation failed",
		})
	}
	return c.JSON(status, ErrorResponse{
		Error:   string(code),
		Message: err.Error(),
	})
}
