package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/voxlate/domain"
	"github.com/satriahrh/voxlate/domain/entities"
	"github.com/satriahrh/voxlate/internal/metrics"
	"github.com/satriahrh/voxlate/internal/websocket"
	"github.com/satriahrh/voxlate/internal/workdir"
	"github.com/satriahrh/voxlate/usecase"
)

// TranslationService is the pipeline as seen by the HTTP handlers
type TranslationService interface {
	Run(ctx context.Context, req entities.PipelineRequest, opts ...usecase.RunOption) (*entities.PipelineResult, error)
	DetectLanguage(ctx context.Context, text string) (string, error)
}

// Options tunes the HTTP surface
type Options struct {
	MaxUploadMB    int
	RequestTimeout time.Duration
}

type handlers struct {
	service TranslationService
	outputs *workdir.Store
	opts    Options
	logger  *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, service TranslationService, outputs *workdir.Store, hub *websocket.Hub, m *metrics.Metrics, opts Options, logger *zap.Logger) {
	h := &handlers{service: service, outputs: outputs, opts: opts, logger: logger}

	e.Use(MetricsMiddleware(m))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:  "ok",
			Service: "voxlate",
		})
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.GET("/languages", h.listLanguages)
	v1.POST("/languages/detect", h.detectLanguage)

	uploadLimit := opts.MaxUploadMB
	if uploadLimit < 1 {
		uploadLimit = 25
	}
	v1.POST("/translations", h.createTranslation, middleware.BodyLimit(fmt.Sprintf("%dM", uploadLimit)))
	v1.GET("/audio/:name", h.getAudio)

	e.GET("/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(hub, c, logger)
	})
}

func (h *handlers) listLanguages(c echo.Context) error {
	langs := entities.SupportedLanguages()
	resp := make([]LanguageResponse, 0, len(langs))
	for _, lang := range langs {
		resp = append(resp, LanguageResponse{Code: lang.Code, Name: lang.Name})
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) detectLanguage(c echo.Context) error {
	var req DetectLanguageRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error("Failed to bind detect request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Text is required",
		})
	}

	code, err := h.service.DetectLanguage(c.Request().Context(), req.Text)
	if err != nil {
		h.logger.Warn("Language detection failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "detection_failed",
			Message: "Language detection failed",
		})
	}
	return c.JSON(http.StatusOK, DetectLanguageResponse{Language: code})
}

func (h *handlers) createTranslation(c echo.Context) error {
	slow := false
	if raw := c.FormValue("slow"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "slow must be a boolean",
			})
		}
		slow = v
	}

	asset, err := readUpload(c)
	if err != nil {
		h.logger.Warn("Rejected translation upload", zap.Error(err))
		return writePipelineError(c, err)
	}

	ctx := c.Request().Context()
	if h.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.RequestTimeout)
		defer cancel()
	}

	result, err := h.service.Run(ctx, entities.PipelineRequest{
		Audio:      asset,
		SourceLang: c.FormValue("source_lang"),
		TargetLang: c.FormValue("target_lang"),
		Slow:       slow,
	})
	if err != nil {
		return writePipelineError(c, err)
	}

	return c.JSON(http.StatusOK, TranslationResponse{
		RunID:        result.RunID,
		Transcript:   result.Transcript,
		Translation:  result.Translation,
		AudioURL:     audioURL(result),
		DownloadName: result.DownloadName,
		DurationMs:   result.Audio.Duration.Milliseconds(),
		Segments:     result.Segments,
	})
}

// readUpload loads the "audio" form file into memory
func readUpload(c echo.Context) (entities.AudioAsset, error) {
	fh, err := c.FormFile("audio")
	if err != nil {
		return entities.AudioAsset{}, domain.NewError(domain.CodeMissingInput, "audio file is required", err)
	}
	f, err := fh.Open()
	if err != nil {
		return entities.AudioAsset{}, domain.NewError(domain.CodeMissingInput, "failed to open uploaded audio", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return entities.AudioAsset{}, domain.NewError(domain.CodeMissingInput, "failed to read uploaded audio", err)
	}
	if len(data) == 0 {
		return entities.AudioAsset{}, domain.Errorf(domain.CodeMissingInput, "uploaded audio is empty")
	}

	return entities.AudioAsset{
		Data:     data,
		Encoding: entities.EncodingFromPath(fh.Filename),
	}, nil
}

func audioURL(result *entities.PipelineResult) string {
	if result.Audio.Path == "" {
		return ""
	}
	lang := url.QueryEscape(langFromDownloadName(result.DownloadName))
	return "/api/v1/audio/" + url.PathEscape(filepath.Base(result.Audio.Path)) + "?download=" + lang
}

// langFromDownloadName extracts <lang> from translated_audio_<lang>.<ext>
func langFromDownloadName(name string) string {
	lang, ok := strings.CutPrefix(strings.TrimSuffix(name, filepath.Ext(name)), "translated_audio_")
	if !ok {
		return ""
	}
	return lang
}

func (h *handlers) getAudio(c echo.Context) error {
	name := c.Param("name")
	path, err := h.outputs.Resolve(name)
	if err != nil {
		h.logger.Debug("Audio not found", zap.String("name", name), zap.Error(err))
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Audio file not found",
		})
	}

	encoding := entities.EncodingFromPath(name)
	c.Response().Header().Set(echo.HeaderContentType, encoding.MIMEType())

	if lang := c.QueryParam("download"); lang != "" {
		if !entities.IsSupportedLanguage(lang) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   string(domain.CodeUnsupportedLanguage),
				Message: "Unsupported download language",
			})
		}
		return c.Attachment(path, entities.DownloadName(lang, encoding))
	}
	return c.File(path)
}
