package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/satriahrh/voxlate/domain/entities"
	"github.com/satriahrh/voxlate/domain/repositories"
	"github.com/satriahrh/voxlate/internal/audio"
)

const (
	defaultGoogleTTSBaseURL = "https://translate.google.com"
	googleTTSUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	// GoogleTTSMaxChars is the longest text the endpoint accepts per request
	GoogleTTSMaxChars = 200
)

// GoogleTranslateTTS implements Synthesizer with the public Google Translate
// speech endpoint. It needs no credentials and always returns MP3.
type GoogleTranslateTTS struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ repositories.Synthesizer = (*GoogleTranslateTTS)(nil)

// NewGoogleTranslateTTS creates the synthesizer; baseURL may be empty
func NewGoogleTranslateTTS(baseURL string, logger *zap.Logger) *GoogleTranslateTTS {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultGoogleTTSBaseURL
		logger.Info("Using default API base URL", zap.String("baseURL", baseURL))
	}
	return &GoogleTranslateTTS{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Synthesize fetches MP3 speech for one segment
func (g *GoogleTranslateTTS) Synthesize(ctx context.Context, text, languageCode string, slow bool) (entities.AudioAsset, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return entities.AudioAsset{}, fmt.Errorf("text cannot be empty")
	}
	if n := utf8.RuneCountInString(text); n > GoogleTTSMaxChars {
		return entities.AudioAsset{}, fmt.Errorf("text of %d chars exceeds the %d char limit", n, GoogleTTSMaxChars)
	}

	speed := "1"
	if slow {
		speed = "0.24"
	}
	query := url.Values{
		"ie":       {"UTF-8"},
		"client":   {"tw-ob"},
		"q":        {text},
		"tl":       {languageCode},
		"ttsspeed": {speed},
		"total":    {"1"},
		"idx":      {"0"},
		"textlen":  {strconv.Itoa(utf8.RuneCountInString(text))},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/translate_tts?"+query.Encode(), nil)
	if err != nil {
		return entities.AudioAsset{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("User-Agent", googleTTSUserAgent)
	httpReq.Header.Set("Referer", "https://translate.google.com/")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return entities.AudioAsset{}, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return entities.AudioAsset{}, fmt.Errorf("API returned error %d: %s", resp.StatusCode, strings.TrimSpace(string(errorBody)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return entities.AudioAsset{}, fmt.Errorf("failed to read audio: %w", err)
	}

	duration, err := audio.MP3Duration(body)
	if err != nil {
		return entities.AudioAsset{}, fmt.Errorf("invalid MP3 from provider: %w", err)
	}

	g.logger.Info("Segment synthesized",
		zap.String("language", languageCode),
		zap.Bool("slow", slow),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", duration))

	return entities.AudioAsset{Data: body, Encoding: entities.EncodingMP3, Duration: duration}, nil
}
