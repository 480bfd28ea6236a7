package api

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// LanguageResponse is one entry of the supported-language list
type LanguageResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// TranslationResponse represents the response payload of a completed translation
type TranslationResponse struct {
	RunID        string `json:"run_id"`
	Transcript   string `json:"transcript"`
	Translation  string `json:"translation"`
	AudioURL     string `json:"audio_url"`
	DownloadName string `json:"download_name"`
	DurationMs   int64  `json:"duration_ms"`
	Segments     int    `json:"segments"`
}

// DetectLanguageRequest represents the request payload for language detection
type DetectLanguageRequest struct {
	Text string `json:"text"`
}

// DetectLanguageResponse carries the detected code, empty when unknown
type DetectLanguageResponse struct {
	Language string `json:"language"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
